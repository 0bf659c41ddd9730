package main

import (
	resource "github.com/quasilyte/ebitengine-resource"
)

// Resource IDs
const (
	_ resource.RawID = iota
	RawMessagesJSON
	RawSpiritsJSON
	RawAbilitiesJSON
	RawEnemiesJSON
	RawEncountersJSON
	RawItemsJSON
	RawShopsJSON
)

const (
	_ resource.AudioID = iota
	AudioCursor
	AudioConfirm
	AudioCancel
	AudioError
	AudioHit
	AudioHeal
	AudioSeal
	AudioVictory
	AudioBGMField
	AudioBGMBattle
)
