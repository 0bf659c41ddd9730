package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2/audio"
	resource "github.com/quasilyte/ebitengine-resource"
	"go.uber.org/zap"
)

// initResources はリソースローダーを構築し、アセットを登録します。
// 音声アセットは存在するものだけを登録し、欠けていても起動を止めません。
// 戻り値の2つ目は実際に登録できた効果音・BGMの名前→IDの表です。
func initResources(audioContext *audio.Context, cfg *Config, logger *zap.SugaredLogger) (*resource.Loader, map[string]resource.AudioID) {
	l := resource.NewLoader(audioContext)

	l.OpenAssetFunc = func(path string) io.ReadCloser {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Errorw("アセットを開けませんでした", "path", path, "error", err)
			return io.NopCloser(bytes.NewReader(nil))
		}
		return io.NopCloser(bytes.NewReader(data))
	}

	assets := cfg.Paths.Assets
	rawResources := map[resource.RawID]resource.RawInfo{
		RawMessagesJSON:   {Path: filepath.Join(assets, "messages.json")},
		RawSpiritsJSON:    {Path: filepath.Join(assets, "spirits.json")},
		RawAbilitiesJSON:  {Path: filepath.Join(assets, "abilities.json")},
		RawEnemiesJSON:    {Path: filepath.Join(assets, "enemies.json")},
		RawEncountersJSON: {Path: filepath.Join(assets, "encounters.json")},
		RawItemsJSON:      {Path: filepath.Join(assets, "items.json")},
		RawShopsJSON:      {Path: filepath.Join(assets, "shops.json")},
	}
	l.RawRegistry.Assign(rawResources)

	// 音声ファイルは任意。見つかったものだけを登録します。
	type audioEntry struct {
		id  resource.AudioID
		rel string
	}
	audioFiles := map[string]audioEntry{
		"cursor":     {AudioCursor, "sfx/cursor.wav"},
		"confirm":    {AudioConfirm, "sfx/confirm.wav"},
		"cancel":     {AudioCancel, "sfx/cancel.wav"},
		"error":      {AudioError, "sfx/error.wav"},
		"hit":        {AudioHit, "sfx/hit.wav"},
		"heal":       {AudioHeal, "sfx/heal.wav"},
		"seal":       {AudioSeal, "sfx/seal.wav"},
		"victory":    {AudioVictory, "sfx/victory.wav"},
		"bgm_field":  {AudioBGMField, "bgm/field.ogg"},
		"bgm_battle": {AudioBGMBattle, "bgm/battle.ogg"},
	}
	audioResources := make(map[resource.AudioID]resource.AudioInfo)
	available := make(map[string]resource.AudioID)
	for name, entry := range audioFiles {
		path := filepath.Join(assets, entry.rel)
		if _, err := os.Stat(path); err != nil {
			logger.Debugw("音声アセットが見つからないため登録をスキップします", "path", path)
			continue
		}
		audioResources[entry.id] = resource.AudioInfo{Path: path, Volume: cfg.Audio.EffectVolume - 1.0}
		available[name] = entry.id
	}
	if len(audioResources) > 0 {
		l.AudioRegistry.Assign(audioResources)
	}

	return l, available
}
