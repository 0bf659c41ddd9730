package main

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
)

// inventoryEntry はアイテム一覧の表示用の1行です。
type inventoryEntry struct {
	ID    string
	Count int
}

// InventoryState は所持アイテム画面です。消費アイテムは使用対象の
// スピリットを選んで HP/MP を回復します。
type InventoryState struct {
	BaseState
	res     *SharedResources
	machine *GameStateManager

	entries []inventoryEntry
	cursor  int

	// 使用対象の選択中かどうか。対象はパーティの隊列順です。
	targeting    bool
	targetCursor int
}

func NewInventoryState(res *SharedResources, machine *GameStateManager) *InventoryState {
	return &InventoryState{res: res, machine: machine}
}

func (s *InventoryState) Enter(data StateData) {
	if !data.IsResuming() {
		s.cursor = 0
	}
	s.targeting = false
	s.rebuild()
}

// rebuild は所持アイテムを ID 順の一覧に並べ直します。
func (s *InventoryState) rebuild() {
	s.entries = s.entries[:0]
	for id, count := range s.res.Party.Items {
		if count > 0 {
			s.entries = append(s.entries, inventoryEntry{ID: id, Count: count})
		}
	}
	sort.Slice(s.entries, func(i, j int) bool { return s.entries[i].ID < s.entries[j].ID })
	if s.cursor >= len(s.entries) {
		s.cursor = len(s.entries) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *InventoryState) HandleInput(input InputProvider) {
	if s.targeting {
		s.handleTargeting(input)
		return
	}
	if input.IsJustPressed(ActionUp) {
		s.cursor = wrapIndex(s.cursor-1, len(s.entries))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionDown) {
		s.cursor = wrapIndex(s.cursor+1, len(s.entries))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionCancel) || input.IsJustPressed(ActionInventory) {
		input.ConsumePress(ActionCancel)
		input.ConsumePress(ActionInventory)
		s.res.Audio.PlayEffect("cancel")
		s.machine.PopState()
		return
	}
	if input.IsJustPressed(ActionInteract) && len(s.entries) > 0 {
		input.ConsumePress(ActionInteract)
		// 捨てる。キーアイテムは捨てられません。
		entry := s.entries[s.cursor]
		def, ok := s.res.GameData.GetItemDefinition(entry.ID)
		if ok && def.Kind == ItemKeyItem {
			s.res.Audio.PlayEffect("error")
			return
		}
		s.res.Party.RemoveItem(entry.ID)
		s.res.Audio.PlayEffect("cancel")
		s.rebuild()
		return
	}
	if !input.IsJustPressed(ActionConfirm) || len(s.entries) == 0 {
		return
	}
	input.ConsumePress(ActionConfirm)
	entry := s.entries[s.cursor]
	def, ok := s.res.GameData.GetItemDefinition(entry.ID)
	if !ok || def.Kind != ItemConsumable {
		s.res.Audio.PlayEffect("error")
		return
	}
	s.targeting = true
	s.targetCursor = 0
}

func (s *InventoryState) handleTargeting(input InputProvider) {
	members := s.res.Party.Spirits
	if input.IsJustPressed(ActionUp) {
		s.targetCursor = wrapIndex(s.targetCursor-1, len(members))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionDown) {
		s.targetCursor = wrapIndex(s.targetCursor+1, len(members))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionCancel) {
		input.ConsumePress(ActionCancel)
		s.targeting = false
		return
	}
	if !input.IsJustPressed(ActionConfirm) || len(members) == 0 {
		return
	}
	input.ConsumePress(ActionConfirm)
	s.targeting = false
	s.useItem(members[s.targetCursor])
}

// useItem は消費アイテムを1つ使い、対象の HP/MP を回復します。
func (s *InventoryState) useItem(target *SpiritRecord) {
	entry := s.entries[s.cursor]
	def, ok := s.res.GameData.GetItemDefinition(entry.ID)
	if !ok {
		return
	}
	if target.CurrentHP >= target.MaxHP && def.HealMP == 0 {
		s.res.Audio.PlayEffect("error")
		return
	}
	target.CurrentHP += def.HealHP
	if target.CurrentHP > target.MaxHP {
		target.CurrentHP = target.MaxHP
	}
	target.CurrentMP += def.HealMP
	if target.CurrentMP > target.MaxMP {
		target.CurrentMP = target.MaxMP
	}
	s.res.Party.RemoveItem(entry.ID)
	s.res.Audio.PlayEffect("heal")
	s.rebuild()
}

func (s *InventoryState) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{28, 24, 20, 255})
	drawTextLine(screen, s.res.Font, s.res.Messages.T("inventory.title", nil), 20, 20)

	if len(s.entries) == 0 {
		drawTextLine(screen, s.res.Font, s.res.Messages.T("inventory.empty", nil), 20, 50)
		return
	}
	labels := make([]string, len(s.entries))
	for i, e := range s.entries {
		name := e.ID
		if def, ok := s.res.GameData.GetItemDefinition(e.ID); ok {
			name = def.Name
		}
		labels[i] = fmt.Sprintf("%s x%d", name, e.Count)
	}
	drawMenuList(screen, s.res.Font, labels, s.cursor, 20, 50)

	if def, ok := s.res.GameData.GetItemDefinition(s.entries[s.cursor].ID); ok {
		drawTextLine(screen, s.res.Font, def.Description, 20, 210)
	}

	if s.targeting {
		names := make([]string, len(s.res.Party.Spirits))
		for i, rec := range s.res.Party.Spirits {
			names[i] = fmt.Sprintf("%s HP %d/%d", rec.Name, rec.CurrentHP, rec.MaxHP)
		}
		drawMenuList(screen, s.res.Font, names, s.targetCursor, 180, 50)
	}
}
