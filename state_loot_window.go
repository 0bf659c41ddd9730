package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// LootWindowState は戦闘後の戦利品ウィンドウです。アイテムとシールした
// スピリットの一覧を表示し、決定で閉じます。付与自体は戦闘終了時に
// 済んでいるため、ここは表示だけです。
type LootWindowState struct {
	BaseState
	res     *SharedResources
	machine *GameStateManager

	lines []string
}

func NewLootWindowState(res *SharedResources, machine *GameStateManager) *LootWindowState {
	return &LootWindowState{res: res, machine: machine}
}

func (s *LootWindowState) Enter(data StateData) {
	s.lines = s.lines[:0]
	if items, ok := data["items"].([]string); ok {
		for _, id := range items {
			name := id
			if def, found := s.res.GameData.GetItemDefinition(id); found {
				name = def.Name
			}
			s.lines = append(s.lines, s.res.Messages.T("loot.item", map[string]any{"name": name}))
		}
	}
	if sealed, ok := data["sealed"].([]string); ok {
		for _, id := range sealed {
			name := id
			if def, found := s.res.GameData.GetEnemyDefinition(id); found {
				name = def.Name
			}
			s.lines = append(s.lines, s.res.Messages.T("loot.sealed", map[string]any{"name": name}))
		}
	}
}

func (s *LootWindowState) HandleInput(input InputProvider) {
	if input.IsJustPressed(ActionConfirm) || input.IsJustPressed(ActionCancel) {
		input.ConsumePress(ActionConfirm)
		input.ConsumePress(ActionCancel)
		s.res.Audio.PlayEffect("confirm")
		s.machine.PopState()
	}
}

func (s *LootWindowState) Draw(screen *ebiten.Image) {
	b := screen.Bounds()
	vector.DrawFilledRect(screen, 40, 40, float32(b.Dx())-80, float32(b.Dy())-80,
		color.RGBA{0, 0, 0, 0xc8}, false)
	drawTextLine(screen, s.res.Font, s.res.Messages.T("loot.title", nil), 52, 56)
	for i, line := range s.lines {
		drawTextLine(screen, s.res.Font, line, 52, 80+float64(i)*16)
	}
	drawTextLine(screen, s.res.Font, s.res.Messages.T("ui.press_confirm", nil),
		52, float64(b.Dy())-60)
}
