package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// PausedState はゲーム中のポーズメニューです。下にある状態は凍結されたまま
// 保持され、このメニューから各オーバーレイへさらに積むことができます。
type PausedState struct {
	BaseState
	res     *SharedResources
	machine *GameStateManager

	cursor int
	labels []string
}

func NewPausedState(res *SharedResources, machine *GameStateManager) *PausedState {
	return &PausedState{res: res, machine: machine}
}

func (s *PausedState) Enter(data StateData) {
	if !data.IsResuming() {
		s.cursor = 0
	}
	s.labels = []string{
		s.res.Messages.T("pause.resume", nil),
		s.res.Messages.T("pause.inventory", nil),
		s.res.Messages.T("pause.save", nil),
		s.res.Messages.T("pause.settings", nil),
		s.res.Messages.T("pause.quit", nil),
	}
}

func (s *PausedState) HandleInput(input InputProvider) {
	if input.IsJustPressed(ActionUp) {
		s.cursor = wrapIndex(s.cursor-1, len(s.labels))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionDown) {
		s.cursor = wrapIndex(s.cursor+1, len(s.labels))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionCancel) || input.IsJustPressed(ActionMenu) {
		input.ConsumePress(ActionCancel)
		input.ConsumePress(ActionMenu)
		s.res.Audio.PlayEffect("cancel")
		s.machine.PopState()
		return
	}
	if !input.IsJustPressed(ActionConfirm) {
		return
	}
	input.ConsumePress(ActionConfirm)
	s.res.Audio.PlayEffect("confirm")
	switch s.cursor {
	case 0:
		s.machine.PopState()
	case 1:
		s.machine.PushState(StateInventory, nil)
	case 2:
		s.machine.PushState(StateSaveLoad, StateData{"mode": "save"})
	case 3:
		s.machine.PushState(StateSettings, nil)
	case 4:
		// オーバーレイ連鎖ごと破棄してタイトルへ戻ります。
		s.machine.ClearStack()
		s.machine.ChangeState(StateMainMenu, nil)
	}
}

func (s *PausedState) Draw(screen *ebiten.Image) {
	// 下の状態の画面が透けるように半透明の幕をかぶせます。
	b := screen.Bounds()
	vector.DrawFilledRect(screen, 0, 0, float32(b.Dx()), float32(b.Dy()),
		color.RGBA{0, 0, 0, 0xa0}, false)
	drawTextLine(screen, s.res.Font, s.res.Messages.T("pause.title", nil), 120, 60)
	drawMenuList(screen, s.res.Font, s.labels, s.cursor, 120, 90)
}
