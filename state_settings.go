package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// SettingsState は設定画面です。項目は SettingKind でタグ付けされた閉じた
// 集合で、種別ごとの操作は網羅的な switch で行います。終了時に永続化します。
type SettingsState struct {
	BaseState
	res     *SharedResources
	machine *GameStateManager

	options []*SettingOption
	cursor  int

	// キー割り当ての取り込み待ちかどうか。次に押された物理キーを採用します。
	capturing bool
}

func NewSettingsState(res *SharedResources, machine *GameStateManager) *SettingsState {
	return &SettingsState{res: res, machine: machine}
}

func (s *SettingsState) Enter(data StateData) {
	if !data.IsResuming() {
		s.cursor = 0
	}
	s.capturing = false
	s.options = s.res.Settings.BuildOptions(s.res.Input)
}

func (s *SettingsState) Exit() {
	if err := s.res.Settings.Save(); err != nil {
		s.res.Logger.Errorw("設定の保存に失敗しました", "error", err)
	}
	s.options = nil
}

func (s *SettingsState) HandleInput(input InputProvider) {
	if s.capturing {
		// 取り込み中はアクションではなく物理キーを読みます（Update で処理）。
		return
	}
	if input.IsJustPressed(ActionUp) {
		s.cursor = wrapIndex(s.cursor-1, len(s.options))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionDown) {
		s.cursor = wrapIndex(s.cursor+1, len(s.options))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionCancel) || input.IsJustPressed(ActionMenu) {
		input.ConsumePress(ActionCancel)
		input.ConsumePress(ActionMenu)
		s.res.Audio.PlayEffect("cancel")
		s.machine.PopState()
		return
	}
	if len(s.options) == 0 {
		return
	}
	opt := s.options[s.cursor]

	dir := 0
	if input.IsJustPressed(ActionLeft) {
		dir = -1
	}
	if input.IsJustPressed(ActionRight) {
		dir = 1
	}
	if dir != 0 {
		if s.res.Settings.Adjust(opt, dir) {
			s.res.Audio.PlayEffect("cursor")
		} else {
			s.res.Audio.PlayEffect("error")
		}
		return
	}

	if input.IsJustPressed(ActionConfirm) {
		input.ConsumePress(ActionConfirm)
		switch opt.Kind {
		case SettingToggle:
			if s.res.Settings.Adjust(opt, 1) {
				s.res.Audio.PlayEffect("confirm")
			}
		case SettingBinding:
			s.capturing = true
			s.res.Audio.PlayEffect("confirm")
		case SettingSlider, SettingSelect, SettingInfo:
			// 決定キーでは変化しません。左右で操作します。
		}
	}
}

func (s *SettingsState) Update(dt float64) {
	if !s.capturing || s.res.Input == nil || len(s.options) == 0 {
		return
	}
	keys := inpututil.AppendJustPressedKeys(nil)
	if len(keys) == 0 {
		return
	}
	key := keys[0]
	if key == ebiten.KeyEscape {
		s.capturing = false
		s.res.Audio.PlayEffect("cancel")
		return
	}
	s.res.Settings.SetBinding(s.options[s.cursor], key, s.res.Input)
	s.capturing = false
	s.res.Audio.PlayEffect("confirm")
}

func (s *SettingsState) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{20, 28, 32, 255})
	drawTextLine(screen, s.res.Font, s.res.Messages.T("settings.title", nil), 20, 20)
	labels := make([]string, len(s.options))
	for i, opt := range s.options {
		labels[i] = fmt.Sprintf("%-16s %s", opt.Label, opt.ValueString())
	}
	drawMenuList(screen, s.res.Font, labels, s.cursor, 20, 50)
	if s.capturing {
		drawTextLine(screen, s.res.Font, s.res.Messages.T("settings.press_key", nil), 20, 220)
	}
}
