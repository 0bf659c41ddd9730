package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// saveLoadPageSize は1ページに表示するセーブ枠の数です。
const saveLoadPageSize = 5

// SaveLoadState はセーブ・ロード画面です。mode はエントリデータの
// "mode"（save | load）で決まります。削除は確認モーダルを挟みます。
type SaveLoadState struct {
	BaseState
	res     *SharedResources
	machine *GameStateManager

	mode       string
	saves      []*SaveFile
	cursor     int
	page       int
	confirming bool // 削除確認モーダル表示中
	confirmYes bool
}

func NewSaveLoadState(res *SharedResources, machine *GameStateManager) *SaveLoadState {
	return &SaveLoadState{res: res, machine: machine}
}

func (s *SaveLoadState) Enter(data StateData) {
	if !data.IsResuming() {
		s.mode = data.String("mode")
		if s.mode == "" {
			s.mode = "load"
		}
		s.cursor = 0
		s.page = 0
	}
	s.confirming = false
	s.reload()
}

func (s *SaveLoadState) reload() {
	s.saves = s.res.Saves.GetAllSaves()
	max := len(s.saves)
	if s.mode == "save" {
		// 先頭の「新規セーブ」枠を含めます。
		max++
	}
	if max == 0 {
		s.cursor = 0
		return
	}
	if s.cursor >= max {
		s.cursor = max - 1
	}
	s.page = s.cursor / saveLoadPageSize
}

// entryCount はカーソルが動ける枠の総数です。
func (s *SaveLoadState) entryCount() int {
	if s.mode == "save" {
		return len(s.saves) + 1
	}
	return len(s.saves)
}

// selectedSave はカーソル位置のセーブを返します。save モードの新規枠では nil です。
func (s *SaveLoadState) selectedSave() *SaveFile {
	i := s.cursor
	if s.mode == "save" {
		i--
	}
	if i < 0 || i >= len(s.saves) {
		return nil
	}
	return s.saves[i]
}

func (s *SaveLoadState) HandleInput(input InputProvider) {
	if s.confirming {
		s.handleConfirmModal(input)
		return
	}

	count := s.entryCount()
	if input.IsJustPressed(ActionUp) {
		s.cursor = wrapIndex(s.cursor-1, count)
		s.page = s.cursor / saveLoadPageSize
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionDown) {
		s.cursor = wrapIndex(s.cursor+1, count)
		s.page = s.cursor / saveLoadPageSize
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionCancel) {
		input.ConsumePress(ActionCancel)
		s.res.Audio.PlayEffect("cancel")
		s.machine.PopState()
		return
	}
	if input.IsJustPressed(ActionInteract) && s.selectedSave() != nil {
		input.ConsumePress(ActionInteract)
		s.confirming = true
		s.confirmYes = false
		return
	}
	if !input.IsJustPressed(ActionConfirm) || count == 0 {
		return
	}
	input.ConsumePress(ActionConfirm)
	if s.mode == "save" {
		s.doSave()
	} else {
		s.doLoad()
	}
}

func (s *SaveLoadState) handleConfirmModal(input InputProvider) {
	if input.IsJustPressed(ActionLeft) || input.IsJustPressed(ActionRight) ||
		input.IsJustPressed(ActionUp) || input.IsJustPressed(ActionDown) {
		s.confirmYes = !s.confirmYes
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionCancel) {
		input.ConsumePress(ActionCancel)
		s.confirming = false
		return
	}
	if !input.IsJustPressed(ActionConfirm) {
		return
	}
	input.ConsumePress(ActionConfirm)
	s.confirming = false
	if !s.confirmYes {
		return
	}
	save := s.selectedSave()
	if save == nil {
		return
	}
	if s.res.Saves.DeleteSave(save.ID) {
		s.res.Audio.PlayEffect("confirm")
	} else {
		s.res.Audio.PlayEffect("error")
	}
	s.reload()
}

func (s *SaveLoadState) doSave() {
	id := ""
	name := fmt.Sprintf("Save %d", len(s.saves)+1)
	if existing := s.selectedSave(); existing != nil {
		id = existing.ID
		name = existing.Name
	}
	if _, err := s.res.Saves.SaveGame(s.res.Party, name, id); err != nil {
		s.res.Logger.Errorw("セーブに失敗しました", "error", err)
		s.res.Audio.PlayEffect("error")
		return
	}
	s.res.Audio.PlayEffect("confirm")
	s.reload()
}

func (s *SaveLoadState) doLoad() {
	save := s.selectedSave()
	if save == nil {
		s.res.Audio.PlayEffect("error")
		return
	}
	if err := s.res.Saves.LoadGame(save.ID, s.res.Party); err != nil {
		s.res.Logger.Errorw("ロードに失敗しました", "id", save.ID, "error", err)
		s.res.Audio.PlayEffect("error")
		return
	}
	s.res.Audio.PlayEffect("confirm")
	// オーバーレイの経路に関係なく、ロード後はフィールドからやり直します。
	s.machine.ClearStack()
	s.machine.ChangeState(StatePlaying, nil)
}

func (s *SaveLoadState) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{20, 20, 32, 255})
	titleKey := "saveload.title_load"
	if s.mode == "save" {
		titleKey = "saveload.title_save"
	}
	drawTextLine(screen, s.res.Font, s.res.Messages.T(titleKey, nil), 20, 20)

	labels := s.pageLabels()
	first := s.page * saveLoadPageSize
	drawMenuList(screen, s.res.Font, labels, s.cursor-first, 20, 50)
	drawTextLine(screen, s.res.Font,
		fmt.Sprintf("%d / %d", s.page+1, s.pageCount()), 20, 200)

	if s.confirming {
		drawTextLine(screen, s.res.Font, s.res.Messages.T("saveload.confirm_delete", nil), 80, 220)
		yn := []string{s.res.Messages.T("ui.no", nil), s.res.Messages.T("ui.yes", nil)}
		sel := 0
		if s.confirmYes {
			sel = 1
		}
		drawMenuList(screen, s.res.Font, yn, sel, 100, 236)
	}
}

func (s *SaveLoadState) pageCount() int {
	count := s.entryCount()
	if count == 0 {
		return 1
	}
	return (count + saveLoadPageSize - 1) / saveLoadPageSize
}

func (s *SaveLoadState) pageLabels() []string {
	var labels []string
	first := s.page * saveLoadPageSize
	for i := first; i < first+saveLoadPageSize && i < s.entryCount(); i++ {
		idx := i
		if s.mode == "save" {
			if idx == 0 {
				labels = append(labels, s.res.Messages.T("saveload.new_slot", nil))
				continue
			}
			idx--
		}
		save := s.saves[idx]
		labels = append(labels, fmt.Sprintf("%s  G%d  %s",
			save.Name, save.Gold, save.CreatedAt.Format("01/02 15:04")))
	}
	if len(labels) == 0 {
		labels = append(labels, s.res.Messages.T("saveload.empty", nil))
	}
	return labels
}
