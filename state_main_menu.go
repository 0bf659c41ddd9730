package main

import (
	"image/color"
	"os"

	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
)

// MainMenuState はタイトル画面です。ボタンは ebitenui で構築し、
// キーボード操作（上下＋決定）も同じアクションに束ねます。
type MainMenuState struct {
	BaseState
	res     *SharedResources
	machine *GameStateManager

	ui       *ebitenui.UI
	cursor   int
	actions  []func()
	labels   []string
	disabled map[int]bool
}

func NewMainMenuState(res *SharedResources, machine *GameStateManager) *MainMenuState {
	return &MainMenuState{res: res, machine: machine}
}

func (s *MainMenuState) Enter(data StateData) {
	s.cursor = 0
	s.buildMenu()
	s.res.Audio.PlayBGM("bgm_field")
}

func (s *MainMenuState) Exit() {
	s.ui = nil
	s.actions = nil
}

// buildMenu はメニュー項目と ebitenui のボタン列を組み立てます。
// Continue はセーブが存在するときだけ有効です。
func (s *MainMenuState) buildMenu() {
	s.labels = []string{
		s.res.Messages.T("menu.new_game", nil),
		s.res.Messages.T("menu.continue", nil),
		s.res.Messages.T("menu.settings", nil),
		s.res.Messages.T("menu.quit", nil),
	}
	s.disabled = map[int]bool{}
	if !s.res.Saves.HasSaves() {
		s.disabled[1] = true
	}
	s.actions = []func(){
		s.startNewGame,
		s.continueGame,
		func() { s.machine.PushState(StateSettings, nil) },
		func() { os.Exit(0) },
	}

	rootContainer := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	panel := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(16),
			widget.RowLayoutOpts.Padding(widget.NewInsetsSimple(40)),
		)),
		widget.ContainerOpts.WidgetOpts(widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
			HorizontalPosition: widget.AnchorLayoutPositionCenter,
			VerticalPosition:   widget.AnchorLayoutPositionCenter,
		})),
	)
	rootContainer.AddChild(panel)

	panel.AddChild(widget.NewText(
		widget.TextOpts.Text(s.res.Messages.T("menu.title", nil), s.res.Font, color.White),
		widget.TextOpts.Position(widget.TextPositionCenter, widget.TextPositionCenter),
	))

	buttonImage := &widget.ButtonImage{
		Idle:    image.NewNineSliceColor(color.RGBA{60, 60, 80, 255}),
		Hover:   image.NewNineSliceColor(color.RGBA{100, 100, 130, 255}),
		Pressed: image.NewNineSliceColor(color.RGBA{40, 40, 60, 255}),
	}
	buttonTextColor := &widget.ButtonTextColor{Idle: color.White}

	for i, label := range s.labels {
		index := i
		button := widget.NewButton(
			widget.ButtonOpts.Image(buttonImage),
			widget.ButtonOpts.Text(label, s.res.Font, buttonTextColor),
			widget.ButtonOpts.TextPadding(widget.NewInsetsSimple(8)),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				s.activate(index)
			}),
		)
		if s.disabled[i] {
			button.GetWidget().Disabled = true
		}
		panel.AddChild(button)
	}

	s.ui = &ebitenui.UI{Container: rootContainer}
}

func (s *MainMenuState) activate(index int) {
	if s.disabled[index] {
		s.res.Audio.PlayEffect("error")
		return
	}
	s.res.Audio.PlayEffect("confirm")
	s.actions[index]()
}

func (s *MainMenuState) startNewGame() {
	party := NewPartyFromDefinitions(s.res.GameData, s.res.Config.Game.StarterSpirits)
	party.Gold = s.res.Config.Game.StarterGold
	*s.res.Party = *party
	s.machine.ChangeState(StatePlaying, nil)
}

func (s *MainMenuState) continueGame() {
	latest := s.res.Saves.GetLatestSave()
	if latest == nil {
		s.res.Audio.PlayEffect("error")
		return
	}
	if err := s.res.Saves.LoadGame(latest.ID, s.res.Party); err != nil {
		s.res.Logger.Errorw("セーブデータの読み込みに失敗しました", "id", latest.ID, "error", err)
		s.res.Audio.PlayEffect("error")
		return
	}
	s.machine.ChangeState(StatePlaying, nil)
}

func (s *MainMenuState) HandleInput(input InputProvider) {
	if input.IsJustPressed(ActionUp) {
		s.cursor = wrapIndex(s.cursor-1, len(s.labels))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionDown) {
		s.cursor = wrapIndex(s.cursor+1, len(s.labels))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionConfirm) {
		input.ConsumePress(ActionConfirm)
		s.activate(s.cursor)
	}
}

func (s *MainMenuState) Update(dt float64) {
	if s.ui != nil {
		s.ui.Update()
	}
}

func (s *MainMenuState) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{16, 16, 28, 255})
	if s.ui != nil {
		s.ui.Draw(screen)
	}
	// キーボードカーソルはボタン列の左に重ねて描画します。
	drawTextLine(screen, s.res.Font, ">", 470, 300+float64(s.cursor)*40)
}
