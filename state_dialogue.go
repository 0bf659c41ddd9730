package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// DialogueState は会話画面です。tengo スクリプトが生成するコマンド列を
// 1つずつ消費し、say はタイプライターで表示します。SHOP や BATTLE を
// 上に積んで戻ってきたときはスクリプトを再起動せず、続きから再開します。
type DialogueState struct {
	BaseState
	res     *SharedResources
	machine *GameStateManager

	scriptName string
	current    *DialogueCommand
	typewriter *Typewriter

	choiceCursor int
	finished     bool
}

func NewDialogueState(res *SharedResources, machine *GameStateManager) *DialogueState {
	return &DialogueState{res: res, machine: machine}
}

func (s *DialogueState) Enter(data StateData) {
	if data.IsResuming() {
		// スクリプトエンジンは生きています。表示待ちのコマンドが残っていれば
		// そのまま見せ、無ければ続きのコマンドへ進みます。戦闘勝利後は
		// ポップ復帰の直後に戦利品ウィンドウの往復がもう一度入るため、
		// ここで無条件に進めると段取り済みの say が表示されずに捨てられます。
		if s.current == nil {
			s.advance()
		}
		return
	}
	s.scriptName = data.String("script")
	s.current = nil
	s.typewriter = nil
	s.choiceCursor = 0
	s.finished = false
	if err := s.res.Scripts.StartScript(s.scriptName); err != nil {
		s.res.Logger.Errorw("会話スクリプトを開始できません", "script", s.scriptName, "error", err)
		s.machine.PopState()
		return
	}
	s.advance()
}

func (s *DialogueState) Exit() {
	s.res.Scripts.Reset()
	s.current = nil
	s.typewriter = nil
}

// advance は次のコマンドを取り出して処理します。表示を伴わないコマンド
// （アイテム付与など）は続けて消費します。
func (s *DialogueState) advance() {
	for {
		cmd, ok := s.res.Scripts.Next()
		if !ok {
			s.finish()
			return
		}
		switch cmd.Kind {
		case CmdSay:
			s.current = &cmd
			s.typewriter = NewTypewriter(cmd.Text,
				s.res.Settings.TextSpeedCPS(&s.res.Config.Dialogue),
				s.res.Config.Dialogue.MaxRevealPerFrame)
			return
		case CmdChoice:
			s.current = &cmd
			s.typewriter = nil
			s.choiceCursor = 0
			return
		case CmdOpenShop:
			s.current = nil
			s.machine.PushState(StateShop, StateData{"shop": cmd.ShopID})
			return
		case CmdStartBattle:
			s.current = nil
			s.machine.PushState(StateBattle, StateData{"encounter": cmd.EncounterID})
			return
		case CmdGiveItem:
			s.res.Party.AddItem(cmd.ItemID, cmd.Count)
			s.res.Audio.PlayEffect("confirm")
		case CmdEnd:
			s.finish()
			return
		}
	}
}

func (s *DialogueState) finish() {
	if s.finished {
		return
	}
	s.finished = true
	s.machine.PopState()
}

func (s *DialogueState) HandleInput(input InputProvider) {
	if s.current == nil {
		return
	}
	switch s.current.Kind {
	case CmdSay:
		if !input.IsJustPressed(ActionConfirm) {
			return
		}
		input.ConsumePress(ActionConfirm)
		// 表示中なら全文表示に飛ばし、表示済みなら次へ進みます。
		if s.typewriter != nil && !s.typewriter.Done() {
			s.typewriter.RevealAll()
			return
		}
		s.advance()
	case CmdChoice:
		options := s.current.Options
		if input.IsJustPressed(ActionUp) {
			s.choiceCursor = wrapIndex(s.choiceCursor-1, len(options))
			s.res.Audio.PlayEffect("cursor")
		}
		if input.IsJustPressed(ActionDown) {
			s.choiceCursor = wrapIndex(s.choiceCursor+1, len(options))
			s.res.Audio.PlayEffect("cursor")
		}
		if !input.IsJustPressed(ActionConfirm) || len(options) == 0 {
			return
		}
		input.ConsumePress(ActionConfirm)
		s.res.Audio.PlayEffect("confirm")
		chosen := options[s.choiceCursor]
		if err := s.res.Scripts.ResolveChoice(chosen.ID); err != nil {
			s.res.Logger.Errorw("選択肢の解決に失敗しました", "script", s.scriptName, "choice", chosen.ID, "error", err)
			s.finish()
			return
		}
		s.advance()
	}
}

func (s *DialogueState) Update(dt float64) {
	if s.typewriter != nil {
		s.typewriter.Update(dt)
	}
}

func (s *DialogueState) Draw(screen *ebiten.Image) {
	if s.current == nil {
		return
	}
	b := screen.Bounds()
	boxY := float32(b.Dy()) - 70
	vector.DrawFilledRect(screen, 4, boxY, float32(b.Dx())-8, 66,
		color.RGBA{0, 0, 0, 0xc0}, false)

	switch s.current.Kind {
	case CmdSay:
		drawTextLine(screen, s.res.Font, s.current.Speaker, 12, float64(boxY)+14)
		if s.typewriter != nil {
			drawTextLine(screen, s.res.Font, s.typewriter.PlainRevealed(), 12, float64(boxY)+34)
		}
	case CmdChoice:
		drawTextLine(screen, s.res.Font, s.current.Prompt, 12, float64(boxY)+14)
		labels := make([]string, len(s.current.Options))
		for i, opt := range s.current.Options {
			labels[i] = opt.Label
		}
		drawMenuList(screen, s.res.Font, labels, s.choiceCursor, 24, float64(boxY)+30)
	}
}
