package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// フィールドの簡易レイアウトです。村は左側、草むらは右側にあります。
const (
	fieldWidth    = 320.0
	fieldHeight   = 240.0
	villageEdgeX  = 120.0
	npcX, npcY    = 60.0, 120.0
	interactRange = 24.0
	moveSpeed     = 80.0
	encounterRoll = 0.35 // 草むらで1歩ごとの抽選確率
	encounterStep = 16.0 // 抽選1回分の移動距離
)

// PlayingState はフィールド探索です。パーティの実体（ゴールド・経験値の
// 反映先）を所有し、NPC会話・エンカウント・各種メニューへの入口になります。
type PlayingState struct {
	BaseState
	res     *SharedResources
	machine *GameStateManager

	playerX, playerY float64
	stepDistance     float64
}

func NewPlayingState(res *SharedResources, machine *GameStateManager) *PlayingState {
	return &PlayingState{res: res, machine: machine}
}

func (s *PlayingState) Enter(data StateData) {
	if data.IsResuming() {
		s.res.Audio.ResumeBGM()
		return
	}
	s.playerX, s.playerY = 90, 120
	s.stepDistance = 0
	s.res.Audio.PlayBGM("bgm_field")
}

func (s *PlayingState) Resume() {
	s.res.Audio.ResumeBGM()
}

func (s *PlayingState) HandleInput(input InputProvider) {
	if input.IsJustPressed(ActionMenu) {
		input.ConsumePress(ActionMenu)
		s.machine.PushState(StatePaused, nil)
		return
	}
	if input.IsJustPressed(ActionInventory) {
		input.ConsumePress(ActionInventory)
		s.machine.PushState(StateInventory, nil)
		return
	}
	if input.IsJustPressed(ActionInteract) {
		input.ConsumePress(ActionInteract)
		s.tryInteract()
		return
	}

	var dx, dy float64
	if input.IsPressed(ActionUp) {
		dy -= 1
	}
	if input.IsPressed(ActionDown) {
		dy += 1
	}
	if input.IsPressed(ActionLeft) {
		dx -= 1
	}
	if input.IsPressed(ActionRight) {
		dx += 1
	}
	s.move(dx, dy)
}

// tryInteract はNPCの近くで会話スクリプトを起動します。
// 戦闘・会話直後のクールダウン中は再発火しません。
func (s *PlayingState) tryInteract() {
	if s.res.Party.InteractionCooldown > 0 {
		return
	}
	dx := s.playerX - npcX
	dy := s.playerY - npcY
	if dx*dx+dy*dy > interactRange*interactRange {
		return
	}
	s.res.Party.InteractionCooldown = s.res.Config.Battle.InteractionCooldown
	s.machine.PushState(StateDialogue, StateData{
		"script": s.res.Config.Game.VillageScript,
	})
}

func (s *PlayingState) move(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	step := moveSpeed / 60.0
	s.playerX += dx * step
	s.playerY += dy * step
	if s.playerX < 0 {
		s.playerX = 0
	}
	if s.playerX > fieldWidth {
		s.playerX = fieldWidth
	}
	if s.playerY < 0 {
		s.playerY = 0
	}
	if s.playerY > fieldHeight {
		s.playerY = fieldHeight
	}

	// 草むら（村の外側）ではエンカウント抽選を行います。
	if s.playerX <= villageEdgeX {
		s.stepDistance = 0
		return
	}
	s.stepDistance += step
	if s.stepDistance < encounterStep {
		return
	}
	s.stepDistance = 0
	if s.res.Party.InteractionCooldown > 0 {
		return
	}
	if s.res.Rand.Float64() < encounterRoll {
		s.machine.PushState(StateBattle, StateData{
			"encounter": s.res.Config.Game.FieldEncounter,
		})
	}
}

func (s *PlayingState) Update(dt float64) {
	s.res.Party.Playtime += dt
	if s.res.Party.InteractionCooldown > 0 {
		s.res.Party.InteractionCooldown -= dt
		if s.res.Party.InteractionCooldown < 0 {
			s.res.Party.InteractionCooldown = 0
		}
	}
}

func (s *PlayingState) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{24, 40, 24, 255})
	drawTextLine(screen, s.res.Font, "村", npcX, npcY)
	drawTextLine(screen, s.res.Font, "@", s.playerX, s.playerY)
	drawTextLine(screen, s.res.Font,
		fmt.Sprintf("G %d  %s", s.res.Party.Gold, s.res.Party.Location), 8, 16)
}
