package main

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// loadingDuration はロード画面の最低表示秒数です。
const loadingDuration = 1.5

// LoadingState は起動直後のロード画面です。一定時間後にメインメニューへ
// 自動遷移します。遷移は世代カウンタで保護し、ロード中に別の状態へ
// 移った場合は古い遷移を発火させません。
type LoadingState struct {
	BaseState
	res     *SharedResources
	machine *GameStateManager

	timer      float64
	generation uint64
	advanced   bool
}

func NewLoadingState(res *SharedResources, machine *GameStateManager) *LoadingState {
	return &LoadingState{res: res, machine: machine}
}

func (s *LoadingState) Enter(data StateData) {
	s.timer = 0
	s.advanced = false
	s.generation = s.machine.Generation()
}

func (s *LoadingState) Update(dt float64) {
	s.timer += dt
	if s.advanced || s.timer < loadingDuration {
		return
	}
	// 自分がエンターした世代のままのときだけ遷移します。
	if s.machine.Generation() != s.generation {
		return
	}
	s.advanced = true
	s.machine.ChangeState(StateMainMenu, nil)
}

func (s *LoadingState) Draw(screen *ebiten.Image) {
	pct := int(s.timer / loadingDuration * 100)
	if pct > 100 {
		pct = 100
	}
	drawTextLine(screen, s.res.Font, s.res.Messages.T("loading.title", nil), 120, 100)
	drawTextLine(screen, s.res.Font, fmt.Sprintf("%d%%", pct), 120, 130)
	drawGaugeBar(screen, 120, 150, 200, 8, s.timer/loadingDuration)
}
