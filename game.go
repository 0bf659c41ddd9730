package main

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// frameDt は1フレームあたりの経過秒数です。ebiten の TPS は固定の60です。
const frameDt = 1.0 / 60.0

// GameScene はゲーム本体のシーンです。毎フレーム、入力 → HandleInput →
// Update の順で GameStateManager に委譲します。アクティブな状態だけが
// これらの呼び出しを受け取り、スタック上で待機中の状態は凍結されます。
type GameScene struct {
	res     *SharedResources
	machine *GameStateManager
}

// NewGameScene は状態レジストリを構築し、LOADING から開始するシーンを返します。
func NewGameScene(res *SharedResources, machine *GameStateManager) *GameScene {
	buildStateRegistry(res, machine)
	machine.ChangeState(StateLoading, nil)
	return &GameScene{res: res, machine: machine}
}

func (g *GameScene) Update() error {
	g.res.Input.Update()
	g.machine.HandleInput(g.res.Input)
	g.machine.Update(frameDt)
	return nil
}

func (g *GameScene) Draw(screen *ebiten.Image) {
	g.machine.Draw(screen)
}

func (g *GameScene) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.res.Config.Screen.Width, g.res.Config.Screen.Height
}
