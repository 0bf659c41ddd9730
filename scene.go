package main

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene は bamenn のシーケンスに載るシーンの契約です。
// ebiten.Game を埋め込むことで Update/Draw/Layout を持つことが保証されます。
type Scene interface {
	ebiten.Game
}

// buildStateRegistry は全ゲーム状態を生成して machine に登録します。
// レジストリは起動時に一度だけ構築され、各状態インスタンスはプロセスの
// 寿命いっぱい生き続けます。
func buildStateRegistry(res *SharedResources, machine *GameStateManager) {
	machine.Register(StateLoading, NewLoadingState(res, machine))
	machine.Register(StateMainMenu, NewMainMenuState(res, machine))
	machine.Register(StatePlaying, NewPlayingState(res, machine))
	machine.Register(StatePaused, NewPausedState(res, machine))
	machine.Register(StateSaveLoad, NewSaveLoadState(res, machine))
	machine.Register(StateInventory, NewInventoryState(res, machine))
	machine.Register(StateDialogue, NewDialogueState(res, machine))
	machine.Register(StateShop, NewShopState(res, machine))
	machine.Register(StateSettings, NewSettingsState(res, machine))
	machine.Register(StateLootWindow, NewLootWindowState(res, machine))
	machine.Register(StateBattle, NewBattleStateHandler(res, machine))
}
