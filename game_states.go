package main

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// StateID はゲーム状態を識別する固定のタグです。
// StateRegistry に登録されていない ID への遷移はエラーとして報告され、無視されます。
type StateID string

const (
	StateLoading    StateID = "LOADING"
	StateMainMenu   StateID = "MAIN_MENU"
	StatePlaying    StateID = "PLAYING"
	StatePaused     StateID = "PAUSED"
	StateSaveLoad   StateID = "SAVE_LOAD"
	StateInventory  StateID = "INVENTORY"
	StateDialogue   StateID = "DIALOGUE"
	StateShop       StateID = "SHOP"
	StateLootWindow StateID = "LOOT_WINDOW"
	StateSettings   StateID = "SETTINGS"
	StateBattle     StateID = "BATTLE"
)

// StateData は状態遷移時に受け渡される自由形式のデータバッグです。
// 遷移のたびにコピーされるため、状態間で同じマップを共有することはありません。
type StateData map[string]any

// DataKeyResuming は popState による再開を示す合成フラグのキーです。
// changeState / pushState による新規エンターでは決して設定されません。
const DataKeyResuming = "isResumingFromPause"

// IsResuming は data が スタックからの復帰 を示しているかを返します。
func (d StateData) IsResuming() bool {
	v, ok := d[DataKeyResuming].(bool)
	return ok && v
}

// String は data から文字列値を取り出します。キーが無ければ空文字列です。
func (d StateData) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// cloneStateData は data の浅いコピーを返します。nil は空のマップになります。
func cloneStateData(data StateData) StateData {
	cloned := make(StateData, len(data)+1)
	for k, v := range data {
		cloned[k] = v
	}
	return cloned
}

// GameStateHandler は GameStateManager に管理される状態の契約です。
// すべてのフックは任意実装であり、BaseState を埋め込むことで未実装フックは
// 安全な no-op になります。Exit は Enter で獲得したリソースを必ず解放します。
type GameStateHandler interface {
	Enter(data StateData)
	Exit()
	Update(dt float64)
	Draw(screen *ebiten.Image)
	HandleInput(input InputProvider)
	Pause()
	Resume()
}

// BaseState は GameStateHandler の全フックの no-op 実装です。
// 各状態はこれを埋め込み、必要なフックだけを上書きします。
type BaseState struct{}

func (BaseState) Enter(StateData)             {}
func (BaseState) Exit()                       {}
func (BaseState) Update(float64)              {}
func (BaseState) Draw(*ebiten.Image)          {}
func (BaseState) HandleInput(InputProvider)   {}
func (BaseState) Pause()                      {}
func (BaseState) Resume()                     {}
