package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Action は生のキーではなく抽象化された入力アクションです。
// キーへの割り当ては設定の Binding オプションで変更できます。
type Action string

const (
	ActionUp        Action = "up"
	ActionDown      Action = "down"
	ActionLeft      Action = "left"
	ActionRight     Action = "right"
	ActionConfirm   Action = "confirm"
	ActionCancel    Action = "cancel"
	ActionMenu      Action = "menu"
	ActionInteract  Action = "interact"
	ActionInventory Action = "inventory"
)

// InputProvider は各状態が消費する入力問い合わせの契約です。
// エッジトリガ（IsJustPressed）とレベルトリガ（IsPressed）の両方を提供します。
type InputProvider interface {
	IsJustPressed(action Action) bool
	IsPressed(action Action) bool
	ConsumePress(action Action)
}

// DefaultBindings は初期のキー割り当てです。
func DefaultBindings() map[Action]ebiten.Key {
	return map[Action]ebiten.Key{
		ActionUp:        ebiten.KeyArrowUp,
		ActionDown:      ebiten.KeyArrowDown,
		ActionLeft:      ebiten.KeyArrowLeft,
		ActionRight:     ebiten.KeyArrowRight,
		ActionConfirm:   ebiten.KeyEnter,
		ActionCancel:    ebiten.KeyEscape,
		ActionMenu:      ebiten.KeyTab,
		ActionInteract:  ebiten.KeySpace,
		ActionInventory: ebiten.KeyI,
	}
}

// InputManager は ebiten のキー状態を抽象アクションに変換します。
// ConsumePress で消費されたエッジはそのフレーム中は再通知されません。
type InputManager struct {
	bindings map[Action]ebiten.Key
	consumed map[Action]bool
}

// NewInputManager は初期バインディングの入力マネージャを生成します。
func NewInputManager() *InputManager {
	return &InputManager{
		bindings: DefaultBindings(),
		consumed: make(map[Action]bool),
	}
}

// Update は毎フレーム先頭で呼ばれ、消費済みフラグをリセットします。
func (im *InputManager) Update() {
	for action := range im.consumed {
		delete(im.consumed, action)
	}
}

// Rebind は action のキー割り当てを変更します。
func (im *InputManager) Rebind(action Action, key ebiten.Key) {
	im.bindings[action] = key
}

// Binding は action に割り当てられたキーを返します。
func (im *InputManager) Binding(action Action) ebiten.Key {
	return im.bindings[action]
}

// IsJustPressed は action がこのフレームで押下されたかを返します。
func (im *InputManager) IsJustPressed(action Action) bool {
	if im.consumed[action] {
		return false
	}
	key, ok := im.bindings[action]
	if !ok {
		return false
	}
	return inpututil.IsKeyJustPressed(key)
}

// IsPressed は action が押され続けているかを返します。
func (im *InputManager) IsPressed(action Action) bool {
	key, ok := im.bindings[action]
	if !ok {
		return false
	}
	return ebiten.IsKeyPressed(key)
}

// ConsumePress は action の押下エッジをこのフレーム内で消費します。
func (im *InputManager) ConsumePress(action Action) {
	im.consumed[action] = true
}
