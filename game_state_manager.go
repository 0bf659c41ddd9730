package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// stackFrame は pushState で積まれた状態とそのエンターデータの組です。
// GameStateManager だけが所有し、外部に参照を渡しません。
type stackFrame struct {
	stateID StateID
	data    StateData
}

// GameStateManager はゲーム全体の状態スタックマシンです。
// 現在の状態・直前の状態・LIFO のスタックを所有し、遷移はすべて
// ChangeState / PushState / PopState / ClearStack を通して行われます。
// 遷移表は持たず、各状態が自身の入力・更新ロジックから遷移を要求します。
type GameStateManager struct {
	registry map[StateID]GameStateHandler

	currentState     StateID
	previousState    StateID
	currentStateData StateData
	stateStack       []stackFrame

	// enterState のたびに加算される世代カウンタ。
	// 予約済みの遅延遷移は、発火前にこの値を照合して古い予約を破棄します。
	generation uint64

	logger *zap.SugaredLogger
}

// NewGameStateManager は空のレジストリを持つ状態マシンを生成します。
// 全状態を Register したあと、最初の遷移は ChangeState で行います。
func NewGameStateManager(logger *zap.SugaredLogger) *GameStateManager {
	return &GameStateManager{
		registry:         make(map[StateID]GameStateHandler),
		currentStateData: StateData{},
		logger:           logger,
	}
}

// Register は状態を登録します。起動時に一度だけ呼ばれます。
func (m *GameStateManager) Register(id StateID, handler GameStateHandler) {
	if _, exists := m.registry[id]; exists {
		m.logger.Warnw("状態が二重登録されました", "state", id)
	}
	m.registry[id] = handler
}

// ChangeState は現在の状態を破棄して横方向に遷移します。スタックには触れません。
// 未知の ID はエラーとして報告し、マシンの状態は変化しません。
func (m *GameStateManager) ChangeState(id StateID, data StateData) {
	if _, ok := m.registry[id]; !ok {
		m.logger.Errorw("未知の状態への遷移要求を無視します", "state", id, "current", m.currentState)
		return
	}
	m.exitCurrentState()
	m.enterState(id, data)
}

// PushState は現在の状態をスタックに退避してオーバーレイ状態に入ります。
// 退避された状態は Pause され、PopState まで一切のフックを受け取りません。
func (m *GameStateManager) PushState(id StateID, data StateData) {
	if _, ok := m.registry[id]; !ok {
		m.logger.Errorw("未知の状態へのプッシュ要求を無視します", "state", id, "current", m.currentState)
		return
	}
	if current := m.currentHandler(); current != nil {
		current.Pause()
	}
	m.stateStack = append(m.stateStack, stackFrame{
		stateID: m.currentState,
		data:    m.currentStateData,
	})
	m.enterState(id, data)
}

// PopState はスタック最上段の状態に復帰します。
// 復帰データには isResumingFromPause フラグが合成され、復帰後に Resume が呼ばれます。
// 空スタックでの呼び出しは警告付きの no-op です。
func (m *GameStateManager) PopState() {
	if len(m.stateStack) == 0 {
		m.logger.Warnw("空のスタックからポップしようとしました", "current", m.currentState)
		return
	}
	m.exitCurrentState()

	top := m.stateStack[len(m.stateStack)-1]
	m.stateStack = m.stateStack[:len(m.stateStack)-1]

	resumeData := cloneStateData(top.data)
	resumeData[DataKeyResuming] = true
	m.enterState(top.stateID, resumeData)

	if handler := m.currentHandler(); handler != nil {
		handler.Resume()
	}
}

// ClearStack はスタック全体を破棄します。
// ポップされる各フレームの登録済み状態オブジェクトに対して Exit を呼びますが、
// 現在アクティブな状態の Exit はここでは呼びません。オーバーレイ連鎖ごと
// 放棄する場合（メニューへの帰還など）に使います。
func (m *GameStateManager) ClearStack() {
	for i := len(m.stateStack) - 1; i >= 0; i-- {
		frame := m.stateStack[i]
		if handler, ok := m.registry[frame.stateID]; ok {
			handler.Exit()
		}
	}
	m.stateStack = m.stateStack[:0]
}

// enterState は previousState を更新し、対象状態の Enter を呼びます。
func (m *GameStateManager) enterState(id StateID, data StateData) {
	m.previousState = m.currentState
	m.currentState = id
	m.currentStateData = cloneStateData(data)
	m.generation++

	if handler, ok := m.registry[id]; ok {
		handler.Enter(m.currentStateData)
	}
}

// exitCurrentState は現在の状態の Exit を呼びます。
func (m *GameStateManager) exitCurrentState() {
	if handler := m.currentHandler(); handler != nil {
		handler.Exit()
	}
}

func (m *GameStateManager) currentHandler() GameStateHandler {
	if m.currentState == "" {
		return nil
	}
	return m.registry[m.currentState]
}

// CurrentState は現在アクティブな状態の ID を返します。
func (m *GameStateManager) CurrentState() StateID {
	return m.currentState
}

// PreviousState は直前にアクティブだった状態の ID を返します。
func (m *GameStateManager) PreviousState() StateID {
	return m.previousState
}

// CurrentStateData は現在の状態のエンターデータを返します。
func (m *GameStateManager) CurrentStateData() StateData {
	return m.currentStateData
}

// StackDepth はスタックに退避されているフレーム数を返します。
func (m *GameStateManager) StackDepth() int {
	return len(m.stateStack)
}

// IsInState は id が現在アクティブな状態かどうかを返します。
func (m *GameStateManager) IsInState(id StateID) bool {
	return m.currentState == id
}

// IsStateInStack は id がスタック内に退避されているか、または現在アクティブで
// あるかを返します。スタックのみを見る変種もあり得ますが、本実装は
// 「スタックまたは現在」の意味論を採用します。
func (m *GameStateManager) IsStateInStack(id StateID) bool {
	if m.currentState == id {
		return true
	}
	for _, frame := range m.stateStack {
		if frame.stateID == id {
			return true
		}
	}
	return false
}

// Generation は現在のエンター世代を返します。遅延遷移の予約側が保持します。
func (m *GameStateManager) Generation() uint64 {
	return m.generation
}

// HandleInput は現在の状態にのみ入力を委譲します。
func (m *GameStateManager) HandleInput(input InputProvider) {
	if handler := m.currentHandler(); handler != nil {
		handler.HandleInput(input)
	}
}

// Update は現在の状態にのみ更新を委譲します。スタック内の状態は凍結されたままです。
func (m *GameStateManager) Update(dt float64) {
	if handler := m.currentHandler(); handler != nil {
		handler.Update(dt)
	}
}

// Draw は現在の状態にのみ描画を委譲します。
func (m *GameStateManager) Draw(screen *ebiten.Image) {
	if handler := m.currentHandler(); handler != nil {
		handler.Draw(screen)
	}
}
