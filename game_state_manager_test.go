package main

// テストは状態スタックマシンの遷移意味論を検証します。
// 描画やebitenの実行は不要で、recordingState がフック呼び出しを記録します。

import (
	"fmt"
	"testing"
)

// recordingState はフック呼び出しの系列と最後のエンターデータを記録します。
type recordingState struct {
	BaseState
	name   string
	events *[]string
	last   StateData
}

func (r *recordingState) Enter(data StateData) {
	r.last = data
	*r.events = append(*r.events, fmt.Sprintf("enter:%s", r.name))
}

func (r *recordingState) Exit() {
	*r.events = append(*r.events, fmt.Sprintf("exit:%s", r.name))
}

func (r *recordingState) Pause() {
	*r.events = append(*r.events, fmt.Sprintf("pause:%s", r.name))
}

func (r *recordingState) Resume() {
	*r.events = append(*r.events, fmt.Sprintf("resume:%s", r.name))
}

func newTestMachine() (*GameStateManager, map[StateID]*recordingState, *[]string) {
	machine := NewGameStateManager(NewTestLogger())
	events := &[]string{}
	states := map[StateID]*recordingState{}
	for _, id := range []StateID{StatePlaying, StatePaused, StateSettings, StateInventory, StateMainMenu} {
		st := &recordingState{name: string(id), events: events}
		states[id] = st
		machine.Register(id, st)
	}
	return machine, states, events
}

func TestStackPairing(t *testing.T) {
	machine, _, _ := newTestMachine()
	machine.ChangeState(StatePlaying, StateData{"loc": "village"})

	// N回のプッシュとN回のポップで元の状態に戻ること。
	for _, n := range []int{1, 2, 3} {
		overlays := []StateID{StatePaused, StateSettings, StateInventory}
		for i := 0; i < n; i++ {
			machine.PushState(overlays[i], nil)
		}
		if machine.StackDepth() != n {
			t.Fatalf("n=%d: StackDepth = %d", n, machine.StackDepth())
		}
		for i := 0; i < n; i++ {
			machine.PopState()
		}
		if machine.CurrentState() != StatePlaying {
			t.Fatalf("n=%d: CurrentState = %s, want PLAYING", n, machine.CurrentState())
		}
		if machine.StackDepth() != 0 {
			t.Fatalf("n=%d: StackDepth = %d, want 0", n, machine.StackDepth())
		}
		if got := machine.CurrentStateData().String("loc"); got != "village" {
			t.Fatalf("n=%d: loc = %q, want village", n, got)
		}
	}
}

func TestChangeStateUnknownIDIsNoop(t *testing.T) {
	machine, _, events := newTestMachine()
	machine.ChangeState(StatePlaying, StateData{"k": "v"})
	machine.PushState(StatePaused, nil)
	before := len(*events)

	machine.ChangeState(StateID("NOT_A_STATE"), nil)
	machine.PushState(StateID("NOT_A_STATE"), nil)

	if machine.CurrentState() != StatePaused {
		t.Errorf("CurrentState = %s, want PAUSED", machine.CurrentState())
	}
	if machine.PreviousState() != StatePlaying {
		t.Errorf("PreviousState = %s, want PLAYING", machine.PreviousState())
	}
	if machine.StackDepth() != 1 {
		t.Errorf("StackDepth = %d, want 1", machine.StackDepth())
	}
	if len(*events) != before {
		t.Errorf("フックが呼ばれました: %v", (*events)[before:])
	}
}

func TestPopEmptyStackIsNoop(t *testing.T) {
	machine, _, events := newTestMachine()
	machine.ChangeState(StatePlaying, nil)
	before := len(*events)

	machine.PopState()

	if machine.CurrentState() != StatePlaying {
		t.Errorf("CurrentState = %s, want PLAYING", machine.CurrentState())
	}
	if len(*events) != before {
		t.Errorf("フックが呼ばれました: %v", (*events)[before:])
	}
}

func TestResumeFlag(t *testing.T) {
	machine, states, _ := newTestMachine()
	machine.ChangeState(StatePlaying, StateData{"loc": "village"})

	if states[StatePlaying].last.IsResuming() {
		t.Error("ChangeState のエンターデータに復帰フラグが含まれています")
	}

	machine.PushState(StateSettings, nil)
	if states[StateSettings].last.IsResuming() {
		t.Error("PushState のエンターデータに復帰フラグが含まれています")
	}

	machine.PopState()
	if !states[StatePlaying].last.IsResuming() {
		t.Error("PopState 後のエンターデータに復帰フラグがありません")
	}
	if got := states[StatePlaying].last.String("loc"); got != "village" {
		t.Errorf("復帰データ loc = %q, want village", got)
	}
}

// シナリオA: PLAYING の上に PAUSED を積んで戻す一往復。
func TestScenarioAPushPopPairing(t *testing.T) {
	machine, states, events := newTestMachine()
	machine.ChangeState(StatePlaying, StateData{"loc": "village"})
	*events = (*events)[:0]

	machine.PushState(StatePaused, nil)
	if machine.CurrentState() != StatePaused {
		t.Fatalf("CurrentState = %s, want PAUSED", machine.CurrentState())
	}
	if machine.StackDepth() != 1 {
		t.Fatalf("StackDepth = %d, want 1", machine.StackDepth())
	}

	machine.PopState()
	if machine.CurrentState() != StatePlaying {
		t.Fatalf("CurrentState = %s, want PLAYING", machine.CurrentState())
	}
	if !states[StatePlaying].last.IsResuming() {
		t.Error("復帰フラグがありません")
	}
	if machine.StackDepth() != 0 {
		t.Errorf("StackDepth = %d, want 0", machine.StackDepth())
	}

	want := []string{
		"pause:PLAYING", "enter:PAUSED",
		"exit:PAUSED", "enter:PLAYING", "resume:PLAYING",
	}
	if len(*events) != len(want) {
		t.Fatalf("フック系列 = %v, want %v", *events, want)
	}
	for i, e := range want {
		if (*events)[i] != e {
			t.Fatalf("フック系列[%d] = %s, want %s (全体: %v)", i, (*events)[i], e, *events)
		}
	}
}

func TestClearStackExitsStackedStates(t *testing.T) {
	machine, _, events := newTestMachine()
	machine.ChangeState(StatePlaying, nil)
	machine.PushState(StatePaused, nil)
	machine.PushState(StateInventory, nil)
	*events = (*events)[:0]

	machine.ClearStack()

	// 積まれていた PAUSED と PLAYING の Exit は呼ばれ、アクティブな
	// INVENTORY の Exit は呼ばれないこと。
	want := []string{"exit:PAUSED", "exit:PLAYING"}
	if len(*events) != len(want) || (*events)[0] != want[0] || (*events)[1] != want[1] {
		t.Errorf("フック系列 = %v, want %v", *events, want)
	}
	if machine.StackDepth() != 0 {
		t.Errorf("StackDepth = %d, want 0", machine.StackDepth())
	}
	if machine.CurrentState() != StateInventory {
		t.Errorf("CurrentState = %s, want INVENTORY", machine.CurrentState())
	}
}

func TestIsStateInStack(t *testing.T) {
	machine, _, _ := newTestMachine()
	machine.ChangeState(StatePlaying, nil)
	machine.PushState(StatePaused, nil)

	tests := []struct {
		id   StateID
		want bool
	}{
		{StatePlaying, true},  // スタック内
		{StatePaused, true},   // 現在アクティブ（stack-or-current 意味論）
		{StateSettings, false},
	}
	for _, tt := range tests {
		if got := machine.IsStateInStack(tt.id); got != tt.want {
			t.Errorf("IsStateInStack(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
	if !machine.IsInState(StatePaused) {
		t.Error("IsInState(PAUSED) = false")
	}
	if machine.IsInState(StatePlaying) {
		t.Error("IsInState(PLAYING) = true")
	}
}

func TestStateDataIsCopiedPerTransition(t *testing.T) {
	machine, states, _ := newTestMachine()
	original := StateData{"loc": "village"}
	machine.ChangeState(StatePlaying, original)

	original["loc"] = "mutated"
	if got := states[StatePlaying].last.String("loc"); got != "village" {
		t.Errorf("呼び出し側の変更が漏れています: loc = %q", got)
	}

	states[StatePlaying].last["loc"] = "inner"
	machine.PushState(StatePaused, nil)
	machine.PopState()
	if got := states[StatePlaying].last.String("loc"); got != "inner" {
		// プッシュ時点のデータが退避されるため、エンター後の変更は復帰データに
		// 反映されます（同じマップがクローンされて戻る）。
		t.Errorf("復帰データ loc = %q, want inner", got)
	}
}

func TestGenerationAdvancesPerEnter(t *testing.T) {
	machine, _, _ := newTestMachine()
	machine.ChangeState(StatePlaying, nil)
	g1 := machine.Generation()
	machine.PushState(StatePaused, nil)
	g2 := machine.Generation()
	if g2 <= g1 {
		t.Errorf("Generation は単調増加のはず: %d -> %d", g1, g2)
	}
	machine.PopState()
	if machine.Generation() <= g2 {
		t.Errorf("PopState でも世代が進むはず: %d -> %d", g2, machine.Generation())
	}
}
