package main

import (
	"math/rand"
	"path/filepath"
	"testing"
)

const greetScript = `
start := func(d) {
	d.say("長老", "ようこそ。")
	d.choice("用件は？", [["shop", "店を見る"], ["gift", "贈り物"], ["bye", "さようなら"]])
}

on_choice := func(d, choice) {
	if choice == "shop" {
		d.say("長老", "ゆっくり見ていきなさい。")
		d.open_shop("village_store")
		d.say("長老", "良い買い物だったかな。")
		d.end()
	} else if choice == "gift" {
		d.give_item("herb", 2)
		d.say("長老", "持っていきなさい。")
		d.end()
	} else {
		d.end()
	}
}
`

const wardenScript = `
start := func(d) {
	d.say("門番", "腕を見せてもらおう。")
	d.start_battle("lone_wisp")
	d.say("門番", "見事だ。通るがいい。")
	d.end()
}

on_choice := func(d, choice) {
	d.end()
}
`

func newTestScripts(t *testing.T) *DialogueScriptEngine {
	t.Helper()
	engine := NewDialogueScriptEngine(t.TempDir(), NewTestLogger())
	engine.LoadSource("greet", greetScript)
	engine.LoadSource("warden", wardenScript)
	return engine
}

func TestScriptStartProducesCommands(t *testing.T) {
	engine := newTestScripts(t)
	if err := engine.StartScript("greet"); err != nil {
		t.Fatalf("StartScript: %v", err)
	}

	cmd, ok := engine.Next()
	if !ok || cmd.Kind != CmdSay {
		t.Fatalf("1件目 = %+v, want say", cmd)
	}
	if cmd.Speaker != "長老" || cmd.Text != "ようこそ。" {
		t.Errorf("say = %q / %q", cmd.Speaker, cmd.Text)
	}

	cmd, ok = engine.Next()
	if !ok || cmd.Kind != CmdChoice {
		t.Fatalf("2件目 = %+v, want choice", cmd)
	}
	if len(cmd.Options) != 3 || cmd.Options[0].ID != "shop" || cmd.Options[0].Label != "店を見る" {
		t.Errorf("選択肢 = %+v", cmd.Options)
	}

	if _, ok := engine.Next(); ok {
		t.Error("3件目が存在します")
	}
}

func TestScriptResolveChoice(t *testing.T) {
	engine := newTestScripts(t)
	if err := engine.StartScript("greet"); err != nil {
		t.Fatalf("StartScript: %v", err)
	}
	for engine.HasPending() {
		engine.Next()
	}

	if err := engine.ResolveChoice("gift"); err != nil {
		t.Fatalf("ResolveChoice: %v", err)
	}
	want := []DialogueCommandKind{CmdGiveItem, CmdSay, CmdEnd}
	for i, kind := range want {
		cmd, ok := engine.Next()
		if !ok || cmd.Kind != kind {
			t.Fatalf("%d件目 = %+v, want kind %d", i+1, cmd, kind)
		}
		if kind == CmdGiveItem && (cmd.ItemID != "herb" || cmd.Count != 2) {
			t.Errorf("give_item = %q x%d", cmd.ItemID, cmd.Count)
		}
	}
}

func TestScriptMissingFileFails(t *testing.T) {
	engine := NewDialogueScriptEngine(t.TempDir(), NewTestLogger())
	if err := engine.StartScript("no_such"); err == nil {
		t.Error("存在しないスクリプトでエラーになりません")
	}
}

func TestScriptResolveChoiceWithoutStart(t *testing.T) {
	engine := newTestScripts(t)
	if err := engine.ResolveChoice("shop"); err == nil {
		t.Error("開始前の ResolveChoice がエラーになりません")
	}
}

func TestScriptResetClearsPending(t *testing.T) {
	engine := newTestScripts(t)
	if err := engine.StartScript("greet"); err != nil {
		t.Fatalf("StartScript: %v", err)
	}
	engine.Reset()
	if engine.HasPending() {
		t.Error("Reset 後もコマンドが残っています")
	}
	if err := engine.ResolveChoice("shop"); err == nil {
		t.Error("Reset 後の ResolveChoice がエラーになりません")
	}
}

// dialogueHarness は会話状態をショップ・戦闘込みのスタックで組み立てます。
type dialogueHarness struct {
	machine *GameStateManager
	res     *SharedResources
	battle  *BattleStateHandler
}

func newDialogueHarness(t *testing.T) *dialogueHarness {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Battle = *testBattleConfig()
	mm, err := NewMessageManagerFromJSON([]byte(`[]`), NewTestLogger())
	if err != nil {
		t.Fatalf("NewMessageManagerFromJSON: %v", err)
	}
	gdm := newTestGameData(t)
	gdm.AddShopDefinition(&ShopDefinition{
		ID: "village_store", Name: "村の店", Items: []string{"herb"},
	})
	res := &SharedResources{
		Config:   &cfg,
		Logger:   NewTestLogger(),
		GameData: gdm,
		Messages: mm,
		Audio:    NopAudio{},
		Scripts:  newTestScripts(t),
		Settings: NewSettingsManager(filepath.Join(t.TempDir(), "settings.yaml"), NewTestLogger()),
		Party:    newTestParty(),
		Rand:     rand.New(rand.NewSource(1)),
	}

	machine := NewGameStateManager(NewTestLogger())
	events := &[]string{}
	machine.Register(StatePlaying, &recordingState{name: "PLAYING", events: events})
	machine.Register(StateDialogue, NewDialogueState(res, machine))
	machine.Register(StateShop, NewShopState(res, machine))
	machine.Register(StateLootWindow, NewLootWindowState(res, machine))
	battle := NewBattleStateHandler(res, machine)
	machine.Register(StateBattle, battle)
	machine.ChangeState(StatePlaying, nil)
	return &dialogueHarness{machine: machine, res: res, battle: battle}
}

// 店を開いて戻ってきても会話は最初からやり直しにならない。
func TestDialogueResumesAfterShop(t *testing.T) {
	h := newDialogueHarness(t)
	h.machine.PushState(StateDialogue, StateData{"script": "greet"})
	if h.machine.CurrentState() != StateDialogue {
		t.Fatalf("CurrentState = %s, want DIALOGUE", h.machine.CurrentState())
	}
	if got := h.res.Scripts.StartCount(); got != 1 {
		t.Fatalf("StartCount = %d, want 1", got)
	}

	// say を読み切って選択肢へ。
	h.machine.HandleInput(pressInput(ActionConfirm)) // 全文表示
	h.machine.HandleInput(pressInput(ActionConfirm)) // 次へ
	// 「店を見る」を選ぶ。
	h.machine.HandleInput(pressInput(ActionConfirm))
	// 続く say を読み切ると open_shop が積まれる。
	h.machine.HandleInput(pressInput(ActionConfirm))
	h.machine.HandleInput(pressInput(ActionConfirm))
	if h.machine.CurrentState() != StateShop {
		t.Fatalf("CurrentState = %s, want SHOP", h.machine.CurrentState())
	}
	if !h.machine.IsStateInStack(StateDialogue) {
		t.Fatal("会話がスタックに残っていません")
	}

	// 店を閉じると会話が続きから再開され、スクリプトは再起動されない。
	h.machine.HandleInput(pressInput(ActionCancel))
	if h.machine.CurrentState() != StateDialogue {
		t.Fatalf("CurrentState = %s, want DIALOGUE", h.machine.CurrentState())
	}
	if got := h.res.Scripts.StartCount(); got != 1 {
		t.Errorf("復帰後 StartCount = %d, want 1", got)
	}

	// 残りの say を読み切ると end で会話が閉じる。
	h.machine.HandleInput(pressInput(ActionConfirm))
	h.machine.HandleInput(pressInput(ActionConfirm))
	if h.machine.CurrentState() != StatePlaying {
		t.Errorf("CurrentState = %s, want PLAYING", h.machine.CurrentState())
	}
}

func TestDialogueGiveItemAndEnd(t *testing.T) {
	h := newDialogueHarness(t)
	h.machine.PushState(StateDialogue, StateData{"script": "greet"})

	h.machine.HandleInput(pressInput(ActionConfirm)) // 全文表示
	h.machine.HandleInput(pressInput(ActionConfirm)) // 選択肢へ
	h.machine.HandleInput(pressInput(ActionDown))    // gift へ
	h.machine.HandleInput(pressInput(ActionConfirm))

	if got := h.res.Party.Items["herb"]; got != 2 {
		t.Errorf("やくそう = %d, want 2", got)
	}

	// 最後の say を読み切ると end で会話が閉じる。
	h.machine.HandleInput(pressInput(ActionConfirm))
	h.machine.HandleInput(pressInput(ActionConfirm))
	if h.machine.CurrentState() != StatePlaying {
		t.Errorf("CurrentState = %s, want PLAYING", h.machine.CurrentState())
	}
}

// 戦闘勝利で戦利品ウィンドウを挟んでも、戦闘後の say は飛ばされない。
func TestDialogueResumesAfterBattleWithLoot(t *testing.T) {
	h := newDialogueHarness(t)
	h.machine.PushState(StateDialogue, StateData{"script": "warden"})

	h.machine.HandleInput(pressInput(ActionConfirm)) // 全文表示
	h.machine.HandleInput(pressInput(ActionConfirm)) // 次へ → 戦闘開始
	if h.machine.CurrentState() != StateBattle {
		t.Fatalf("CurrentState = %s, want BATTLE", h.machine.CurrentState())
	}

	// 導入演出を飛ばし、最初の行動選択で攻撃を確定する。
	for i := 0; i < 100 && h.battle.phase.Current() != PhaseActionSelect; i++ {
		h.machine.Update(0.1)
	}
	if got := h.battle.phase.Current(); got != PhaseActionSelect {
		t.Fatalf("action_select に到達しません (phase=%s)", got)
	}
	h.machine.HandleInput(pressInput(ActionConfirm)) // こうげき
	h.machine.HandleInput(pressInput(ActionConfirm)) // 対象確定
	for i := 0; i < 50 && h.battle.phase.Current() != PhaseResults; i++ {
		h.machine.Update(0.05)
	}
	for i := 0; i < 25; i++ {
		h.machine.Update(0.05) // 最低表示時間を超える
	}
	h.machine.HandleInput(pressInput(ActionConfirm)) // リザルトを閉じる

	// ウィスプはやくそうを落とすので戦利品ウィンドウが会話の上に積まれる。
	if h.machine.CurrentState() != StateLootWindow {
		t.Fatalf("CurrentState = %s, want LOOT_WINDOW", h.machine.CurrentState())
	}
	h.machine.HandleInput(pressInput(ActionConfirm))

	// 戦闘後の say が残っており、会話はまだ終わらない。
	if h.machine.CurrentState() != StateDialogue {
		t.Fatalf("CurrentState = %s, want DIALOGUE", h.machine.CurrentState())
	}
	if got := h.res.Scripts.StartCount(); got != 1 {
		t.Errorf("復帰後 StartCount = %d, want 1", got)
	}

	h.machine.HandleInput(pressInput(ActionConfirm)) // 全文表示
	h.machine.HandleInput(pressInput(ActionConfirm)) // end で会話終了
	if h.machine.CurrentState() != StatePlaying {
		t.Errorf("CurrentState = %s, want PLAYING", h.machine.CurrentState())
	}
}

func TestDialogueUnknownScriptPopsBack(t *testing.T) {
	h := newDialogueHarness(t)
	h.machine.PushState(StateDialogue, StateData{"script": "no_such"})
	if h.machine.CurrentState() != StatePlaying {
		t.Errorf("CurrentState = %s, want PLAYING", h.machine.CurrentState())
	}
}
