package main

import (
	"math/rand"
	"testing"
)

func testBattleConfig() *BattleConfig {
	return &BattleConfig{
		ATBMax:              100,
		ATBFillRate:         100, // speed 1 なら 1 秒で満タン
		TransitionDuration:  0.1,
		ResultsMinTime:      1.0,
		FleeChance:          1.0,
		SealBaseChance:      2.0,
		DamageVariance:      0, // 乱数補正なしで決定的に
		FeedbackDuration:    0.5,
		InteractionCooldown: 1.0,
	}
}

func newTestGameData(t *testing.T) *GameDataManager {
	t.Helper()
	mm, err := NewMessageManagerFromJSON([]byte(`[]`), NewTestLogger())
	if err != nil {
		t.Fatalf("NewMessageManagerFromJSON: %v", err)
	}
	gdm := NewEmptyGameDataManager(mm)
	gdm.AddAbilityDefinition(&AbilityDefinition{
		ID: "spark", Name: "スパーク", MPCost: 3, Power: 10,
		Kind: AbilityDamage, Targeting: TargetEnemy,
	})
	gdm.AddAbilityDefinition(&AbilityDefinition{
		ID: "mend", Name: "メンド", MPCost: 2, Power: 8,
		Kind: AbilityHeal, Targeting: TargetAlly,
	})
	gdm.AddAbilityDefinition(&AbilityDefinition{
		ID: "charge_bolt", Name: "チャージボルト", MPCost: 4, Power: 20,
		Kind: AbilityDamage, Targeting: TargetEnemy, CastTime: 1.0,
	})
	gdm.AddEnemyDefinition(&EnemyDefinition{
		ID: "imp", Name: "コビト", MaxHP: 30, MaxMP: 5,
		Attack: 4, Defense: 2, Speed: 0,
		ExpReward: 12, GoldReward: 8, DropItem: "herb", Sealable: true,
	})
	gdm.AddEnemyDefinition(&EnemyDefinition{
		ID: "golem", Name: "ゴーレム", MaxHP: 50, MaxMP: 0,
		Attack: 6, Defense: 100, Speed: 0,
		ExpReward: 40, GoldReward: 20, Sealable: false,
	})
	gdm.AddEnemyDefinition(&EnemyDefinition{
		ID: "wisp", Name: "ウィスプ", MaxHP: 5, MaxMP: 0,
		Attack: 3, Defense: 1, Speed: 0,
		ExpReward: 7, GoldReward: 5, DropItem: "herb", Sealable: true,
	})
	gdm.AddEnemyDefinition(&EnemyDefinition{
		ID: "stalker", Name: "ストーカー", MaxHP: 40, MaxMP: 0,
		Attack: 5, Defense: 3, Speed: 3,
		ExpReward: 15, GoldReward: 10, Sealable: true, AI: "focus_weakest",
	})
	gdm.AddEnemyDefinition(&EnemyDefinition{
		ID: "raider", Name: "レイダー", MaxHP: 35, MaxMP: 0,
		Attack: 5, Defense: 2, Speed: 3,
		ExpReward: 10, GoldReward: 6, Sealable: true, AI: "random",
	})
	gdm.AddEncounterDefinition(&EncounterDefinition{
		ID: "lone_wisp", Enemies: []string{"wisp"}, CanFlee: true, CanSeal: true,
	})
	gdm.AddItemDefinition(&ItemDefinition{
		ID: "herb", Name: "やくそう", Kind: ItemConsumable, HealHP: 20, Price: 10,
	})
	return gdm
}

func newTestParty() *PartyData {
	party := NewPartyData()
	party.Spirits = []*SpiritRecord{
		{DefID: "fox", Name: "フォックス", Level: 1,
			CurrentHP: 30, MaxHP: 30, CurrentMP: 10, MaxMP: 10,
			Attack: 8, Defense: 3, Speed: 2,
			Abilities: []string{"spark", "mend", "charge_bolt"}},
		{DefID: "koi", Name: "コイ", Level: 1,
			CurrentHP: 25, MaxHP: 25, CurrentMP: 8, MaxMP: 8,
			Attack: 6, Defense: 4, Speed: 1,
			Abilities: []string{"mend"}},
	}
	return party
}

func newTestBattle(t *testing.T, cfg *BattleConfig, enemies []string, canFlee, canSeal bool) *BattleSystemImpl {
	t.Helper()
	gdm := newTestGameData(t)
	enc := &EncounterDefinition{ID: "test", Enemies: enemies, CanFlee: canFlee, CanSeal: canSeal}
	return NewBattleSystem(cfg, gdm, newTestParty(), enc, rand.New(rand.NewSource(1)), NewTestLogger())
}

func TestATBMonotonicityAndReadiness(t *testing.T) {
	bs := newTestBattle(t, testBattleConfig(), []string{"imp"}, true, true)

	prev := map[int]float64{}
	for step := 0; step < 30; step++ {
		bs.Update(0.05)
		for _, e := range bs.GetAlivePlayerSpirits() {
			sp := SpiritComponent.Get(e)
			g := GaugeComponent.Get(e)
			if g.ATB < 0 || g.ATB > 100 {
				t.Fatalf("step %d: %s の ATB %f が範囲外", step, sp.Name, g.ATB)
			}
			if g.ATB < prev[sp.PartyIndex] {
				t.Fatalf("step %d: %s の ATB が減少 %f -> %f", step, sp.Name, prev[sp.PartyIndex], g.ATB)
			}
			if g.IsReady != (g.ATB == 100) {
				t.Fatalf("step %d: %s IsReady=%v だが ATB=%f", step, sp.Name, g.IsReady, g.ATB)
			}
			prev[sp.PartyIndex] = g.ATB
		}
	}
	// speed 2 のフォックスが先に満タンになっていること。
	ready := bs.GetReadyPlayerSpirits()
	if len(ready) == 0 {
		t.Fatal("満タンのスピリットがいません")
	}
	if SpiritComponent.Get(ready[0]).Name != "フォックス" {
		t.Errorf("先頭 = %s, want フォックス", SpiritComponent.Get(ready[0]).Name)
	}
}

func TestDeadSpiritsExcluded(t *testing.T) {
	bs := newTestBattle(t, testBattleConfig(), []string{"imp", "imp"}, true, true)
	bs.Update(1.0)

	players := bs.GetAlivePlayerSpirits()
	SpiritComponent.Get(players[0]).CurrentHP = 0

	if got := len(bs.GetAlivePlayerSpirits()); got != 1 {
		t.Errorf("生存味方 = %d, want 1", got)
	}
	for _, e := range bs.GetReadyPlayerSpirits() {
		if !SpiritComponent.Get(e).IsAlive() {
			t.Error("死亡したスピリットが行動待ちに含まれています")
		}
	}

	enemies := bs.GetAliveEnemies()
	SpiritComponent.Get(enemies[0]).CurrentHP = 0
	if got := len(bs.GetAliveEnemies()); got != 1 {
		t.Errorf("生存敵 = %d, want 1", got)
	}
}

func TestQueueResetsGauge(t *testing.T) {
	bs := newTestBattle(t, testBattleConfig(), []string{"imp"}, true, true)
	bs.Update(1.0) // speed 2 のフォックスが満タンになる

	ready := bs.GetReadyPlayerSpirits()
	if len(ready) == 0 {
		t.Fatal("行動待ちのスピリットがいません")
	}
	user := ready[0]
	bs.QueuePlayerAction(&BattleAction{Type: ActionAttack, User: user})

	g := GaugeComponent.Get(user)
	if g.ATB != 0 || g.IsReady {
		t.Errorf("キュー直後のゲージ ATB=%f IsReady=%v, want 0/false", g.ATB, g.IsReady)
	}

	enemy := bs.GetAliveEnemies()[0]
	before := SpiritComponent.Get(enemy).CurrentHP
	bs.Update(0.01)
	if after := SpiritComponent.Get(enemy).CurrentHP; after >= before {
		t.Errorf("攻撃が解決されていません: HP %d -> %d", before, after)
	}
}

func TestDamageFloorsAtOne(t *testing.T) {
	bs := newTestBattle(t, testBattleConfig(), []string{"golem"}, true, true)
	bs.Update(1.0)

	user := bs.GetReadyPlayerSpirits()[0]
	enemy := bs.GetAliveEnemies()[0]
	before := SpiritComponent.Get(enemy).CurrentHP
	bs.QueuePlayerAction(&BattleAction{Type: ActionAttack, User: user, Target: enemy})
	bs.Update(0.01)

	// 防御100に対して威力16でも最低1ダメージ。
	if after := SpiritComponent.Get(enemy).CurrentHP; before-after != 1 {
		t.Errorf("ダメージ = %d, want 1", before-after)
	}
}

func TestVictoryCollectsRewardsOnce(t *testing.T) {
	bs := newTestBattle(t, testBattleConfig(), []string{"imp"}, true, true)

	for i := 0; i < 200 && bs.Result() == nil; i++ {
		bs.Update(0.2)
		for _, e := range bs.GetReadyPlayerSpirits() {
			bs.QueuePlayerAction(&BattleAction{Type: ActionAttack, User: e})
		}
	}

	result := bs.Result()
	if result == nil || result.Outcome != OutcomeVictory {
		t.Fatalf("Result = %+v, want victory", result)
	}
	rewards := bs.Rewards()
	if rewards.Exp != 12 || rewards.Gold != 8 {
		t.Errorf("報酬 exp=%d gold=%d, want 12/8", rewards.Exp, rewards.Gold)
	}
	if len(rewards.Items) != 1 || rewards.Items[0] != "herb" {
		t.Errorf("ドロップ = %v, want [herb]", rewards.Items)
	}

	// 決着後の Update で報酬が二重計上されないこと。
	bs.Update(1.0)
	if bs.Rewards().Exp != 12 {
		t.Errorf("決着後に報酬が変化: exp=%d", bs.Rewards().Exp)
	}
}

func TestSealWeakenedEnemy(t *testing.T) {
	bs := newTestBattle(t, testBattleConfig(), []string{"imp"}, true, true)
	bs.Update(1.0)

	enemy := bs.GetAliveEnemies()[0]
	SpiritComponent.Get(enemy).CurrentHP = 1 // chance = 2.0 * (1 - 1/30) > 1

	user := bs.GetReadyPlayerSpirits()[0]
	bs.QueuePlayerAction(&BattleAction{Type: ActionSeal, User: user, Target: enemy})
	bs.Update(0.01)

	rewards := bs.Rewards()
	if len(rewards.Sealed) != 1 || rewards.Sealed[0] != "imp" {
		t.Fatalf("Sealed = %v, want [imp]", rewards.Sealed)
	}
	if len(bs.GetAliveEnemies()) != 0 {
		t.Error("シールされた敵が残っています")
	}
	if result := bs.Result(); result == nil || result.Outcome != OutcomeVictory {
		t.Errorf("最後の敵をシールしたら勝利になるはず: %+v", result)
	}
	// シールは撃破ではないため経験値は入りません。
	if rewards.Exp != 0 {
		t.Errorf("シールで経験値が入っています: %d", rewards.Exp)
	}
}

func TestSealUnsealableEnemyFails(t *testing.T) {
	bs := newTestBattle(t, testBattleConfig(), []string{"golem"}, true, true)
	bs.Update(1.0)

	enemy := bs.GetAliveEnemies()[0]
	SpiritComponent.Get(enemy).CurrentHP = 1
	user := bs.GetReadyPlayerSpirits()[0]
	bs.QueuePlayerAction(&BattleAction{Type: ActionSeal, User: user, Target: enemy})
	bs.Update(0.01)

	if len(bs.Rewards().Sealed) != 0 {
		t.Errorf("シール不可の敵がシールされました: %v", bs.Rewards().Sealed)
	}
	if len(bs.GetAliveEnemies()) != 1 {
		t.Error("敵が戦闘から消えています")
	}
}

func TestFlee(t *testing.T) {
	t.Run("許可されていれば成功する", func(t *testing.T) {
		bs := newTestBattle(t, testBattleConfig(), []string{"imp"}, true, true)
		bs.Update(1.0)
		user := bs.GetReadyPlayerSpirits()[0]
		bs.QueuePlayerAction(&BattleAction{Type: ActionFlee, User: user})
		bs.Update(0.01)
		if result := bs.Result(); result == nil || result.Outcome != OutcomeFled {
			t.Errorf("Result = %+v, want fled", result)
		}
	})
	t.Run("禁止されていれば決着しない", func(t *testing.T) {
		bs := newTestBattle(t, testBattleConfig(), []string{"imp"}, false, true)
		bs.Update(1.0)
		user := bs.GetReadyPlayerSpirits()[0]
		bs.QueuePlayerAction(&BattleAction{Type: ActionFlee, User: user})
		bs.Update(0.01)
		if bs.Result() != nil {
			t.Errorf("Result = %+v, want nil", bs.Result())
		}
	})
}

func TestCastTimeAbility(t *testing.T) {
	bs := newTestBattle(t, testBattleConfig(), []string{"imp"}, true, true)
	bs.Update(1.0)

	user := bs.GetReadyPlayerSpirits()[0]
	ability, _ := bs.gdm.GetAbilityDefinition("charge_bolt")
	enemy := bs.GetAliveEnemies()[0]
	before := SpiritComponent.Get(enemy).CurrentHP

	bs.QueuePlayerAction(&BattleAction{Type: ActionAbility, User: user, Ability: ability, Target: enemy})
	bs.Update(0.1)

	g := GaugeComponent.Get(user)
	if !g.IsCasting {
		t.Fatal("詠唱が始まっていません")
	}
	if SpiritComponent.Get(enemy).CurrentHP != before {
		t.Fatal("詠唱完了前にダメージが入っています")
	}
	if len(bs.GetReadyPlayerSpirits()) != 0 {
		for _, e := range bs.GetReadyPlayerSpirits() {
			if e == user {
				t.Fatal("詠唱中のスピリットが行動待ちに含まれています")
			}
		}
	}

	bs.Update(1.0) // 詠唱完了
	if GaugeComponent.Get(user).IsCasting {
		t.Error("詠唱が終わっていません")
	}
	if SpiritComponent.Get(enemy).CurrentHP >= before {
		t.Error("詠唱完了後にダメージが入っていません")
	}
	// MP は解決時に消費されます。
	if got := SpiritComponent.Get(user).CurrentMP; got != 10-4 {
		t.Errorf("MP = %d, want 6", got)
	}
}

func TestHealDefaultsToSelf(t *testing.T) {
	bs := newTestBattle(t, testBattleConfig(), []string{"imp"}, true, true)
	bs.Update(1.0)

	user := bs.GetReadyPlayerSpirits()[0]
	sp := SpiritComponent.Get(user)
	sp.CurrentHP = 10
	ability, _ := bs.gdm.GetAbilityDefinition("mend")

	bs.QueuePlayerAction(&BattleAction{Type: ActionAbility, User: user, Ability: ability})
	bs.Update(0.01)

	if sp.CurrentHP != 18 {
		t.Errorf("HP = %d, want 18", sp.CurrentHP)
	}
}

// playerByName はテスト用に味方のスピリットを名前で引きます。
func playerByName(t *testing.T, bs *BattleSystemImpl, name string) *BattleSpirit {
	t.Helper()
	for _, e := range bs.GetAlivePlayerSpirits() {
		if sp := SpiritComponent.Get(e); sp.Name == name {
			return sp
		}
	}
	t.Fatalf("%s が見つかりません", name)
	return nil
}

func TestEnemyActsWhenGaugeFills(t *testing.T) {
	bs := newTestBattle(t, testBattleConfig(), []string{"raider"}, true, true)
	fox := playerByName(t, bs, "フォックス")
	koi := playerByName(t, bs, "コイ")
	totalBefore := fox.CurrentHP + koi.CurrentHP

	// speed 3 なら 0.1 秒刻みで 4 回目に満タン、5 回目で行動する。
	for i := 0; i < 5; i++ {
		bs.Update(0.1)
	}

	total := fox.CurrentHP + koi.CurrentHP
	if total >= totalBefore {
		t.Fatal("敵のゲージが満タンになっても攻撃していません")
	}
	// 攻撃5の通常攻撃なのでダメージは 10 - 対象の防御。
	if dmg := totalBefore - total; dmg != 10-fox.Defense && dmg != 10-koi.Defense {
		t.Errorf("ダメージ = %d, want %d か %d", dmg, 10-fox.Defense, 10-koi.Defense)
	}
	// 行動後はゲージが戻り、再び満タンになるまで攻撃しない。
	enemy := bs.GetAliveEnemies()[0]
	if g := GaugeComponent.Get(enemy); g.IsReady || g.ATB != 0 {
		t.Errorf("行動後のゲージ ATB=%f IsReady=%v, want 0/false", g.ATB, g.IsReady)
	}
}

func TestEnemyFocusesWeakestSpirit(t *testing.T) {
	bs := newTestBattle(t, testBattleConfig(), []string{"stalker"}, true, true)
	fox := playerByName(t, bs, "フォックス")
	koi := playerByName(t, bs, "コイ")

	for i := 0; i < 5; i++ {
		bs.Update(0.1)
	}

	// 残りHPの少ないコイが狙われる。攻撃5 → 10 - 防御4 = 6。
	if fox.CurrentHP != 30 {
		t.Errorf("フォックス HP = %d, want 30", fox.CurrentHP)
	}
	if koi.CurrentHP != 25-6 {
		t.Errorf("コイ HP = %d, want 19", koi.CurrentHP)
	}

	// 2 回目の行動も同じ対象に集中する。
	for i := 0; i < 5; i++ {
		bs.Update(0.1)
	}
	if fox.CurrentHP != 30 {
		t.Errorf("2回目以降フォックス HP = %d, want 30", fox.CurrentHP)
	}
	if koi.CurrentHP != 25-12 {
		t.Errorf("2回目以降コイ HP = %d, want 13", koi.CurrentHP)
	}
}

func TestStrategyForEnemy(t *testing.T) {
	tests := []struct {
		ai          string
		wantWeakest bool
	}{
		{"", false},
		{"random", false},
		{"focus_weakest", true},
		{"berserk", false}, // 未知の値は random 扱い
	}
	for _, tt := range tests {
		strategy := strategyForEnemy(&EnemyDefinition{ID: "x", AI: tt.ai})
		_, isWeakest := strategy.(*FocusWeakestStrategy)
		if isWeakest != tt.wantWeakest {
			t.Errorf("AI %q: strategy = %T", tt.ai, strategy)
		}
	}
}
