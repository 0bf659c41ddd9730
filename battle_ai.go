package main

import (
	"github.com/yohamta/donburi"
)

// EnemyStrategy は敵のゲージが満タンになったときに行動を組み立てる契約です。
// 対象がいない場合は nil を返し、その場合は何もキューされません。
type EnemyStrategy interface {
	ChooseAction(entry *donburi.Entry, bs *BattleSystemImpl) *BattleAction
}

// --- 戦略の実装 ---

// RandomStrategy は生存中の味方から無作為に対象を選びます。
// MP の足りる攻撃アビリティを持っていれば半々の確率でそちらを使います。
type RandomStrategy struct{}

func (s *RandomStrategy) ChooseAction(entry *donburi.Entry, bs *BattleSystemImpl) *BattleAction {
	targets := bs.GetAlivePlayerSpirits()
	if len(targets) == 0 {
		return nil
	}
	target := targets[bs.rng.Intn(len(targets))]
	user := SpiritComponent.Get(entry)
	if ability := usableDamageAbility(user); ability != nil && bs.rng.Float64() < 0.5 {
		return &BattleAction{Type: ActionAbility, User: entry, Target: target, Ability: ability}
	}
	return &BattleAction{Type: ActionAttack, User: entry, Target: target}
}

// FocusWeakestStrategy は残り HP が最も少ない味方を狙い続けます。
// 同値の場合は隊列順で先のメンバーを選びます。
type FocusWeakestStrategy struct{}

func (s *FocusWeakestStrategy) ChooseAction(entry *donburi.Entry, bs *BattleSystemImpl) *BattleAction {
	targets := bs.GetAlivePlayerSpirits()
	if len(targets) == 0 {
		return nil
	}
	weakest := targets[0]
	for _, e := range targets[1:] {
		if SpiritComponent.Get(e).CurrentHP < SpiritComponent.Get(weakest).CurrentHP {
			weakest = e
		}
	}
	return &BattleAction{Type: ActionAttack, User: entry, Target: weakest}
}

// usableDamageAbility は MP の足りる最初の攻撃アビリティを返します。
func usableDamageAbility(user *BattleSpirit) *AbilityDefinition {
	for _, ability := range user.Abilities {
		if ability.Kind == AbilityDamage && ability.MPCost <= user.CurrentMP {
			return ability
		}
	}
	return nil
}

// strategyForEnemy は敵定義の AI 指定を戦略に解決します。
// 未指定と未知の値は random として扱います。
func strategyForEnemy(def *EnemyDefinition) EnemyStrategy {
	switch def.AI {
	case "focus_weakest":
		return &FocusWeakestStrategy{}
	default:
		return &RandomStrategy{}
	}
}
