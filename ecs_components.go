package main

import (
	"github.com/yohamta/donburi"
)

// --- Componentの型定義 ---
// 各コンポーネントにユニークな型情報を持たせます。
var (
	SpiritComponent        = donburi.NewComponentType[BattleSpirit]()
	GaugeComponent         = donburi.NewComponentType[Gauge]()
	PlayerControlComponent = donburi.NewComponentType[PlayerControl]()
	EnemyAIComponent       = donburi.NewComponentType[EnemyAI]()
)

// BattleSpirit は戦闘に参加する1体の状態です。
// 戦闘中は BattleSystem だけがこれを変更します。
type BattleSpirit struct {
	ID        string
	Name      string
	CurrentHP int
	MaxHP     int
	CurrentMP int
	MaxMP     int
	Attack    int
	Defense   int
	Speed     int
	Abilities []*AbilityDefinition

	// PartyIndex は隊列順です。自動選択とターゲット一覧の順序を決定します。
	PartyIndex int
	IsEnemy    bool

	// 敵のみ: 撃破・シール時の報酬参照。
	DefID string
}

// IsAlive は HP が残っているかを返します。死亡した個体はターン順と
// ターゲット候補の両方から除外されます。
func (s *BattleSpirit) IsAlive() bool {
	return s.CurrentHP > 0
}

// ApplyDamage は HP を減らし、実際に与えたダメージを返します。
func (s *BattleSpirit) ApplyDamage(amount int) int {
	if amount < 1 {
		amount = 1
	}
	if amount > s.CurrentHP {
		amount = s.CurrentHP
	}
	s.CurrentHP -= amount
	return amount
}

// ApplyHeal は HP を回復し、実際の回復量を返します。
func (s *BattleSpirit) ApplyHeal(amount int) int {
	if amount < 0 {
		amount = 0
	}
	if s.CurrentHP+amount > s.MaxHP {
		amount = s.MaxHP - s.CurrentHP
	}
	s.CurrentHP += amount
	return amount
}

// SpendMP は MP を消費します。足りなければ false を返し、何も変更しません。
func (s *BattleSpirit) SpendMP(cost int) bool {
	if cost > s.CurrentMP {
		return false
	}
	s.CurrentMP -= cost
	return true
}

// Gauge は ATB と詠唱の進行状況を保持します。
// 不変条件: 0 <= ATB <= atbMax、IsReady は ATB が満タンのときに限り真。
type Gauge struct {
	ATB          float64
	IsReady      bool
	IsCasting    bool
	CastTimer    float64
	CastDuration float64
}

// PlayerControl はプレイヤーが操作するスピリットを示すタグコンポーネントです。
type PlayerControl struct{}

// EnemyAI は敵の行動選択戦略を保持します。
type EnemyAI struct {
	Strategy EnemyStrategy
}
