package main

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"github.com/yohamta/donburi/query"
	"go.uber.org/zap"
)

// BattleActionType は待機アクションの種別です。
type BattleActionType string

const (
	ActionAttack  BattleActionType = "attack"
	ActionAbility BattleActionType = "ability"
	ActionSeal    BattleActionType = "seal"
	ActionFlee    BattleActionType = "flee"
)

// BattleAction はターゲット選択で組み立てられ、QueuePlayerAction に渡されると
// 即座にキューへ移り、それ以降は保持されません。
type BattleAction struct {
	Type    BattleActionType
	User    *donburi.Entry
	Ability *AbilityDefinition
	Target  *donburi.Entry
}

// BattleOutcome は戦闘の決着種別です。
type BattleOutcome string

const (
	OutcomeVictory BattleOutcome = "victory"
	OutcomeDefeat  BattleOutcome = "defeat"
	OutcomeFled    BattleOutcome = "fled"
)

// BattleResult は決着後に一度だけ設定されます。
type BattleResult struct {
	Outcome BattleOutcome
}

// BattleRewards は勝利時の報酬です。勝利以外では適用されません。
type BattleRewards struct {
	Exp    int
	Gold   int
	Items  []string
	Sealed []string
}

// BattleCallbacks は表示専用のフィードバックコールバックです。
// 戦闘ロジックがこれらの出力を読み戻すことはありません。
type BattleCallbacks struct {
	OnDamage     func(target *BattleSpirit, amount int)
	OnHeal       func(target *BattleSpirit, amount int)
	OnActionText func(text string)
	OnLogEntry   func(text string)
}

// BattleSystem は戦闘ロジックのコラボレータ契約です。
// フェーズマシン（BattleState）はこの契約だけを消費し、ダメージ計算や
// HP/MP の変更を自分では行いません。
type BattleSystem interface {
	Update(dt float64)
	QueuePlayerAction(action *BattleAction)
	GetReadyPlayerSpirits() []*donburi.Entry
	GetAlivePlayerSpirits() []*donburi.Entry
	GetAliveEnemies() []*donburi.Entry
	CanFlee() bool
	CanSeal() bool
	Result() *BattleResult
	Rewards() *BattleRewards
	SetCallbacks(cb BattleCallbacks)
	Cleanup()
}

// BattleSystemImpl は donburi ワールド上の BattleSystem 実装です。
type BattleSystemImpl struct {
	world donburi.World
	cfg   *BattleConfig
	gdm   *GameDataManager
	rng   *rand.Rand

	queue       []*BattleAction
	castActions map[donburi.Entity]*BattleAction

	canFlee bool
	canSeal bool

	result  *BattleResult
	rewards *BattleRewards

	defeated []string // 撃破した敵の DefID（報酬計算用）

	callbacks BattleCallbacks
	logger    *zap.SugaredLogger
}

// NewBattleSystem はパーティとエンカウント定義から戦闘を編成します。
func NewBattleSystem(cfg *BattleConfig, gdm *GameDataManager, party *PartyData, encounter *EncounterDefinition, rng *rand.Rand, logger *zap.SugaredLogger) *BattleSystemImpl {
	bs := &BattleSystemImpl{
		world:       donburi.NewWorld(),
		cfg:         cfg,
		gdm:         gdm,
		rng:         rng,
		castActions: make(map[donburi.Entity]*BattleAction),
		canFlee:     encounter.CanFlee,
		canSeal:     encounter.CanSeal,
		rewards:     &BattleRewards{},
		logger:      logger,
	}

	for i, record := range party.Spirits {
		bs.spawnPlayerSpirit(record, i)
	}
	for i, enemyID := range encounter.Enemies {
		if def, ok := gdm.GetEnemyDefinition(enemyID); ok {
			bs.spawnEnemySpirit(def, i)
		} else {
			logger.Errorw("未知の敵IDをスキップします", "enemy", enemyID)
		}
	}
	return bs
}

func (bs *BattleSystemImpl) spawnPlayerSpirit(record *SpiritRecord, index int) {
	entry := bs.world.Entry(bs.world.Create(SpiritComponent, GaugeComponent, PlayerControlComponent))
	abilities := bs.resolveAbilities(record.Abilities)
	SpiritComponent.SetValue(entry, BattleSpirit{
		ID:         record.DefID,
		Name:       record.Name,
		CurrentHP:  record.CurrentHP,
		MaxHP:      record.MaxHP,
		CurrentMP:  record.CurrentMP,
		MaxMP:      record.MaxMP,
		Attack:     record.Attack,
		Defense:    record.Defense,
		Speed:      record.Speed,
		Abilities:  abilities,
		PartyIndex: index,
	})
	GaugeComponent.SetValue(entry, Gauge{})
}

func (bs *BattleSystemImpl) spawnEnemySpirit(def *EnemyDefinition, index int) {
	entry := bs.world.Entry(bs.world.Create(SpiritComponent, GaugeComponent, EnemyAIComponent))
	abilities := bs.resolveAbilities(def.Abilities)
	SpiritComponent.SetValue(entry, BattleSpirit{
		ID:         def.ID,
		Name:       def.Name,
		CurrentHP:  def.MaxHP,
		MaxHP:      def.MaxHP,
		CurrentMP:  def.MaxMP,
		MaxMP:      def.MaxMP,
		Attack:     def.Attack,
		Defense:    def.Defense,
		Speed:      def.Speed,
		Abilities:  abilities,
		PartyIndex: index,
		IsEnemy:    true,
		DefID:      def.ID,
	})
	GaugeComponent.SetValue(entry, Gauge{})
	EnemyAIComponent.SetValue(entry, EnemyAI{Strategy: strategyForEnemy(def)})
}

func (bs *BattleSystemImpl) resolveAbilities(ids []string) []*AbilityDefinition {
	var abilities []*AbilityDefinition
	for _, id := range ids {
		if def, ok := bs.gdm.GetAbilityDefinition(id); ok {
			abilities = append(abilities, def)
		} else {
			bs.logger.Warnw("未知のアビリティIDをスキップします", "ability", id)
		}
	}
	return abilities
}

// SetCallbacks は表示フィードバックの受け口を登録します。
func (bs *BattleSystemImpl) SetCallbacks(cb BattleCallbacks) {
	bs.callbacks = cb
}

// CanFlee はこの戦闘で逃走が許可されているかを返します。
func (bs *BattleSystemImpl) CanFlee() bool { return bs.canFlee }

// CanSeal はこの戦闘でシールが許可されているかを返します。
func (bs *BattleSystemImpl) CanSeal() bool { return bs.canSeal }

// Result は決着前は nil です。
func (bs *BattleSystemImpl) Result() *BattleResult { return bs.result }

// Rewards は集計済みの報酬を返します。
func (bs *BattleSystemImpl) Rewards() *BattleRewards { return bs.rewards }

// Update はゲージ進行・詠唱・キュー解決・決着判定を1ステップ進めます。
func (bs *BattleSystemImpl) Update(dt float64) {
	if bs.result != nil {
		return
	}
	bs.updateGauges(dt)
	bs.resolveQueue()
	bs.checkBattleEnd()
}

// updateGauges はチャージと詠唱のゲージ進行を更新します。
// 敵はゲージが満タンになった時点で行動をキューに積みます。
func (bs *BattleSystemImpl) updateGauges(dt float64) {
	query.NewQuery(filter.Contains(SpiritComponent, GaugeComponent)).Each(bs.world, func(entry *donburi.Entry) {
		spirit := SpiritComponent.Get(entry)
		gauge := GaugeComponent.Get(entry)
		if !spirit.IsAlive() {
			return
		}

		if gauge.IsCasting {
			gauge.CastTimer += dt
			if gauge.CastTimer >= gauge.CastDuration {
				action := bs.castActions[entry.Entity()]
				delete(bs.castActions, entry.Entity())
				gauge.IsCasting = false
				gauge.CastTimer = 0
				gauge.CastDuration = 0
				if action != nil {
					bs.resolveAction(action)
				}
			}
			return
		}

		if gauge.IsReady {
			if entry.HasComponent(EnemyAIComponent) {
				ai := EnemyAIComponent.Get(entry)
				if action := ai.Strategy.ChooseAction(entry, bs); action != nil {
					bs.enqueue(action)
				}
			}
			return
		}

		gauge.ATB += bs.cfg.ATBFillRate * float64(spirit.Speed) * dt
		if gauge.ATB >= bs.cfg.ATBMax {
			gauge.ATB = bs.cfg.ATBMax
			gauge.IsReady = true
		}
	})
}

// QueuePlayerAction はフェーズマシンから合法なアクションを受け取ります。
// 受領した時点で行動は確定し、ユーザのゲージはリセットされます。
func (bs *BattleSystemImpl) QueuePlayerAction(action *BattleAction) {
	if action == nil || action.User == nil || !action.User.Valid() {
		bs.logger.Warnw("無効なプレイヤーアクションを無視します")
		return
	}
	bs.enqueue(action)
}

func (bs *BattleSystemImpl) enqueue(action *BattleAction) {
	gauge := GaugeComponent.Get(action.User)
	gauge.ATB = 0
	gauge.IsReady = false
	bs.queue = append(bs.queue, action)
}

// resolveQueue はキューを先頭から順に解決します。
// 詠唱付きアビリティは解決ではなく詠唱開始になります。
func (bs *BattleSystemImpl) resolveQueue() {
	for len(bs.queue) > 0 {
		if bs.result != nil {
			return
		}
		action := bs.queue[0]
		bs.queue = bs.queue[1:]

		if action.User == nil || !action.User.Valid() || !SpiritComponent.Get(action.User).IsAlive() {
			continue
		}

		if action.Type == ActionAbility && action.Ability != nil && action.Ability.CastTime > 0 {
			gauge := GaugeComponent.Get(action.User)
			gauge.IsCasting = true
			gauge.CastTimer = 0
			gauge.CastDuration = action.Ability.CastTime
			bs.castActions[action.User.Entity()] = action
			user := SpiritComponent.Get(action.User)
			bs.emitActionText(fmt.Sprintf("%s は %s の詠唱を始めた", user.Name, action.Ability.Name))
			continue
		}

		bs.resolveAction(action)
		bs.checkBattleEnd()
	}
}

// resolveAction は1アクションの戦闘計算を行います。
func (bs *BattleSystemImpl) resolveAction(action *BattleAction) {
	user := SpiritComponent.Get(action.User)
	if !user.IsAlive() {
		return
	}

	switch action.Type {
	case ActionAttack:
		target := bs.retarget(action.Target, !user.IsEnemy)
		if target == nil {
			return
		}
		bs.dealDamage(user, SpiritComponent.Get(target), user.Attack*2)
		bs.emitActionText(fmt.Sprintf("%s の攻撃！", user.Name))
	case ActionAbility:
		bs.resolveAbility(action)
	case ActionSeal:
		bs.resolveSeal(action)
	case ActionFlee:
		bs.resolveFlee(user)
	default:
		bs.logger.Errorw("未知のアクション種別です", "type", action.Type)
	}
}

func (bs *BattleSystemImpl) resolveAbility(action *BattleAction) {
	user := SpiritComponent.Get(action.User)
	ability := action.Ability
	if ability == nil {
		return
	}
	if !user.SpendMP(ability.MPCost) {
		// UI層で検証済みだが、詠唱中の被弾などでMPが変動した場合はここで失敗する。
		bs.emitActionText(fmt.Sprintf("%s は MP が足りない！", user.Name))
		return
	}
	bs.emitActionText(fmt.Sprintf("%s の %s！", user.Name, ability.Name))

	switch ability.Kind {
	case AbilityHeal:
		target := action.Target
		if target == nil || !target.Valid() || !SpiritComponent.Get(target).IsAlive() {
			target = action.User
		}
		spirit := SpiritComponent.Get(target)
		healed := spirit.ApplyHeal(ability.Power)
		if bs.callbacks.OnHeal != nil {
			bs.callbacks.OnHeal(spirit, healed)
		}
		bs.emitLog(fmt.Sprintf("%s の HP が %d 回復した", spirit.Name, healed))
	case AbilityDamage:
		target := bs.retarget(action.Target, !user.IsEnemy)
		if target == nil {
			return
		}
		bs.dealDamage(user, SpiritComponent.Get(target), ability.Power+user.Attack)
	default:
		bs.logger.Errorw("未知のアビリティ種別です", "kind", ability.Kind)
	}
}

func (bs *BattleSystemImpl) resolveSeal(action *BattleAction) {
	user := SpiritComponent.Get(action.User)
	target := bs.retarget(action.Target, true)
	if target == nil {
		return
	}
	spirit := SpiritComponent.Get(target)
	def, _ := bs.gdm.GetEnemyDefinition(spirit.DefID)
	if def != nil && !def.Sealable {
		bs.emitActionText(fmt.Sprintf("%s はシールできない！", spirit.Name))
		return
	}

	// 弱った相手ほど成功しやすい。
	hpRatio := float64(spirit.CurrentHP) / float64(spirit.MaxHP)
	chance := bs.cfg.SealBaseChance * (1 - hpRatio)
	if bs.rng.Float64() < chance {
		bs.rewards.Sealed = append(bs.rewards.Sealed, spirit.DefID)
		bs.emitActionText(fmt.Sprintf("%s は %s をシールした！", user.Name, spirit.Name))
		bs.world.Remove(target.Entity())
	} else {
		bs.emitActionText(fmt.Sprintf("%s のシールは失敗した", user.Name))
	}
}

func (bs *BattleSystemImpl) resolveFlee(user *BattleSpirit) {
	if !bs.canFlee {
		bs.emitActionText("逃げられない！")
		return
	}
	if bs.rng.Float64() < bs.cfg.FleeChance {
		bs.result = &BattleResult{Outcome: OutcomeFled}
		bs.emitActionText("うまく逃げ切れた！")
	} else {
		bs.emitActionText(fmt.Sprintf("%s は逃げようとしたが回り込まれた！", user.Name))
	}
}

// dealDamage は基礎威力から防御と乱数補正を引いたダメージを与えます。
// ダメージの下限は1です。
func (bs *BattleSystemImpl) dealDamage(user, target *BattleSpirit, power int) {
	base := power - target.Defense
	if base < 1 {
		base = 1
	}
	variance := 1 + (bs.rng.Float64()*2-1)*bs.cfg.DamageVariance
	amount := int(float64(base) * variance)
	dealt := target.ApplyDamage(amount)
	if bs.callbacks.OnDamage != nil {
		bs.callbacks.OnDamage(target, dealt)
	}
	bs.emitLog(fmt.Sprintf("%s に %d のダメージ", target.Name, dealt))

	if !target.IsAlive() {
		bs.emitLog(fmt.Sprintf("%s を倒した！", target.Name))
		if target.IsEnemy {
			bs.defeated = append(bs.defeated, target.DefID)
		}
	}
}

// retarget は対象が既に倒れている場合に、同じ陣営の先頭の生存者へ
// ターゲットを付け替えます。候補がいなければ nil です。
func (bs *BattleSystemImpl) retarget(target *donburi.Entry, wantEnemy bool) *donburi.Entry {
	if target != nil && target.Valid() {
		spirit := SpiritComponent.Get(target)
		if spirit.IsAlive() && spirit.IsEnemy == wantEnemy {
			return target
		}
	}
	var candidates []*donburi.Entry
	if wantEnemy {
		candidates = bs.GetAliveEnemies()
	} else {
		candidates = bs.GetAlivePlayerSpirits()
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}

// checkBattleEnd は決着条件を判定し、勝利時は報酬を集計します。
func (bs *BattleSystemImpl) checkBattleEnd() {
	if bs.result != nil {
		return
	}
	if len(bs.GetAlivePlayerSpirits()) == 0 {
		bs.result = &BattleResult{Outcome: OutcomeDefeat}
		bs.emitLog("パーティは全滅した…")
		return
	}
	if len(bs.GetAliveEnemies()) == 0 {
		bs.result = &BattleResult{Outcome: OutcomeVictory}
		bs.collectRewards()
		bs.emitLog("戦闘に勝利した！")
	}
}

func (bs *BattleSystemImpl) collectRewards() {
	for _, defID := range bs.defeated {
		def, ok := bs.gdm.GetEnemyDefinition(defID)
		if !ok {
			continue
		}
		bs.rewards.Exp += def.ExpReward
		bs.rewards.Gold += def.GoldReward
		if def.DropItem != "" {
			bs.rewards.Items = append(bs.rewards.Items, def.DropItem)
		}
	}
}

func (bs *BattleSystemImpl) collectSpirits(wantPlayer, readyOnly bool) []*donburi.Entry {
	var entries []*donburi.Entry
	query.NewQuery(filter.Contains(SpiritComponent, GaugeComponent)).Each(bs.world, func(entry *donburi.Entry) {
		spirit := SpiritComponent.Get(entry)
		if !spirit.IsAlive() || spirit.IsEnemy == wantPlayer {
			return
		}
		if readyOnly {
			gauge := GaugeComponent.Get(entry)
			if !gauge.IsReady || gauge.IsCasting {
				return
			}
		}
		entries = append(entries, entry)
	})
	sort.Slice(entries, func(i, j int) bool {
		return SpiritComponent.Get(entries[i]).PartyIndex < SpiritComponent.Get(entries[j]).PartyIndex
	})
	return entries
}

// GetReadyPlayerSpirits は行動選択待ちの味方を隊列順で返します。
func (bs *BattleSystemImpl) GetReadyPlayerSpirits() []*donburi.Entry {
	return bs.collectSpirits(true, true)
}

// GetAlivePlayerSpirits は生存中の味方を隊列順で返します。
func (bs *BattleSystemImpl) GetAlivePlayerSpirits() []*donburi.Entry {
	return bs.collectSpirits(true, false)
}

// GetAliveEnemies は生存中の敵を隊列順で返します。
func (bs *BattleSystemImpl) GetAliveEnemies() []*donburi.Entry {
	return bs.collectSpirits(false, false)
}

// Cleanup は戦闘終了時に一時状態を破棄します。
func (bs *BattleSystemImpl) Cleanup() {
	bs.queue = nil
	bs.castActions = make(map[donburi.Entity]*BattleAction)
	bs.callbacks = BattleCallbacks{}
}

func (bs *BattleSystemImpl) emitActionText(text string) {
	if bs.callbacks.OnActionText != nil {
		bs.callbacks.OnActionText(text)
	}
	bs.emitLog(text)
}

func (bs *BattleSystemImpl) emitLog(text string) {
	if bs.callbacks.OnLogEntry != nil {
		bs.callbacks.OnLogEntry(text)
	}
	bs.logger.Debugw("battle", "log", text)
}
