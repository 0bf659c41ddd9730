package main

import (
	"context"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/looplab/fsm"
	"github.com/yohamta/donburi"
)

// 戦闘フェーズの識別子です。looplab/fsm の状態名としてそのまま使います。
const (
	PhaseTransition    = "transition"
	PhaseBattle        = "battle"
	PhaseActionSelect  = "action_select"
	PhaseAbilitySelect = "ability_select"
	PhaseTargetSelect  = "target_select"
	PhaseResults       = "results"
)

// フェーズ遷移イベント名です。キャンセルは戻り先ごとに別イベントにしています。
const (
	eventBegin          = "begin"
	eventSpiritReady    = "spirit_ready"
	eventOpenAbilities  = "open_abilities"
	eventAimTarget      = "aim_target"
	eventAimAbility     = "aim_ability"
	eventConfirmAction  = "confirm_action"
	eventCancelAction   = "cancel_action"
	eventCancelAbility  = "cancel_ability"
	eventCancelToAction = "cancel_to_action"
	eventCancelToSkill  = "cancel_to_skill"
	eventShowResults    = "show_results"
)

// newBattlePhaseFSM は戦闘フェーズの状態機械を生成します。
func newBattlePhaseFSM() *fsm.FSM {
	return fsm.NewFSM(
		PhaseTransition,
		fsm.Events{
			{Name: eventBegin, Src: []string{PhaseTransition}, Dst: PhaseBattle},
			{Name: eventSpiritReady, Src: []string{PhaseBattle}, Dst: PhaseActionSelect},
			{Name: eventOpenAbilities, Src: []string{PhaseActionSelect}, Dst: PhaseAbilitySelect},
			{Name: eventAimTarget, Src: []string{PhaseActionSelect}, Dst: PhaseTargetSelect},
			{Name: eventAimAbility, Src: []string{PhaseAbilitySelect}, Dst: PhaseTargetSelect},
			{Name: eventConfirmAction, Src: []string{PhaseTargetSelect}, Dst: PhaseBattle},
			{Name: eventCancelAction, Src: []string{PhaseActionSelect}, Dst: PhaseBattle},
			{Name: eventCancelAbility, Src: []string{PhaseAbilitySelect}, Dst: PhaseActionSelect},
			{Name: eventCancelToAction, Src: []string{PhaseTargetSelect}, Dst: PhaseActionSelect},
			{Name: eventCancelToSkill, Src: []string{PhaseTargetSelect}, Dst: PhaseAbilitySelect},
			{Name: eventShowResults, Src: []string{PhaseBattle}, Dst: PhaseResults},
		},
		fsm.Callbacks{},
	)
}

// feedbackText は画面上を流れるダメージ数値や行動テキストの一片です。
type feedbackText struct {
	Text  string
	X, Y  float64
	Timer float64
}

// battleMenuItem は行動選択メニューの一項目です。
type battleMenuItem struct {
	Label  string
	Action BattleActionType
}

// BattleStateHandler は戦闘全体を担う状態です。
// フェーズ機械でメニュー遷移を管理し、実際の戦闘進行は BattleSystem に委譲します。
type BattleStateHandler struct {
	BaseState
	res     *SharedResources
	machine *GameStateManager

	// newSystem はエンカウント ID から戦闘システムを生成します。テストで差し替えます。
	newSystem func(encounterID string) (BattleSystem, error)

	system BattleSystem
	phase  *fsm.FSM

	transitionTimer float64
	resultsTimer    float64
	showingResults  bool
	rewardsApplied  bool

	selectedSpirit *donburi.Entry
	menuItems      []battleMenuItem
	menuIndex      int
	abilityIndex   int
	targetIndex    int

	pendingAction   BattleActionType
	pendingAbility  *AbilityDefinition
	fromAbilityMenu bool

	damageNumbers []feedbackText
	actionTexts   []feedbackText
	battleLog     []string
}

// NewBattleStateHandler は戦闘状態を生成します。
func NewBattleStateHandler(res *SharedResources, machine *GameStateManager) *BattleStateHandler {
	s := &BattleStateHandler{res: res, machine: machine}
	s.newSystem = func(encounterID string) (BattleSystem, error) {
		enc, ok := res.GameData.GetEncounterDefinition(encounterID)
		if !ok {
			return nil, fmt.Errorf("エンカウント定義が見つかりません: %s", encounterID)
		}
		return NewBattleSystem(&res.Config.Battle, res.GameData, res.Party, enc, res.Rand, res.Logger), nil
	}
	return s
}

func (s *BattleStateHandler) Enter(data StateData) {
	if data.IsResuming() {
		// ポーズ復帰。戦闘は凍結されたまま保持されているので何もしません。
		return
	}
	encounterID := data.String("encounter")
	system, err := s.newSystem(encounterID)
	if err != nil {
		s.res.Logger.Errorw("戦闘を開始できません", "encounter", encounterID, "error", err)
		s.machine.PopState()
		return
	}
	s.system = system
	s.system.SetCallbacks(BattleCallbacks{
		OnDamage:     s.onDamage,
		OnHeal:       s.onHeal,
		OnActionText: s.onActionText,
		OnLogEntry:   s.onLogEntry,
	})
	s.phase = newBattlePhaseFSM()
	s.transitionTimer = 0
	s.resultsTimer = 0
	s.showingResults = false
	s.rewardsApplied = false
	s.selectedSpirit = nil
	s.damageNumbers = nil
	s.actionTexts = nil
	s.battleLog = nil
	s.res.Audio.PlayBGM("bgm_battle")
}

func (s *BattleStateHandler) Exit() {
	if s.system != nil {
		s.system.Cleanup()
		s.system = nil
	}
	s.damageNumbers = nil
	s.actionTexts = nil
}

func (s *BattleStateHandler) HandleInput(input InputProvider) {
	if s.system == nil || s.phase == nil {
		return
	}
	if s.phase.Current() != PhaseResults && input.IsJustPressed(ActionMenu) {
		input.ConsumePress(ActionMenu)
		s.machine.PushState(StatePaused, nil)
		return
	}

	switch s.phase.Current() {
	case PhaseActionSelect:
		s.handleActionSelect(input)
	case PhaseAbilitySelect:
		s.handleAbilitySelect(input)
	case PhaseTargetSelect:
		s.handleTargetSelect(input)
	case PhaseResults:
		if input.IsJustPressed(ActionConfirm) && s.resultsTimer >= s.res.Config.Battle.ResultsMinTime {
			input.ConsumePress(ActionConfirm)
			s.settleBattle()
		}
	}
}

func (s *BattleStateHandler) handleActionSelect(input InputProvider) {
	if input.IsJustPressed(ActionUp) {
		s.menuIndex = wrapIndex(s.menuIndex-1, len(s.menuItems))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionDown) {
		s.menuIndex = wrapIndex(s.menuIndex+1, len(s.menuItems))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionCancel) {
		input.ConsumePress(ActionCancel)
		s.deselect()
		s.mustEvent(eventCancelAction)
		s.res.Audio.PlayEffect("cancel")
		return
	}
	if !input.IsJustPressed(ActionConfirm) {
		return
	}
	input.ConsumePress(ActionConfirm)
	if s.menuIndex < 0 || s.menuIndex >= len(s.menuItems) {
		return
	}
	item := s.menuItems[s.menuIndex]
	switch item.Action {
	case ActionAbility:
		abilities := s.selectedAbilities()
		if len(abilities) == 0 {
			s.res.Audio.PlayEffect("error")
			return
		}
		s.abilityIndex = 0
		s.mustEvent(eventOpenAbilities)
	case ActionSeal:
		if !s.system.CanSeal() {
			s.res.Audio.PlayEffect("error")
			return
		}
		s.beginTargeting(ActionSeal, nil, false)
	case ActionFlee:
		if !s.system.CanFlee() {
			s.res.Audio.PlayEffect("error")
			return
		}
		s.beginTargeting(ActionFlee, nil, false)
	default:
		s.beginTargeting(ActionAttack, nil, false)
	}
	s.res.Audio.PlayEffect("confirm")
}

func (s *BattleStateHandler) handleAbilitySelect(input InputProvider) {
	abilities := s.selectedAbilities()
	if input.IsJustPressed(ActionUp) {
		s.abilityIndex = wrapIndex(s.abilityIndex-1, len(abilities))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionDown) {
		s.abilityIndex = wrapIndex(s.abilityIndex+1, len(abilities))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionCancel) {
		input.ConsumePress(ActionCancel)
		s.mustEvent(eventCancelAbility)
		s.res.Audio.PlayEffect("cancel")
		return
	}
	if !input.IsJustPressed(ActionConfirm) {
		return
	}
	input.ConsumePress(ActionConfirm)
	if s.abilityIndex < 0 || s.abilityIndex >= len(abilities) {
		return
	}
	ability := abilities[s.abilityIndex]
	sp := SpiritComponent.Get(s.selectedSpirit)
	if sp.CurrentMP < ability.MPCost {
		s.res.Audio.PlayEffect("error")
		return
	}
	s.beginTargeting(ActionAbility, ability, true)
	s.res.Audio.PlayEffect("confirm")
}

func (s *BattleStateHandler) handleTargetSelect(input InputProvider) {
	candidates := s.targetCandidates()
	if input.IsJustPressed(ActionUp) || input.IsJustPressed(ActionLeft) {
		s.targetIndex = wrapIndex(s.targetIndex-1, len(candidates))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionDown) || input.IsJustPressed(ActionRight) {
		s.targetIndex = wrapIndex(s.targetIndex+1, len(candidates))
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionCancel) {
		input.ConsumePress(ActionCancel)
		if s.fromAbilityMenu {
			s.mustEvent(eventCancelToSkill)
		} else {
			s.mustEvent(eventCancelToAction)
		}
		s.res.Audio.PlayEffect("cancel")
		return
	}
	if !input.IsJustPressed(ActionConfirm) {
		return
	}
	input.ConsumePress(ActionConfirm)
	if s.targetIndex < 0 || s.targetIndex >= len(candidates) {
		return
	}
	target := candidates[s.targetIndex]
	s.system.QueuePlayerAction(&BattleAction{
		Type:    s.pendingAction,
		User:    s.selectedSpirit,
		Target:  target,
		Ability: s.pendingAbility,
	})
	s.deselect()
	s.mustEvent(eventConfirmAction)
	s.res.Audio.PlayEffect("confirm")
}

// beginTargeting は対象選択フェーズへ移行します。アビリティの対象種別に応じて
// 初期カーソル位置を決めます。
func (s *BattleStateHandler) beginTargeting(kind BattleActionType, ability *AbilityDefinition, fromAbilityMenu bool) {
	s.pendingAction = kind
	s.pendingAbility = ability
	s.fromAbilityMenu = fromAbilityMenu
	s.targetIndex = 0
	if fromAbilityMenu {
		s.mustEvent(eventAimAbility)
	} else {
		s.mustEvent(eventAimTarget)
	}
	// 味方対象なら自分自身を初期カーソルにします。
	if ability != nil && ability.Targeting == TargetAlly {
		for i, e := range s.targetCandidates() {
			if e == s.selectedSpirit {
				s.targetIndex = i
				break
			}
		}
	}
}

// targetCandidates は現在の保留行動に応じた対象候補を返します。
func (s *BattleStateHandler) targetCandidates() []*donburi.Entry {
	if s.pendingAbility != nil && s.pendingAbility.Targeting == TargetAlly {
		return s.system.GetAlivePlayerSpirits()
	}
	return s.system.GetAliveEnemies()
}

func (s *BattleStateHandler) selectedAbilities() []*AbilityDefinition {
	if s.selectedSpirit == nil || !s.selectedSpirit.Valid() {
		return nil
	}
	return SpiritComponent.Get(s.selectedSpirit).Abilities
}

func (s *BattleStateHandler) Update(dt float64) {
	if s.system == nil || s.phase == nil {
		return
	}
	s.ageFeedback(dt)

	switch s.phase.Current() {
	case PhaseTransition:
		s.transitionTimer += dt
		if s.transitionTimer >= s.res.Config.Battle.TransitionDuration {
			s.mustEvent(eventBegin)
		}
	case PhaseBattle, PhaseActionSelect, PhaseAbilitySelect, PhaseTargetSelect:
		s.system.Update(dt)
		s.checkSelectionStillValid()
		if s.phase.Current() == PhaseBattle {
			if s.system.Result() != nil {
				if !s.showingResults {
					s.showingResults = true
					s.resultsTimer = 0
					s.mustEvent(eventShowResults)
					if s.system.Result().Outcome == OutcomeVictory {
						s.res.Audio.PlayEffect("victory")
					}
				}
				return
			}
			ready := s.system.GetReadyPlayerSpirits()
			if len(ready) > 0 {
				s.selectSpirit(ready[0])
				s.mustEvent(eventSpiritReady)
			}
		}
	case PhaseResults:
		s.resultsTimer += dt
	}
}

// checkSelectionStillValid は選択中のスピリットが倒された場合にメニューを畳みます。
func (s *BattleStateHandler) checkSelectionStillValid() {
	cur := s.phase.Current()
	if cur != PhaseActionSelect && cur != PhaseAbilitySelect && cur != PhaseTargetSelect {
		return
	}
	if s.selectedSpirit != nil && s.selectedSpirit.Valid() {
		if sp := SpiritComponent.Get(s.selectedSpirit); sp.IsAlive() {
			return
		}
	}
	s.deselect()
	s.phase.SetState(PhaseBattle)
}

// selectSpirit は行動選択メニューを開きます。
func (s *BattleStateHandler) selectSpirit(e *donburi.Entry) {
	s.selectedSpirit = e
	s.menuIndex = 0
	s.menuItems = []battleMenuItem{
		{Label: s.res.Messages.T("battle.menu.attack", nil), Action: ActionAttack},
		{Label: s.res.Messages.T("battle.menu.ability", nil), Action: ActionAbility},
		{Label: s.res.Messages.T("battle.menu.seal", nil), Action: ActionSeal},
		{Label: s.res.Messages.T("battle.menu.flee", nil), Action: ActionFlee},
	}
}

func (s *BattleStateHandler) deselect() {
	s.selectedSpirit = nil
	s.pendingAction = ActionAttack
	s.pendingAbility = nil
	s.fromAbilityMenu = false
}

// settleBattle はリザルトを閉じて戦闘を終了し、結果をパーティへ反映します。
func (s *BattleStateHandler) settleBattle() {
	result := s.system.Result()
	if result == nil {
		return
	}
	s.syncPartyFromBattle()
	s.res.Party.InteractionCooldown = s.res.Config.Battle.InteractionCooldown

	switch result.Outcome {
	case OutcomeVictory:
		rewards := s.system.Rewards()
		s.applyRewards(rewards)
		s.machine.PopState()
		if rewards != nil && (len(rewards.Items) > 0 || len(rewards.Sealed) > 0) {
			data := StateData{
				"items":  append([]string(nil), rewards.Items...),
				"sealed": append([]string(nil), rewards.Sealed...),
			}
			s.machine.PushState(StateLootWindow, data)
		}
	case OutcomeFled:
		s.machine.PopState()
	case OutcomeDefeat:
		s.machine.ClearStack()
		s.machine.ChangeState(StateMainMenu, nil)
	}
}

// applyRewards は経験値・ゴールド・シールド仲間をパーティへ一度だけ反映します。
func (s *BattleStateHandler) applyRewards(rewards *BattleRewards) {
	if rewards == nil || s.rewardsApplied {
		return
	}
	s.rewardsApplied = true
	s.res.Party.Gold += rewards.Gold
	for _, rec := range s.res.Party.Spirits {
		if rec.CurrentHP > 0 {
			rec.GainExp(rewards.Exp)
		}
	}
	for _, item := range rewards.Items {
		s.res.Party.AddItem(item, 1)
	}
	for _, enemyID := range rewards.Sealed {
		def, ok := s.res.GameData.GetEnemyDefinition(enemyID)
		if !ok {
			s.res.Logger.Warnw("シールした敵の定義が見つかりません", "enemy", enemyID)
			continue
		}
		s.res.Party.Spirits = append(s.res.Party.Spirits, &SpiritRecord{
			DefID:     def.ID,
			Name:      def.Name,
			Level:     1,
			CurrentHP: def.MaxHP,
			MaxHP:     def.MaxHP,
			CurrentMP: def.MaxMP,
			MaxMP:     def.MaxMP,
			Attack:    def.Attack,
			Defense:   def.Defense,
			Speed:     def.Speed,
			Abilities: append([]string(nil), def.Abilities...),
		})
	}
}

// syncPartyFromBattle は戦闘中の HP/MP をパーティ記録へ書き戻します。
func (s *BattleStateHandler) syncPartyFromBattle() {
	for _, e := range s.system.GetAlivePlayerSpirits() {
		sp := SpiritComponent.Get(e)
		if sp.PartyIndex >= 0 && sp.PartyIndex < len(s.res.Party.Spirits) {
			rec := s.res.Party.Spirits[sp.PartyIndex]
			rec.CurrentHP = sp.CurrentHP
			rec.CurrentMP = sp.CurrentMP
		}
	}
	// 倒れたメンバーは決着の種類を問わず HP 1 で復帰させます。
	for _, rec := range s.res.Party.Spirits {
		if rec.CurrentHP <= 0 {
			rec.CurrentHP = 1
		}
	}
}

func (s *BattleStateHandler) onDamage(target *BattleSpirit, amount int) {
	x, y := s.feedbackAnchor(target)
	s.damageNumbers = append(s.damageNumbers, feedbackText{
		Text: fmt.Sprintf("%d", amount), X: x, Y: y,
		Timer: s.res.Config.Battle.FeedbackDuration,
	})
}

func (s *BattleStateHandler) onHeal(target *BattleSpirit, amount int) {
	x, y := s.feedbackAnchor(target)
	s.damageNumbers = append(s.damageNumbers, feedbackText{
		Text: fmt.Sprintf("+%d", amount), X: x, Y: y,
		Timer: s.res.Config.Battle.FeedbackDuration,
	})
}

func (s *BattleStateHandler) onActionText(text string) {
	s.actionTexts = append(s.actionTexts, feedbackText{
		Text: text, X: 40, Y: 40,
		Timer: s.res.Config.Battle.FeedbackDuration,
	})
}

func (s *BattleStateHandler) onLogEntry(entry string) {
	s.battleLog = append(s.battleLog, entry)
	if len(s.battleLog) > 50 {
		s.battleLog = s.battleLog[len(s.battleLog)-50:]
	}
}

// feedbackAnchor は対象の描画位置の近似を返します。敵は上段、味方は下段です。
func (s *BattleStateHandler) feedbackAnchor(target *BattleSpirit) (float64, float64) {
	if target == nil {
		return 160, 120
	}
	if !target.IsEnemy {
		return 60 + float64(target.PartyIndex)*90, 180
	}
	for i, e := range s.system.GetAliveEnemies() {
		if SpiritComponent.Get(e) == target {
			return 60 + float64(i)*90, 60
		}
	}
	return 160, 60
}

func (s *BattleStateHandler) ageFeedback(dt float64) {
	s.damageNumbers = ageFeedbackList(s.damageNumbers, dt)
	s.actionTexts = ageFeedbackList(s.actionTexts, dt)
}

func ageFeedbackList(list []feedbackText, dt float64) []feedbackText {
	out := list[:0]
	for _, f := range list {
		f.Timer -= dt
		f.Y -= dt * 20
		if f.Timer > 0 {
			out = append(out, f)
		}
	}
	return out
}

// mustEvent はフェーズ遷移イベントを発火します。遷移表に無い組み合わせは
// プログラミングエラーなのでログに残して握りつぶします。
func (s *BattleStateHandler) mustEvent(name string) {
	if err := s.phase.Event(context.Background(), name); err != nil {
		s.res.Logger.Errorw("フェーズ遷移に失敗しました", "event", name, "phase", s.phase.Current(), "error", err)
	}
}

func (s *BattleStateHandler) Draw(screen *ebiten.Image) {
	if s.system == nil || s.phase == nil {
		return
	}
	switch s.phase.Current() {
	case PhaseTransition:
		drawTextLine(screen, s.res.Font, s.res.Messages.T("battle.transition", nil), 120, 110)
		return
	case PhaseResults:
		s.drawResults(screen)
		return
	}

	s.drawEnemies(screen)
	s.drawParty(screen)

	switch s.phase.Current() {
	case PhaseActionSelect:
		labels := make([]string, len(s.menuItems))
		for i, it := range s.menuItems {
			labels[i] = it.Label
		}
		drawMenuList(screen, s.res.Font, labels, s.menuIndex, 20, 150)
	case PhaseAbilitySelect:
		abilities := s.selectedAbilities()
		labels := make([]string, len(abilities))
		for i, a := range abilities {
			labels[i] = fmt.Sprintf("%s (MP %d)", a.Name, a.MPCost)
		}
		drawMenuList(screen, s.res.Font, labels, s.abilityIndex, 100, 150)
	case PhaseTargetSelect:
		candidates := s.targetCandidates()
		labels := make([]string, len(candidates))
		for i, e := range candidates {
			labels[i] = SpiritComponent.Get(e).Name
		}
		drawMenuList(screen, s.res.Font, labels, s.targetIndex, 180, 150)
	}

	for _, f := range s.damageNumbers {
		drawTextLine(screen, s.res.Font, f.Text, f.X, f.Y)
	}
	for _, f := range s.actionTexts {
		drawTextLine(screen, s.res.Font, f.Text, f.X, f.Y)
	}
}

func (s *BattleStateHandler) drawEnemies(screen *ebiten.Image) {
	for i, e := range s.system.GetAliveEnemies() {
		sp := SpiritComponent.Get(e)
		drawTextLine(screen, s.res.Font, fmt.Sprintf("%s HP %d/%d", sp.Name, sp.CurrentHP, sp.MaxHP), 40+float64(i)*110, 40)
	}
}

func (s *BattleStateHandler) drawParty(screen *ebiten.Image) {
	for i, e := range s.system.GetAlivePlayerSpirits() {
		sp := SpiritComponent.Get(e)
		g := GaugeComponent.Get(e)
		marker := " "
		if e == s.selectedSpirit {
			marker = ">"
		}
		line := fmt.Sprintf("%s%s HP %d/%d MP %d/%d", marker, sp.Name, sp.CurrentHP, sp.MaxHP, sp.CurrentMP, sp.MaxMP)
		drawTextLine(screen, s.res.Font, line, 20, 190+float64(i)*16)
		drawGaugeBar(screen, 260, 186+float64(i)*16, 60, 6, g.ATB/s.res.Config.Battle.ATBMax)
	}
}

func (s *BattleStateHandler) drawResults(screen *ebiten.Image) {
	result := s.system.Result()
	if result == nil {
		return
	}
	var title string
	switch result.Outcome {
	case OutcomeVictory:
		title = s.res.Messages.T("battle.result.victory", nil)
	case OutcomeDefeat:
		title = s.res.Messages.T("battle.result.defeat", nil)
	default:
		title = s.res.Messages.T("battle.result.fled", nil)
	}
	drawTextLine(screen, s.res.Font, title, 120, 60)
	if rewards := s.system.Rewards(); result.Outcome == OutcomeVictory && rewards != nil {
		drawTextLine(screen, s.res.Font, s.res.Messages.T("battle.result.exp", map[string]any{"exp": rewards.Exp}), 120, 90)
		drawTextLine(screen, s.res.Font, s.res.Messages.T("battle.result.gold", map[string]any{"gold": rewards.Gold}), 120, 110)
	}
	if s.resultsTimer >= s.res.Config.Battle.ResultsMinTime {
		drawTextLine(screen, s.res.Font, s.res.Messages.T("ui.press_confirm", nil), 120, 200)
	}
}
