package main

// SpiritRecord はワールド側で永続する味方スピリットの状態です。
// 戦闘中の実体（BattleSpirit）とは別物で、戦闘終了時に書き戻されます。
type SpiritRecord struct {
	DefID     string   `json:"defId"`
	Name      string   `json:"name"`
	Level     int      `json:"level"`
	Exp       int      `json:"exp"`
	CurrentHP int      `json:"currentHp"`
	MaxHP     int      `json:"maxHp"`
	CurrentMP int      `json:"currentMp"`
	MaxMP     int      `json:"maxMp"`
	Attack    int      `json:"attack"`
	Defense   int      `json:"defense"`
	Speed     int      `json:"speed"`
	Abilities []string `json:"abilities"`
}

// expToNext は次のレベルに必要な累積経験値です。
func expToNext(level int) int {
	return level * level * 20
}

// GainExp は経験値を加算し、必要量を超えるたびにレベルアップします。
// 上昇値は単純な固定割合です。
func (s *SpiritRecord) GainExp(amount int) int {
	s.Exp += amount
	levels := 0
	for s.Exp >= expToNext(s.Level) {
		s.Level++
		levels++
		s.MaxHP += 4
		s.MaxMP += 2
		s.Attack += 2
		s.Defense++
		s.CurrentHP = s.MaxHP
		s.CurrentMP = s.MaxMP
	}
	return levels
}

// PartyData はプレイヤーパーティの現在状態です。PLAYING 状態が所有し、
// 戦闘・ショップ・インベントリは SharedResources 経由で参照します。
type PartyData struct {
	Spirits  []*SpiritRecord `json:"spirits"`
	Gold     int             `json:"gold"`
	Items    map[string]int  `json:"items"`
	Location string          `json:"location"`
	Playtime float64         `json:"playtime"`

	// 戦闘から戻った直後に同じトリガーを再発火させないためのクールダウン。
	InteractionCooldown float64 `json:"-"`
}

// NewPartyData は空のパーティを生成します。
func NewPartyData() *PartyData {
	return &PartyData{
		Items:    make(map[string]int),
		Location: "village",
	}
}

// NewPartyFromDefinitions は定義リストから初期パーティを編成します。
func NewPartyFromDefinitions(gdm *GameDataManager, ids []string) *PartyData {
	party := NewPartyData()
	for _, id := range ids {
		def, ok := gdm.GetSpiritDefinition(id)
		if !ok {
			continue
		}
		party.Spirits = append(party.Spirits, &SpiritRecord{
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
	return party
}

// AddItem はアイテムを count 個加えます。
func (p *PartyData) AddItem(id string, count int) {
	if p.Items == nil {
		p.Items = make(map[string]int)
	}
	p.Items[id] += count
}

// RemoveItem はアイテムを1個減らします。在庫が無ければ false です。
func (p *PartyData) RemoveItem(id string) bool {
	if p.Items[id] <= 0 {
		return false
	}
	p.Items[id]--
	if p.Items[id] == 0 {
		delete(p.Items, id)
	}
	return true
}
