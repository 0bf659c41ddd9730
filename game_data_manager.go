package main

import (
	"encoding/json"
	"fmt"

	resource "github.com/quasilyte/ebitengine-resource"
)

// AbilityKind はアビリティの効果種別です。
type AbilityKind string

const (
	AbilityDamage AbilityKind = "damage"
	AbilityHeal   AbilityKind = "heal"
)

// AbilityTargeting はアビリティの対象側です。
type AbilityTargeting string

const (
	TargetEnemy AbilityTargeting = "enemy"
	TargetAlly  AbilityTargeting = "ally"
)

// AbilityDefinition はアビリティの静的定義です。
type AbilityDefinition struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	MPCost    int              `json:"mpCost"`
	Power     int              `json:"power"`
	Kind      AbilityKind      `json:"kind"`
	Targeting AbilityTargeting `json:"targeting"`
	CastTime  float64          `json:"castTime"`
}

// SpiritDefinition は味方スピリットの静的定義です。
type SpiritDefinition struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MaxHP     int      `json:"maxHp"`
	MaxMP     int      `json:"maxMp"`
	Attack    int      `json:"attack"`
	Defense   int      `json:"defense"`
	Speed     int      `json:"speed"`
	Abilities []string `json:"abilities"`
}

// EnemyDefinition は敵スピリットの静的定義と報酬です。
type EnemyDefinition struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	MaxHP      int      `json:"maxHp"`
	MaxMP      int      `json:"maxMp"`
	Attack     int      `json:"attack"`
	Defense    int      `json:"defense"`
	Speed      int      `json:"speed"`
	Abilities  []string `json:"abilities"`
	ExpReward  int      `json:"expReward"`
	GoldReward int      `json:"goldReward"`
	DropItem   string   `json:"dropItem"`
	Sealable   bool     `json:"sealable"`
	AI         string   `json:"ai"` // random / focus_weakest（省略時は random）
}

// EncounterDefinition は1回の戦闘の構成です。
type EncounterDefinition struct {
	ID      string   `json:"id"`
	Enemies []string `json:"enemies"`
	CanFlee bool     `json:"canFlee"`
	CanSeal bool     `json:"canSeal"`
}

// ItemKind はアイテムの種別です。
type ItemKind string

const (
	ItemConsumable ItemKind = "consumable"
	ItemKeyItem    ItemKind = "key"
)

// ItemDefinition はアイテムの静的定義です。
type ItemDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        ItemKind `json:"kind"`
	HealHP      int      `json:"healHp"`
	HealMP      int      `json:"healMp"`
	Price       int      `json:"price"`
	Description string   `json:"description"`
}

// ShopDefinition は店の品揃えです。
type ShopDefinition struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// GameDataManager はすべての静的ゲームデータ定義とメッセージを保持します。
type GameDataManager struct {
	spirits    map[string]*SpiritDefinition
	abilities  map[string]*AbilityDefinition
	enemies    map[string]*EnemyDefinition
	encounters map[string]*EncounterDefinition
	items      map[string]*ItemDefinition
	shops      map[string]*ShopDefinition

	Messages *MessageManager
}

// NewGameDataManager はリソースローダーから全定義を読み込みます。
func NewGameDataManager(loader *resource.Loader, messages *MessageManager) (*GameDataManager, error) {
	gdm := &GameDataManager{
		spirits:    make(map[string]*SpiritDefinition),
		abilities:  make(map[string]*AbilityDefinition),
		enemies:    make(map[string]*EnemyDefinition),
		encounters: make(map[string]*EncounterDefinition),
		items:      make(map[string]*ItemDefinition),
		shops:      make(map[string]*ShopDefinition),
		Messages:   messages,
	}

	if err := loadDefinitions(loader, RawSpiritsJSON, gdm.spirits, func(d *SpiritDefinition) string { return d.ID }); err != nil {
		return nil, fmt.Errorf("スピリット定義の読み込みに失敗しました: %w", err)
	}
	if err := loadDefinitions(loader, RawAbilitiesJSON, gdm.abilities, func(d *AbilityDefinition) string { return d.ID }); err != nil {
		return nil, fmt.Errorf("アビリティ定義の読み込みに失敗しました: %w", err)
	}
	if err := loadDefinitions(loader, RawEnemiesJSON, gdm.enemies, func(d *EnemyDefinition) string { return d.ID }); err != nil {
		return nil, fmt.Errorf("敵定義の読み込みに失敗しました: %w", err)
	}
	if err := loadDefinitions(loader, RawEncountersJSON, gdm.encounters, func(d *EncounterDefinition) string { return d.ID }); err != nil {
		return nil, fmt.Errorf("エンカウント定義の読み込みに失敗しました: %w", err)
	}
	if err := loadDefinitions(loader, RawItemsJSON, gdm.items, func(d *ItemDefinition) string { return d.ID }); err != nil {
		return nil, fmt.Errorf("アイテム定義の読み込みに失敗しました: %w", err)
	}
	if err := loadDefinitions(loader, RawShopsJSON, gdm.shops, func(d *ShopDefinition) string { return d.ID }); err != nil {
		return nil, fmt.Errorf("ショップ定義の読み込みに失敗しました: %w", err)
	}
	return gdm, nil
}

// NewEmptyGameDataManager はテスト用に空のマネージャを生成します。
func NewEmptyGameDataManager(messages *MessageManager) *GameDataManager {
	return &GameDataManager{
		spirits:    make(map[string]*SpiritDefinition),
		abilities:  make(map[string]*AbilityDefinition),
		enemies:    make(map[string]*EnemyDefinition),
		encounters: make(map[string]*EncounterDefinition),
		items:      make(map[string]*ItemDefinition),
		shops:      make(map[string]*ShopDefinition),
		Messages:   messages,
	}
}

func loadDefinitions[T any](loader *resource.Loader, id resource.RawID, dst map[string]*T, key func(*T) string) error {
	res := loader.LoadRaw(id)
	if res.Data == nil {
		return fmt.Errorf("リソース %d のデータがありません", id)
	}
	var defs []*T
	if err := json.Unmarshal(res.Data, &defs); err != nil {
		return err
	}
	for _, d := range defs {
		dst[key(d)] = d
	}
	return nil
}

// GetSpiritDefinition はスピリット定義を返します。
func (gdm *GameDataManager) GetSpiritDefinition(id string) (*SpiritDefinition, bool) {
	d, ok := gdm.spirits[id]
	return d, ok
}

// GetAbilityDefinition はアビリティ定義を返します。
func (gdm *GameDataManager) GetAbilityDefinition(id string) (*AbilityDefinition, bool) {
	d, ok := gdm.abilities[id]
	return d, ok
}

// GetEnemyDefinition は敵定義を返します。
func (gdm *GameDataManager) GetEnemyDefinition(id string) (*EnemyDefinition, bool) {
	d, ok := gdm.enemies[id]
	return d, ok
}

// GetEncounterDefinition はエンカウント定義を返します。
func (gdm *GameDataManager) GetEncounterDefinition(id string) (*EncounterDefinition, bool) {
	d, ok := gdm.encounters[id]
	return d, ok
}

// GetItemDefinition はアイテム定義を返します。
func (gdm *GameDataManager) GetItemDefinition(id string) (*ItemDefinition, bool) {
	d, ok := gdm.items[id]
	return d, ok
}

// GetShopDefinition はショップ定義を返します。
func (gdm *GameDataManager) GetShopDefinition(id string) (*ShopDefinition, bool) {
	d, ok := gdm.shops[id]
	return d, ok
}

// AddAbilityDefinition はテストやツールから定義を直接登録します。
func (gdm *GameDataManager) AddAbilityDefinition(d *AbilityDefinition) {
	gdm.abilities[d.ID] = d
}

// AddSpiritDefinition はスピリット定義を直接登録します。
func (gdm *GameDataManager) AddSpiritDefinition(d *SpiritDefinition) {
	gdm.spirits[d.ID] = d
}

// AddEnemyDefinition は敵定義を直接登録します。
func (gdm *GameDataManager) AddEnemyDefinition(d *EnemyDefinition) {
	gdm.enemies[d.ID] = d
}

// AddEncounterDefinition はエンカウント定義を直接登録します。
func (gdm *GameDataManager) AddEncounterDefinition(d *EncounterDefinition) {
	gdm.encounters[d.ID] = d
}

// AddItemDefinition はアイテム定義を直接登録します。
func (gdm *GameDataManager) AddItemDefinition(d *ItemDefinition) {
	gdm.items[d.ID] = d
}

// AddShopDefinition はショップ定義を直接登録します。
func (gdm *GameDataManager) AddShopDefinition(d *ShopDefinition) {
	gdm.shops[d.ID] = d
}
