package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config はゲーム全体の設定を保持します。
// 優先順位は デフォルト < config.yaml です。
type Config struct {
	Screen   ScreenConfig   `yaml:"screen"`
	Game     GameConfig     `yaml:"game"`
	Battle   BattleConfig   `yaml:"battle"`
	Dialogue DialogueConfig `yaml:"dialogue"`
	Audio    AudioConfig    `yaml:"audio"`
	Paths    PathsConfig    `yaml:"paths"`
	Log      LogConfig      `yaml:"log"`
}

// GameConfig は新規ゲーム開始時の初期内容です。
type GameConfig struct {
	StarterSpirits []string `yaml:"starterSpirits"`
	StarterGold    int      `yaml:"starterGold"`
	VillageScript  string   `yaml:"villageScript"`  // 村のNPCが起動するスクリプト名
	FieldEncounter string   `yaml:"fieldEncounter"` // フィールドのエンカウントID
}

type ScreenConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// BattleConfig は戦闘フェーズマシンとATB進行のパラメータです。
type BattleConfig struct {
	ATBMax              float64 `yaml:"atbMax"`
	ATBFillRate         float64 `yaml:"atbFillRate"`        // 速度1あたりの毎秒上昇量
	TransitionDuration  float64 `yaml:"transitionDuration"` // 導入演出の秒数
	ResultsMinTime      float64 `yaml:"resultsMinTime"`     // リザルトの最低表示秒数
	FleeChance          float64 `yaml:"fleeChance"`
	SealBaseChance      float64 `yaml:"sealBaseChance"`
	DamageVariance      float64 `yaml:"damageVariance"`
	FeedbackDuration    float64 `yaml:"feedbackDuration"` // ダメージ数字等の表示秒数
	InteractionCooldown float64 `yaml:"interactionCooldown"`
}

// DialogueConfig はタイプライター表示の速度設定です。
type DialogueConfig struct {
	SlowCPS           float64 `yaml:"slowCPS"`
	MediumCPS         float64 `yaml:"mediumCPS"`
	FastCPS           float64 `yaml:"fastCPS"`
	MaxRevealPerFrame int     `yaml:"maxRevealPerFrame"` // ラグ時の1フレーム最大表示文字数
}

type AudioConfig struct {
	SampleRate   int     `yaml:"sampleRate"`
	EffectVolume float64 `yaml:"effectVolume"`
	BGMVolume    float64 `yaml:"bgmVolume"`
}

// PathsConfig はアセットと保存先のパスです。SaveDir は .env で上書きできます。
type PathsConfig struct {
	Assets       string `yaml:"assets"`
	Scripts      string `yaml:"scripts"`
	SaveDir      string `yaml:"saveDir"`
	SettingsFile string `yaml:"settingsFile"`
}

type LogConfig struct {
	Level string        `yaml:"level"`
	File  LogFileConfig `yaml:"file"`
}

// DefaultConfig は組み込みのデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		Screen: ScreenConfig{Width: 1280, Height: 720},
		Game: GameConfig{
			StarterSpirits: []string{"ember_fox", "river_koi"},
			StarterGold:    120,
			VillageScript:  "village_elder",
			FieldEncounter: "grass_pack",
		},
		Battle: BattleConfig{
			ATBMax:              100,
			ATBFillRate:         8,
			TransitionDuration:  1.2,
			ResultsMinTime:      1.0,
			FleeChance:          0.6,
			SealBaseChance:      0.85,
			DamageVariance:      0.1,
			FeedbackDuration:    0.9,
			InteractionCooldown: 1.0,
		},
		Dialogue: DialogueConfig{
			SlowCPS:           15,
			MediumCPS:         35,
			FastCPS:           70,
			MaxRevealPerFrame: 4,
		},
		Audio: AudioConfig{
			SampleRate:   44100,
			EffectVolume: 0.8,
			BGMVolume:    0.6,
		},
		Paths: PathsConfig{
			Assets:       "assets",
			Scripts:      "assets/scripts",
			SaveDir:      "saves",
			SettingsFile: "settings.yaml",
		},
		Log: LogConfig{
			Level: "info",
			File:  DefaultLogFileConfig("spiritgate.log"),
		},
	}
}

// LoadConfig はデフォルトに config.yaml を重ねた設定を返します。
// ファイルが無い場合はデフォルトのまま返します。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("設定ファイルの読み込みに失敗しました %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("設定ファイルの解析に失敗しました %s: %w", path, err)
	}
	return cfg, nil
}
