package main

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SettingKind は設定項目の閉じた種別です。描画と調整処理は
// この種別に対する網羅的な switch で行います。
type SettingKind int

const (
	SettingSlider SettingKind = iota
	SettingToggle
	SettingSelect
	SettingBinding
	SettingInfo
)

// SettingOption は設定画面の1項目です。Kind ごとに使うフィールドが決まっています。
type SettingOption struct {
	Key   string
	Label string
	Kind  SettingKind

	// Slider
	Value float64
	Min   float64
	Max   float64
	Step  float64

	// Toggle
	On bool

	// Select
	Choices []string
	Index   int

	// Binding
	Action Action
	Bound  ebiten.Key

	// Info
	Text string
}

// SettingsValues は settings.yaml に永続化される値です。
type SettingsValues struct {
	EffectVolume float64           `yaml:"effectVolume"`
	BGMVolume    float64           `yaml:"bgmVolume"`
	Fullscreen   bool              `yaml:"fullscreen"`
	TextSpeed    string            `yaml:"textSpeed"` // slow / medium / fast
	Bindings     map[string]string `yaml:"bindings"`  // action -> key name
}

// DefaultSettingsValues は初期設定値です。
func DefaultSettingsValues() SettingsValues {
	return SettingsValues{
		EffectVolume: 0.8,
		BGMVolume:    0.6,
		Fullscreen:   false,
		TextSpeed:    "medium",
		Bindings:     map[string]string{},
	}
}

// SettingsManager は設定値の保持・永続化と、入力マネージャへの
// バインディング適用を担当します。
type SettingsManager struct {
	path   string
	values SettingsValues
	logger *zap.SugaredLogger
}

// NewSettingsManager は settings.yaml を読み込んでマネージャを生成します。
// ファイルが無い場合はデフォルト値から始めます。
func NewSettingsManager(path string, logger *zap.SugaredLogger) *SettingsManager {
	sm := &SettingsManager{
		path:   path,
		values: DefaultSettingsValues(),
		logger: logger,
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &sm.values); err != nil {
			logger.Warnw("設定ファイルの解析に失敗したためデフォルトを使います", "path", path, "error", err)
			sm.values = DefaultSettingsValues()
		}
	}
	if sm.values.Bindings == nil {
		sm.values.Bindings = map[string]string{}
	}
	return sm
}

// Values は現在の設定値を返します。
func (sm *SettingsManager) Values() SettingsValues {
	return sm.values
}

// TextSpeedCPS は現在のテキスト速度設定を 文字/秒 に変換します。
func (sm *SettingsManager) TextSpeedCPS(cfg *DialogueConfig) float64 {
	switch sm.values.TextSpeed {
	case "slow":
		return cfg.SlowCPS
	case "fast":
		return cfg.FastCPS
	default:
		return cfg.MediumCPS
	}
}

// Save は設定値を yaml で書き出します。
func (sm *SettingsManager) Save() error {
	data, err := yaml.Marshal(&sm.values)
	if err != nil {
		return fmt.Errorf("設定値のシリアライズに失敗しました: %w", err)
	}
	if err := os.WriteFile(sm.path, data, 0o644); err != nil {
		return fmt.Errorf("設定ファイルの書き込みに失敗しました: %w", err)
	}
	return nil
}

// ApplyBindings は保存済みバインディングを入力マネージャに反映します。
func (sm *SettingsManager) ApplyBindings(input *InputManager) {
	for action, keyName := range sm.values.Bindings {
		if key, ok := keyFromName(keyName); ok {
			input.Rebind(Action(action), key)
		} else {
			sm.logger.Warnw("未知のキー名のバインディングを無視します", "action", action, "key", keyName)
		}
	}
}

// BuildOptions は設定画面に表示する項目リストを組み立てます。
func (sm *SettingsManager) BuildOptions(input *InputManager) []*SettingOption {
	opts := []*SettingOption{
		{Key: "effectVolume", Label: "効果音量", Kind: SettingSlider, Value: sm.values.EffectVolume, Min: 0, Max: 1, Step: 0.1},
		{Key: "bgmVolume", Label: "BGM音量", Kind: SettingSlider, Value: sm.values.BGMVolume, Min: 0, Max: 1, Step: 0.1},
		{Key: "fullscreen", Label: "フルスクリーン", Kind: SettingToggle, On: sm.values.Fullscreen},
		{Key: "textSpeed", Label: "テキスト速度", Kind: SettingSelect, Choices: []string{"slow", "medium", "fast"}, Index: textSpeedIndex(sm.values.TextSpeed)},
	}
	for _, action := range []Action{ActionConfirm, ActionCancel, ActionMenu, ActionInteract} {
		opts = append(opts, &SettingOption{
			Key:    "bind_" + string(action),
			Label:  "キー: " + string(action),
			Kind:   SettingBinding,
			Action: action,
			Bound:  input.Binding(action),
		})
	}
	opts = append(opts, &SettingOption{Key: "version", Label: "バージョン", Kind: SettingInfo, Text: "Spirit Gate 0.1"})
	return opts
}

// Adjust は左右入力による項目の調整です。Kind に対して網羅的です。
// 戻り値は値が変化したかどうかです。
func (sm *SettingsManager) Adjust(opt *SettingOption, dir int) bool {
	switch opt.Kind {
	case SettingSlider:
		next := opt.Value + float64(dir)*opt.Step
		if next < opt.Min {
			next = opt.Min
		}
		if next > opt.Max {
			next = opt.Max
		}
		if next == opt.Value {
			return false
		}
		opt.Value = next
		sm.applyOption(opt)
		return true
	case SettingToggle:
		opt.On = !opt.On
		sm.applyOption(opt)
		return true
	case SettingSelect:
		if len(opt.Choices) == 0 {
			return false
		}
		opt.Index = wrapIndex(opt.Index+dir, len(opt.Choices))
		sm.applyOption(opt)
		return true
	case SettingBinding:
		// バインディングは左右ではなくキャプチャモードで変更します。
		return false
	case SettingInfo:
		return false
	}
	return false
}

// SetBinding はキャプチャされたキーを opt に反映し、永続値に書き込みます。
func (sm *SettingsManager) SetBinding(opt *SettingOption, key ebiten.Key, input *InputManager) {
	if opt.Kind != SettingBinding {
		return
	}
	opt.Bound = key
	sm.values.Bindings[string(opt.Action)] = key.String()
	input.Rebind(opt.Action, key)
}

func (sm *SettingsManager) applyOption(opt *SettingOption) {
	switch opt.Key {
	case "effectVolume":
		sm.values.EffectVolume = opt.Value
	case "bgmVolume":
		sm.values.BGMVolume = opt.Value
	case "fullscreen":
		sm.values.Fullscreen = opt.On
	case "textSpeed":
		sm.values.TextSpeed = opt.Choices[opt.Index]
	}
}

// ValueString は項目の現在値の表示文字列です。Kind に対して網羅的です。
func (opt *SettingOption) ValueString() string {
	switch opt.Kind {
	case SettingSlider:
		return fmt.Sprintf("%.0f%%", opt.Value*100)
	case SettingToggle:
		if opt.On {
			return "ON"
		}
		return "OFF"
	case SettingSelect:
		if len(opt.Choices) == 0 {
			return "-"
		}
		return opt.Choices[opt.Index]
	case SettingBinding:
		return opt.Bound.String()
	case SettingInfo:
		return opt.Text
	}
	return ""
}

func textSpeedIndex(speed string) int {
	switch speed {
	case "slow":
		return 0
	case "fast":
		return 2
	default:
		return 1
	}
}

// keyFromName は保存されたキー名を ebiten.Key に解決します。
func keyFromName(name string) (ebiten.Key, bool) {
	for key := ebiten.Key(0); key <= ebiten.KeyMax; key++ {
		if key.String() == name {
			return key, true
		}
	}
	return 0, false
}
