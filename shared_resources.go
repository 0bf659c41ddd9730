package main

import (
	"math/rand"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	resource "github.com/quasilyte/ebitengine-resource"
	"go.uber.org/zap"
)

// SharedResources は全状態が共有する依存関係の束です。
// グローバル変数の代わりに、起動時に一度組み立てて各状態へ注入します。
type SharedResources struct {
	Config   *Config
	Logger   *zap.SugaredLogger
	Loader   *resource.Loader
	GameData *GameDataManager
	Messages *MessageManager
	Audio    AudioPlayer
	Saves    *SaveManager
	Settings *SettingsManager
	Input    *InputManager
	Scripts  *DialogueScriptEngine
	Party    *PartyData
	Font     text.Face
	Rand     *rand.Rand
}
