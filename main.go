package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/joho/godotenv"
	"github.com/noppikinatta/bamenn"
)

func main() {
	// .env があれば環境変数を重ねます（保存先ディレクトリの上書き用）。
	_ = godotenv.Load()

	cfg, cfgErr := LoadConfig("config.yaml")
	logger := NewLogger(cfg.Log.Level, cfg.Log.File, true)
	defer logger.Sync()
	if cfgErr != nil {
		logger.Warnw("設定の読み込みに問題がありました。デフォルトで続行します", "error", cfgErr)
	}
	if dir := os.Getenv("SPIRITGATE_SAVE_DIR"); dir != "" {
		cfg.Paths.SaveDir = dir
	}

	audioContext := audio.NewContext(cfg.Audio.SampleRate)
	loader, audioIDs := initResources(audioContext, &cfg, logger)

	messages, err := NewMessageManager(loader, logger)
	if err != nil {
		logger.Fatalw("メッセージテーブルの読み込みに失敗しました", "error", err)
	}
	gameData, err := NewGameDataManager(loader, messages)
	if err != nil {
		logger.Fatalw("静的ゲームデータの読み込みに失敗しました", "error", err)
	}
	saves, err := NewSaveManager(cfg.Paths.SaveDir, logger)
	if err != nil {
		logger.Fatalw("セーブディレクトリを用意できません", "dir", cfg.Paths.SaveDir, "error", err)
	}

	input := NewInputManager()
	settings := NewSettingsManager(cfg.Paths.SettingsFile, logger)
	settings.ApplyBindings(input)

	scripts := NewDialogueScriptEngine(cfg.Paths.Scripts, logger)
	watcher, err := NewScriptWatcher(cfg.Paths.Scripts, scripts, logger)
	if err != nil {
		logger.Warnw("スクリプト監視を開始できません。ホットリロードなしで続行します", "error", err)
	} else {
		defer watcher.Close()
	}

	res := &SharedResources{
		Config:   &cfg,
		Logger:   logger,
		Loader:   loader,
		GameData: gameData,
		Messages: messages,
		Audio:    NewAudioManager(loader, audioIDs, logger),
		Saves:    saves,
		Settings: settings,
		Input:    input,
		Scripts:  scripts,
		Party:    NewPartyData(),
		Font:     defaultFontFace(),
		Rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	machine := NewGameStateManager(logger)
	scene := NewGameScene(res, machine)

	ebiten.SetWindowSize(cfg.Screen.Width, cfg.Screen.Height)
	ebiten.SetWindowTitle("Spirit Gate")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	// bamenn のシーケンスに載せて実行します。
	if err := ebiten.RunGame(bamenn.NewSequence(scene)); err != nil {
		logger.Fatalw("ゲームループが異常終了しました", "error", err)
	}
}
