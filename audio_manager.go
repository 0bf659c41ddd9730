package main

import (
	"strings"

	resource "github.com/quasilyte/ebitengine-resource"
	"go.uber.org/zap"
)

// AudioPlayer は各状態が消費する fire-and-forget の音声契約です。
// 実体が無い環境（テスト・音声アセット欠落）では nil 安全に無音で縮退します。
type AudioPlayer interface {
	PlayEffect(name string)
	PlayBGM(name string)
	StopAmbience()
	ResumeBGM()
}

// AudioManager はリソースローダー経由で効果音とBGMを再生します。
type AudioManager struct {
	loader  *resource.Loader
	ids     map[string]resource.AudioID
	bgm     resource.AudioID
	hasBGM  bool
	logger  *zap.SugaredLogger
}

// NewAudioManager は登録済みの音声IDテーブルからマネージャを生成します。
func NewAudioManager(loader *resource.Loader, ids map[string]resource.AudioID, logger *zap.SugaredLogger) *AudioManager {
	return &AudioManager{loader: loader, ids: ids, logger: logger}
}

// PlayEffect は効果音を再生します。未登録の名前は無視されます。
func (am *AudioManager) PlayEffect(name string) {
	if am == nil || am.loader == nil {
		return
	}
	id, ok := am.ids[name]
	if !ok {
		return
	}
	wav := am.loader.LoadWAV(id)
	if wav.Player == nil {
		return
	}
	if err := wav.Player.Rewind(); err != nil {
		am.logger.Debugw("効果音の巻き戻しに失敗しました", "name", name, "error", err)
		return
	}
	wav.Player.Play()
}

// PlayBGM は BGM をループ再生します。同じ曲の再指定は無視されます。
func (am *AudioManager) PlayBGM(name string) {
	if am == nil || am.loader == nil {
		return
	}
	id, ok := am.ids[name]
	if !ok || !strings.HasPrefix(name, "bgm_") {
		return
	}
	if am.hasBGM && am.bgm == id {
		return
	}
	am.StopAmbience()
	ogg := am.loader.LoadOGG(id)
	if ogg.Player == nil {
		return
	}
	ogg.Player.Play()
	am.bgm = id
	am.hasBGM = true
}

// StopAmbience は再生中の BGM を停止します。
func (am *AudioManager) StopAmbience() {
	if am == nil || am.loader == nil || !am.hasBGM {
		return
	}
	ogg := am.loader.LoadOGG(am.bgm)
	if ogg.Player != nil {
		ogg.Player.Pause()
	}
}

// ResumeBGM は停止中の BGM を再開します。
func (am *AudioManager) ResumeBGM() {
	if am == nil || am.loader == nil || !am.hasBGM {
		return
	}
	ogg := am.loader.LoadOGG(am.bgm)
	if ogg.Player != nil && !ogg.Player.IsPlaying() {
		ogg.Player.Play()
	}
}

// NopAudio は音声が無効なときに使う無音プレイヤーです。
type NopAudio struct{}

func (NopAudio) PlayEffect(string) {}
func (NopAudio) PlayBGM(string)    {}
func (NopAudio) StopAmbience()     {}
func (NopAudio) ResumeBGM()        {}
