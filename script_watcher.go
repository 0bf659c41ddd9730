package main

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ScriptWatcher はダイアログスクリプトの変更を監視し、変更されたスクリプトの
// コンパイル済みキャッシュを無効化します。開発モード専用です。
type ScriptWatcher struct {
	watcher *fsnotify.Watcher
	engine  *DialogueScriptEngine
	logger  *zap.SugaredLogger
	closeCh chan struct{}
	once    sync.Once
}

// NewScriptWatcher は dir の監視を開始します。
func NewScriptWatcher(dir string, engine *DialogueScriptEngine, logger *zap.SugaredLogger) (*ScriptWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}
	sw := &ScriptWatcher{
		watcher: w,
		engine:  engine,
		logger:  logger,
		closeCh: make(chan struct{}),
	}
	go sw.run()
	return sw, nil
}

// Close は監視を停止します。
func (sw *ScriptWatcher) Close() error {
	var err error
	sw.once.Do(func() {
		close(sw.closeCh)
		err = sw.watcher.Close()
	})
	return err
}

func (sw *ScriptWatcher) run() {
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".tengo") {
				continue
			}
			// エディタの連続書き込みをデバウンスします。
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < 100*time.Millisecond {
				continue
			}
			last[event.Name] = now

			name := strings.TrimSuffix(filepath.Base(event.Name), ".tengo")
			sw.engine.Invalidate(name)
			sw.logger.Infow("ダイアログスクリプトを再読み込み対象にしました", "script", name)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.Warnw("スクリプト監視でエラーが発生しました", "error", err)
		case <-sw.closeCh:
			return
		}
	}
}
