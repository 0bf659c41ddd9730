package main

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	resource "github.com/quasilyte/ebitengine-resource"
	"go.uber.org/zap"
)

var placeholderRegex = regexp.MustCompile(`{(\w+)}`)

// MessageTemplate は messages.json の1エントリです。
type MessageTemplate struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MessageManager はローカライズ済みメッセージの検索と整形を担当します。
// 副作用は持たず、未知のキーは警告ログの上でキー自身を返します。
type MessageManager struct {
	messages map[string]string
	logger   *zap.SugaredLogger
}

// NewMessageManager はリソースローダーからメッセージテーブルを読み込みます。
func NewMessageManager(loader *resource.Loader, logger *zap.SugaredLogger) (*MessageManager, error) {
	mm := &MessageManager{
		messages: make(map[string]string),
		logger:   logger,
	}
	res := loader.LoadRaw(RawMessagesJSON)
	if res.Data == nil {
		return nil, fmt.Errorf("メッセージリソースの読み込みに失敗しました: data is nil")
	}
	if err := mm.loadFromJSON(res.Data); err != nil {
		return nil, err
	}
	return mm, nil
}

// NewMessageManagerFromJSON はテスト用にバイト列から直接構築します。
func NewMessageManagerFromJSON(data []byte, logger *zap.SugaredLogger) (*MessageManager, error) {
	mm := &MessageManager{
		messages: make(map[string]string),
		logger:   logger,
	}
	if err := mm.loadFromJSON(data); err != nil {
		return nil, err
	}
	return mm, nil
}

func (mm *MessageManager) loadFromJSON(data []byte) error {
	var templates []MessageTemplate
	if err := json.Unmarshal(data, &templates); err != nil {
		return fmt.Errorf("メッセージデータの解析に失敗しました: %w", err)
	}
	for _, t := range templates {
		mm.messages[t.ID] = t.Text
	}
	mm.logger.Infow("メッセージを読み込みました", "count", len(mm.messages))
	return nil
}

// Has は id のメッセージが存在するかを返します。
func (mm *MessageManager) Has(id string) bool {
	_, found := mm.messages[id]
	return found
}

// T はメッセージテンプレートを {key} プレースホルダ展開付きで整形します。
// 未知の ID は目立つようにそのまま返します。
func (mm *MessageManager) T(id string, params map[string]any) string {
	template, ok := mm.messages[id]
	if !ok {
		mm.logger.Warnw("未知のメッセージIDです", "id", id)
		return id
	}
	if len(params) == 0 {
		return template
	}
	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.Trim(match, "{}")
		if val, pOk := params[key]; pOk {
			return fmt.Sprintf("%v", val)
		}
		mm.logger.Warnw("メッセージのプレースホルダが未解決です", "id", id, "placeholder", match)
		return match
	})
}
