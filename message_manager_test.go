package main

import "testing"

const testMessagesJSON = `[
	{"id": "battle.damage", "text": "{name}に{amount}のダメージ！"},
	{"id": "menu.title", "text": "スピリットゲート"},
	{"id": "loot.item", "text": "{name}を手に入れた"}
]`

func newTestMessages(t *testing.T) *MessageManager {
	t.Helper()
	mm, err := NewMessageManagerFromJSON([]byte(testMessagesJSON), NewTestLogger())
	if err != nil {
		t.Fatalf("NewMessageManagerFromJSON: %v", err)
	}
	return mm
}

func TestMessageInterpolation(t *testing.T) {
	mm := newTestMessages(t)
	tests := []struct {
		name   string
		id     string
		params map[string]any
		want   string
	}{
		{"複数パラメータ", "battle.damage",
			map[string]any{"name": "コビト", "amount": 12}, "コビトに12のダメージ！"},
		{"パラメータなし", "menu.title", nil, "スピリットゲート"},
		{"未解決プレースホルダは残す", "loot.item",
			map[string]any{"other": 1}, "{name}を手に入れた"},
		{"未知のIDはIDを返す", "no.such.id", nil, "no.such.id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mm.T(tt.id, tt.params); got != tt.want {
				t.Errorf("T(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestMessageHas(t *testing.T) {
	mm := newTestMessages(t)
	if !mm.Has("menu.title") {
		t.Error("Has(menu.title) = false")
	}
	if mm.Has("no.such.id") {
		t.Error("Has(no.such.id) = true")
	}
}

func TestMessageInvalidJSON(t *testing.T) {
	if _, err := NewMessageManagerFromJSON([]byte(`{not json`), NewTestLogger()); err == nil {
		t.Error("不正なJSONでエラーになりません")
	}
}
