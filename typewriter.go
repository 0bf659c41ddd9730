package main

import (
	"regexp"
	"strings"
)

// markupRegex は表示文字数に数えない HTML サブセットのタグです。
var markupRegex = regexp.MustCompile(`</?b>|</?i>|<color=#[0-9a-fA-F]{3,8}>|</color>`)

// typewriterToken はタグ（幅0）か1文字（幅1）のどちらかです。
type typewriterToken struct {
	text  string
	isTag bool
}

// Typewriter はダイアログのタイプライター表示を管理します。
// タグは表示文字数に数えず、ラグの出たフレームでも一度に表示される
// 文字数には上限があります。
type Typewriter struct {
	tokens       []typewriterToken
	totalVisible int

	revealed   int     // 表示済みの可視文字数
	fractional float64 // 次の1文字までの蓄積

	charsPerSecond    float64
	maxRevealPerFrame int
}

// NewTypewriter はメッセージを解析してタイプライターを生成します。
func NewTypewriter(message string, charsPerSecond float64, maxRevealPerFrame int) *Typewriter {
	tw := &Typewriter{
		charsPerSecond:    charsPerSecond,
		maxRevealPerFrame: maxRevealPerFrame,
	}
	if tw.maxRevealPerFrame < 1 {
		tw.maxRevealPerFrame = 1
	}
	tw.tokens = tokenizeMarkup(message)
	for _, tok := range tw.tokens {
		if !tok.isTag {
			tw.totalVisible++
		}
	}
	return tw
}

func tokenizeMarkup(message string) []typewriterToken {
	var tokens []typewriterToken
	rest := message
	for len(rest) > 0 {
		loc := markupRegex.FindStringIndex(rest)
		if loc == nil {
			for _, r := range rest {
				tokens = append(tokens, typewriterToken{text: string(r)})
			}
			break
		}
		for _, r := range rest[:loc[0]] {
			tokens = append(tokens, typewriterToken{text: string(r)})
		}
		tokens = append(tokens, typewriterToken{text: rest[loc[0]:loc[1]], isTag: true})
		rest = rest[loc[1]:]
	}
	return tokens
}

// Update は経過時間ぶんの文字を表示します。1フレームで表示される文字数は
// maxRevealPerFrame を超えません（ラグ時の一括表示防止）。
func (tw *Typewriter) Update(dt float64) {
	if tw.Done() {
		return
	}
	tw.fractional += tw.charsPerSecond * dt
	step := int(tw.fractional)
	if step > tw.maxRevealPerFrame {
		step = tw.maxRevealPerFrame
		tw.fractional = 0
	} else {
		tw.fractional -= float64(step)
	}
	tw.revealed += step
	if tw.revealed > tw.totalVisible {
		tw.revealed = tw.totalVisible
	}
}

// RevealAll は残りの文字をすべて表示します（表示中の決定ボタン）。
func (tw *Typewriter) RevealAll() {
	tw.revealed = tw.totalVisible
	tw.fractional = 0
}

// Done は全可視文字が表示済みかを返します。
func (tw *Typewriter) Done() bool {
	return tw.revealed >= tw.totalVisible
}

// RevealedCount は表示済みの可視文字数です。
func (tw *Typewriter) RevealedCount() int {
	return tw.revealed
}

// TotalVisible はタグを除いた総文字数です。
func (tw *Typewriter) TotalVisible() int {
	return tw.totalVisible
}

// Revealed はタグを保ったまま、表示済み部分までの文字列を返します。
// 表示位置より手前のタグはすべて含まれます。
func (tw *Typewriter) Revealed() string {
	var b strings.Builder
	visible := 0
	for _, tok := range tw.tokens {
		if tok.isTag {
			b.WriteString(tok.text)
			continue
		}
		if visible >= tw.revealed {
			break
		}
		b.WriteString(tok.text)
		visible++
	}
	return b.String()
}

// PlainRevealed はタグを取り除いた表示済み文字列を返します。
// 簡易レンダラ向けです。
func (tw *Typewriter) PlainRevealed() string {
	return markupRegex.ReplaceAllString(tw.Revealed(), "")
}
