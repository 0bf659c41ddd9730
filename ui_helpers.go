package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// defaultFontFace は組み込みのビットマップフォントです。
// アセットのフォントが読み込めない環境でも描画できるようにしています。
func defaultFontFace() text.Face {
	return text.NewGoXFace(basicfont.Face7x13)
}

// drawTextLine は1行のテキストを描画します。
func drawTextLine(screen *ebiten.Image, face text.Face, str string, x, y float64) {
	opts := &text.DrawOptions{}
	opts.GeoM.Translate(x, y)
	text.Draw(screen, str, face, opts)
}

// drawMenuList は縦並びのメニューを描画し、選択行にカーソルを付けます。
func drawMenuList(screen *ebiten.Image, face text.Face, items []string, selected int, x, y float64) {
	for i, item := range items {
		prefix := "  "
		if i == selected {
			prefix = "> "
		}
		drawTextLine(screen, face, prefix+item, x, y+float64(i)*16)
	}
}

// drawGaugeBar は 0..1 の割合を横バーで描画します。
func drawGaugeBar(screen *ebiten.Image, x, y, width, height, ratio float64) {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	vector.StrokeRect(screen, float32(x), float32(y), float32(width), float32(height),
		1, color.RGBA{0x80, 0x80, 0x80, 0xff}, false)
	fill := color.RGBA{0x50, 0xc0, 0x50, 0xff}
	if ratio >= 1 {
		fill = color.RGBA{0xf0, 0xd0, 0x40, 0xff}
	}
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(width*ratio), float32(height), fill, false)
}

// wrapIndex はリスト内の選択を両方向にラップします。長さ0は -1 を返し、
// 剰余計算に入る前に短絡します。
func wrapIndex(i, length int) int {
	if length <= 0 {
		return -1
	}
	i %= length
	if i < 0 {
		i += length
	}
	return i
}
