package main

import "testing"

func TestWrapIndex(t *testing.T) {
	tests := []struct {
		name   string
		i      int
		length int
		want   int
	}{
		{"範囲内", 1, 3, 1},
		{"末尾から先頭へ", 3, 3, 0},
		{"先頭から末尾へ", -1, 3, 2},
		{"大きな負数", -4, 3, 2},
		{"長さ1", 5, 1, 0},
		{"長さ0", 0, 0, -1},
		{"負の長さ", 2, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapIndex(tt.i, tt.length); got != tt.want {
				t.Errorf("wrapIndex(%d, %d) = %d, want %d", tt.i, tt.length, got, tt.want)
			}
		})
	}
}
