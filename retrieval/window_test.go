package retrieval

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBuildWindow(t *testing.T) {
	tests := []struct {
		name      string
		full      string
		snippet   string
		size      int
		wantOK    bool
		wantPrev  string
		wantNext  string
		wantStart int
		wantEnd   int
	}{
		{
			name: "centered", full: "one two three four five", snippet: "three", size: 10,
			wantOK: true, wantPrev: "two", wantNext: "four", wantStart: 3, wantEnd: 18,
		},
		{
			name: "clipped at both ends", full: "short text", snippet: "short", size: 100,
			wantOK: true, wantPrev: "", wantNext: "text", wantStart: 0, wantEnd: 10,
		},
		{
			name: "multibyte positions are runes", full: "héllo wörld", snippet: "wörld", size: 6,
			wantOK: true, wantPrev: "lo", wantNext: "", wantStart: 3, wantEnd: 11,
		},
		{
			name: "first occurrence", full: "ab ab ab", snippet: "ab", size: 2,
			wantOK: true, wantPrev: "", wantNext: "", wantStart: 0, wantEnd: 3,
		},
		{name: "missing snippet", full: "hello", snippet: "bye", size: 10},
		{name: "empty snippet", full: "hello", snippet: "   ", size: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := BuildWindow(tt.full, tt.snippet, tt.size)
			assert.Equal(t, tt.wantOK, ok)
			if !ok {
				assert.True(t, w.IsEmpty())
				return
			}
			assert.Equal(t, tt.wantPrev, w.Previous)
			assert.Equal(t, tt.wantNext, w.Next)
			assert.Equal(t, tt.wantStart, w.StartPos)
			assert.Equal(t, tt.wantEnd, w.EndPos)
		})
	}
}

func TestConfig_WindowSize(t *testing.T) {
	assert.Equal(t, 2400, DefaultConfig().WindowSize())
}

func TestBuildWindow_BoundsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		full := rapid.StringOfN(rapid.RuneFrom([]rune("abc é\n")), 1, 200, -1).Draw(t, "full")
		runes := []rune(full)
		from := rapid.IntRange(0, len(runes)-1).Draw(t, "from")
		to := rapid.IntRange(from+1, len(runes)).Draw(t, "to")
		snippet := string(runes[from:to])
		size := rapid.IntRange(0, 400).Draw(t, "size")

		w, ok := BuildWindow(full, snippet, size)
		if strings.TrimSpace(snippet) == "" {
			if ok {
				t.Fatalf("blank snippet must not match")
			}
			return
		}
		if !ok {
			t.Fatalf("snippet %q taken from %q not found", snippet, full)
		}
		if w.StartPos < 0 {
			t.Fatalf("start_pos %d < 0", w.StartPos)
		}
		if w.EndPos > utf8.RuneCountInString(full) {
			t.Fatalf("end_pos %d > %d", w.EndPos, utf8.RuneCountInString(full))
		}
		if w.StartPos > w.EndPos {
			t.Fatalf("start_pos %d > end_pos %d", w.StartPos, w.EndPos)
		}
	})
}
