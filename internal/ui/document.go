package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

var documentPhrases = []string{
	"The quick brown fox jumps over the lazy dog.",
	"スクロールの方向と速度を追跡します。",
	"Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
	"滚动位置每次变化都会被采样。",
	"Pack my box with five dozen liquor jugs.",
	"스크롤 속도는 밀리초당 단위로 표시됩니다.",
}

// generateDocument builds a sample document of n lines. Every fifth line is long
// enough to need horizontal scrolling.
func generateDocument(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		phrase := documentPhrases[i%len(documentPhrases)]
		repeat := 1
		if i%5 == 0 {
			repeat = 6
		}
		lines[i] = fmt.Sprintf("%4d │ %s", i+1, strings.TrimSpace(strings.Repeat(phrase+" ", repeat)))
	}
	return lines
}

// maxLineWidth returns the display width of the widest line
func maxLineWidth(lines []string) int {
	widest := 0
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > widest {
			widest = w
		}
	}
	return widest
}

// cutLine returns the part of line that is visible when the view is scrolled
// offset columns to the right and is width columns wide. A wide rune split by the
// left edge is replaced by spaces.
func cutLine(line string, offset, width int) string {
	if width <= 0 {
		return ""
	}

	var b strings.Builder
	col := 0
	for _, r := range line {
		w := runewidth.RuneWidth(r)
		switch {
		case col >= offset:
			b.WriteRune(r)
		case col+w > offset:
			b.WriteString(strings.Repeat(" ", col+w-offset))
		}
		col += w
	}
	return runewidth.Truncate(b.String(), width, "")
}

// cutLines applies cutLine to every line
func cutLines(lines []string, offset, width int) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = cutLine(line, offset, width)
	}
	return strings.Join(out, "\n")
}
