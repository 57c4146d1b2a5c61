package deck

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	slideNumberPrefix = regexp.MustCompile(`(?i)^slide\s*\d+\s*[:.\-]?\s*`)
	headingMarker     = regexp.MustCompile(`^#{1,6}\s+`)
)

// quotePairs are the wrappers removed when they enclose the whole title.
var quotePairs = [][2]string{
	{"**", "**"}, {`"`, `"`}, {"'", "'"}, {"`", "`"}, {"“", "”"}, {"‘", "’"},
}

// cleanTitle keeps the first non-empty line and drops a markdown heading
// marker, enclosing quotes or bold markers and any "Slide N:" prefix.
// Characters that belong to the title itself are kept.
func cleanTitle(raw string) string {
	var title string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			title = line
			break
		}
	}
	title = headingMarker.ReplaceAllString(title, "")
	title = unwrap(title)
	title = strings.TrimSpace(slideNumberPrefix.ReplaceAllString(title, ""))
	return unwrap(title)
}

// unwrap strips matching wrappers that enclose the whole string. A wrapper
// that also appears inside, as in `"A" or "B"`, is left alone.
func unwrap(s string) string {
	for changed := true; changed; {
		changed = false
		for _, q := range quotePairs {
			if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
				inner := strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
				if inner == "" || strings.Contains(inner, q[1]) {
					continue
				}
				s, changed = inner, true
				break
			}
		}
	}
	return s
}

// clipTitle cuts titles longer than max characters at the last whole word and appends "...".
func clipTitle(title string, max int) string {
	if max <= 0 || utf8.RuneCountInString(title) <= max {
		return title
	}
	cut := string([]rune(title)[:max])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-") + "..."
}

// parseBullets keeps only lines starting with a bullet marker, strips the marker,
// clips each bullet to maxWords words and the list to maxBullets entries.
func parseBullets(raw string, maxBullets, maxWords int) []string {
	var bullets []string
	for _, line := range strings.Split(raw, "\n") {
		text, ok := stripBulletMarker(strings.TrimSpace(line))
		if !ok {
			continue
		}
		text = clipWords(text, maxWords)
		if text == "" {
			continue
		}
		bullets = append(bullets, text)
		if maxBullets > 0 && len(bullets) == maxBullets {
			break
		}
	}
	return bullets
}

// stripBulletMarker accepts a marker only when whitespace follows it, so
// "**bold**" or "-5 degrees" are not bullets.
func stripBulletMarker(line string) (string, bool) {
	for _, marker := range []string{"-", "*", "•", "–"} {
		rest, ok := strings.CutPrefix(line, marker)
		if !ok {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(rest); !unicode.IsSpace(r) {
			return "", false
		}
		return strings.TrimSpace(rest), true
	}
	return "", false
}

func clipWords(s string, max int) string {
	words := strings.Fields(s)
	if max > 0 && len(words) > max {
		words = words[:max]
	}
	return strings.Join(words, " ")
}
