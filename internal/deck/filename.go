package deck

import (
	"strings"
	"unicode"
)

const fileExt = ".pptx"

// FileName derives the output file name from the topic. Topics made only of
// letters, digits and whitespace become the words concatenated; anything else,
// or a topic that sanitizes to nothing, gets a generated unique name.
func FileName(topic string, newID func() string) string {
	if topic != "" && plainTopic(topic) {
		if name := Sanitize(topic); name != "" {
			return name + fileExt
		}
	}
	return newID() + fileExt
}

// Sanitize drops every rune that is not a letter or digit.
func Sanitize(topic string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, topic)
}

func plainTopic(topic string) bool {
	for _, r := range topic {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
