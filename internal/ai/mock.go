package ai

import (
	"context"
	"fmt"
	"strings"
)

// mockDriver answers without calling any service, for local runs and demos.
// Title requests get a single line, everything else a bullet list.
type mockDriver struct{}

func (mockDriver) complete(_ context.Context, p Prompt) (string, Usage, error) {
	var user string
	if n := len(p.Messages); n > 0 {
		user = p.Messages[n-1].Content
	}
	subject := quoted(user)
	if subject == "" {
		subject = "the topic"
	}

	if strings.Contains(strings.ToLower(user), "bullet") {
		var sb strings.Builder
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(&sb, "- Key point %d about %s\n", i, subject)
		}
		return sb.String(), Usage{}, nil
	}
	return fmt.Sprintf("A closer look at %s (%d)", subject, len(p.Messages)), Usage{}, nil
}

// quoted returns the first single-quoted span of s.
func quoted(s string) string {
	start := strings.Index(s, "'")
	if start < 0 {
		return ""
	}
	end := strings.Index(s[start+1:], "'")
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}
