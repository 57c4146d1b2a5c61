package deck

import (
	"fmt"
	"strings"

	"github.com/gnemet/DeckForge/internal/ai"
)

const systemPrompt = "You are a helpful assistant that writes concise presentation slides."

// historyMessages replays the last window slides as user/assistant pairs.
func historyMessages(req GenerationRequest, window int) []ai.Message {
	history := lastN(req.History, window)
	offset := len(req.History) - len(history)

	msgs := make([]ai.Message, 0, 2*len(history)+1)
	for i, text := range history {
		msgs = append(msgs,
			ai.Message{Role: ai.RoleUser, Content: fmt.Sprintf("Write slide %d of a presentation on '%s'.", offset+i+1, req.Topic)},
			ai.Message{Role: ai.RoleAssistant, Content: text},
		)
	}
	return msgs
}

func titlePrompt(req GenerationRequest, previousTitles []string, window int) ai.Prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a concise title that introduces a new aspect of '%s', without numbering", req.Topic)
	if recent := lastN(previousTitles, window); len(recent) > 0 {
		fmt.Fprintf(&sb, ", considering previous topics: %s", strings.Join(recent, "; "))
	}
	sb.WriteString(". Reply with the title only and do not prefix it with a slide number.")

	msgs := historyMessages(req, window)
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: sb.String()})
	return ai.Prompt{System: systemPrompt, Messages: msgs}
}

func bulletPrompt(req GenerationRequest, title string, opts Options) ai.Prompt {
	user := fmt.Sprintf("Provide a concise summary in %d bullet points, each with no more than %d words, "+
		"explaining the key aspects of '%s' relevant to the theme '%s'. "+
		"Start every bullet point on its own line with '- '.",
		opts.MaxBullets, opts.MaxWordsPerBullet, title, req.Topic)

	msgs := historyMessages(req, opts.HistoryWindow)
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: user})
	return ai.Prompt{System: systemPrompt, Messages: msgs}
}

func lastN(list []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(list) > n {
		return list[len(list)-n:]
	}
	return list
}
