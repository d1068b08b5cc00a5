package service

import (
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/adapter/llm"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

// BuildWindow assembles the backend message list: the optional system
// message, the last k stored messages oldest first, then current.
func BuildWindow(system string, history []domain.Message, k int, current llm.ChatMessage) []llm.ChatMessage {
	if k < 0 {
		k = 0
	}
	if len(history) > k {
		history = history[len(history)-k:]
	}

	out := make([]llm.ChatMessage, 0, len(history)+2)
	if system != "" {
		out = append(out, llm.TextMessage(llm.RoleSystem, system))
	}
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == domain.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.TextMessage(role, m.Content))
	}
	return append(out, current)
}
