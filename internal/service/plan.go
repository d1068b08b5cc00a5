package service

import (
	"strings"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/adapter/imaging"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/adapter/llm"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

// plan is everything needed to run and record one chat turn.
type plan struct {
	route   domain.Route
	request llm.ChatCompletionRequest
	// userTurn is what gets stored for the user side of the exchange.
	userTurn string
	// imageReply routes the reply into image_response instead of text_response.
	imageReply bool
}

// buildPlan turns a classified request into a backend call. history must
// already be limited to the policy window; it is ignored for IMAGE_ONLY.
func (s *Service) buildPlan(route domain.Route, text string, upload *imaging.Upload, history []domain.Message, window int) plan {
	text = strings.TrimSpace(text)

	switch route {
	case domain.RouteImageOnly:
		return plan{
			route: route,
			request: s.request(s.config.ImageTemperature, s.config.ImageMaxTokens, []llm.ChatMessage{
				llm.TextMessage(llm.RoleSystem, s.prompts.ImageSystem),
				llm.ImageMessage(llm.RoleUser, s.prompts.ImageAnalysis, upload.DataURL()),
			}),
			userTurn:   domain.ImageMarker,
			imageReply: true,
		}
	case domain.RouteTextAndImage:
		current := llm.ImageMessage(llm.RoleUser, text, upload.DataURL())
		return plan{
			route:    route,
			request:  s.request(s.config.ImageTemperature, s.config.ImageMaxTokens, BuildWindow(s.prompts.TextSystem, history, window, current)),
			userTurn: text + " " + domain.ImageMarker,
		}
	default:
		current := llm.TextMessage(llm.RoleUser, text)
		return plan{
			route:    domain.RouteTextOnly,
			request:  s.request(s.config.TextTemperature, s.config.TextMaxTokens, BuildWindow(s.prompts.TextSystem, history, window, current)),
			userTurn: text,
		}
	}
}

func (s *Service) request(temperature float64, maxTokens int, messages []llm.ChatMessage) llm.ChatCompletionRequest {
	req := llm.ChatCompletionRequest{
		Model:    s.config.Model,
		Messages: messages,
	}
	if temperature > 0 {
		req.Temperature = &temperature
	}
	if maxTokens > 0 {
		req.MaxTokens = &maxTokens
	}
	return req
}
