package service

import (
	"strings"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

// Classify picks the handling route from which inputs are present.
// Whitespace-only text counts as absent.
func Classify(req domain.ChatRequest) domain.Route {
	hasText := strings.TrimSpace(req.Text) != ""
	hasImage := req.HasImage()

	switch {
	case hasText && hasImage:
		return domain.RouteTextAndImage
	case hasImage:
		return domain.RouteImageOnly
	case hasText:
		return domain.RouteTextOnly
	default:
		return domain.RouteInvalid
	}
}
