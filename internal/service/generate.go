package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/adapter/llm"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/observability"
)

// Single-turn generation tasks. None of them read or write session history.
const (
	TaskCocktail       = "COCKTAIL"
	TaskRecipeCard     = "RECIPE_CARD"
	TaskRecommendation = "DRINK_RECOMMENDATION"
	TaskBrands         = "BRANDS"
	TaskAlcoholInfo    = "ALCOHOL_INFO"
)

const (
	cocktailMaxTokens       = 4000
	recipeCardMaxTokens     = 1200
	recommendationMaxTokens = 600
	alcoholInfoMaxTokens    = 800
	brandsTemperature       = 0.7
	alcoholInfoTemperature  = 0.7
)

// errUnparseable marks a reply that did not contain the requested JSON.
var errUnparseable = errors.New("reply is not valid JSON")

// Cocktail builds a structured recipe document from a bottle photo and a description.
func (s *Service) Cocktail(ctx context.Context, req domain.CocktailRequest) (domain.Cocktail, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" || !req.HasImage() {
		return nil, fmt.Errorf("%w: image and description are required", domain.ErrMissingInput)
	}

	upload, err := s.stage(ctx, domain.ChatRequest{Image: req.Image, ImageBase64: req.ImageBase64})
	if err != nil {
		return nil, s.countTask(ctx, TaskCocktail, err)
	}
	defer upload.Release()

	reply, err := s.generate(ctx, TaskCocktail, 0, cocktailMaxTokens,
		llm.ImageMessage(llm.RoleUser, cocktailPrompt(description), upload.DataURL()))
	if err != nil {
		return nil, err
	}

	raw, ok := extractJSON(reply, '{', '}')
	if !ok || !json.Valid([]byte(raw)) {
		return nil, s.countTask(ctx, TaskCocktail, fmt.Errorf("%w: %w", domain.ErrBackend, errUnparseable))
	}
	s.done(ctx, TaskCocktail)
	return domain.Cocktail(raw), nil
}

// RecipeCard returns a formatted text recipe for the pictured bottle.
func (s *Service) RecipeCard(ctx context.Context, image []byte, imageBase64 string) (string, error) {
	if len(image) == 0 && imageBase64 == "" {
		return "", fmt.Errorf("%w: image is required", domain.ErrMissingInput)
	}

	upload, err := s.stage(ctx, domain.ChatRequest{Image: image, ImageBase64: imageBase64})
	if err != nil {
		return "", s.countTask(ctx, TaskRecipeCard, err)
	}
	defer upload.Release()

	reply, err := s.generate(ctx, TaskRecipeCard, 0, recipeCardMaxTokens,
		llm.ImageMessage(llm.RoleUser, recipeCardPrompt, upload.DataURL()))
	if err != nil {
		return "", err
	}
	s.done(ctx, TaskRecipeCard)
	return reply, nil
}

// RecommendDrink suggests a local drink with food pairings for a mood, weather and place.
func (s *Service) RecommendDrink(ctx context.Context, q domain.DrinkQuery) (*domain.DrinkRecommendation, error) {
	q.Mood = strings.TrimSpace(q.Mood)
	q.Weather = strings.TrimSpace(q.Weather)
	q.Location = strings.TrimSpace(q.Location)
	for _, f := range []struct{ name, value string }{
		{"mood", q.Mood}, {"weather", q.Weather}, {"location", q.Location},
	} {
		if f.value == "" {
			return nil, fmt.Errorf("%w: missing or empty field: %s", domain.ErrMissingInput, f.name)
		}
	}

	reply, err := s.generate(ctx, TaskRecommendation, 0, recommendationMaxTokens,
		llm.TextMessage(llm.RoleSystem, recommendationSystem),
		llm.TextMessage(llm.RoleUser, recommendationPrompt(q)))
	if err != nil {
		return nil, err
	}

	var rec domain.DrinkRecommendation
	raw, ok := extractJSON(reply, '{', '}')
	if !ok || json.Unmarshal([]byte(raw), &rec) != nil || rec.Drink.Name == "" {
		return nil, s.countTask(ctx, TaskRecommendation, fmt.Errorf("%w: %w", domain.ErrBackend, errUnparseable))
	}

	rec.Drink.Image = stockImageURL(rec.Drink.Name)
	for i := range rec.FoodPairings {
		rec.FoodPairings[i].Image = stockImageURL(rec.FoodPairings[i].Name)
	}
	s.done(ctx, TaskRecommendation)
	return &rec, nil
}

// Brands lists popular alcohol brands for a location.
func (s *Service) Brands(ctx context.Context, location string) ([]domain.Brand, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: missing 'location' parameter", domain.ErrMissingInput)
	}

	reply, err := s.generate(ctx, TaskBrands, brandsTemperature, 0,
		llm.TextMessage(llm.RoleSystem, brandsSystem),
		llm.TextMessage(llm.RoleUser, brandsPrompt(location)))
	if err != nil {
		return nil, err
	}

	var brands []domain.Brand
	raw, ok := extractJSON(reply, '[', ']')
	if !ok || json.Unmarshal([]byte(raw), &brands) != nil || len(brands) == 0 {
		return nil, s.countTask(ctx, TaskBrands, fmt.Errorf("%w: %w", domain.ErrBackend, errUnparseable))
	}
	s.done(ctx, TaskBrands)
	return brands, nil
}

// AlcoholInfo returns a formatted brand sheet with a serving recipe.
func (s *Service) AlcoholInfo(ctx context.Context, brandName, description string) (string, error) {
	brandName = strings.TrimSpace(brandName)
	description = strings.TrimSpace(description)
	if brandName == "" || description == "" {
		return "", fmt.Errorf("%w: brand_name and description are required", domain.ErrMissingInput)
	}

	reply, err := s.generate(ctx, TaskAlcoholInfo, alcoholInfoTemperature, alcoholInfoMaxTokens,
		llm.TextMessage(llm.RoleSystem, alcoholInfoSystem),
		llm.TextMessage(llm.RoleUser, alcoholInfoPrompt(brandName, description)))
	if err != nil {
		return "", err
	}
	s.done(ctx, TaskAlcoholInfo)
	return reply, nil
}

// generate runs one backend call for task. Failures are counted and
// returned wrapped in domain.ErrBackend.
func (s *Service) generate(ctx context.Context, task string, temperature float64, maxTokens int, messages ...llm.ChatMessage) (string, error) {
	req := s.request(temperature, maxTokens, messages)

	start := time.Now()
	completion, err := s.llmClient.CreateChatCompletion(ctx, &req)
	s.metrics.BackendLatency.WithLabelValues(task).Observe(time.Since(start).Seconds())
	var reply string
	if err == nil {
		reply, err = completion.Reply()
	}
	if err != nil {
		return "", s.countTask(ctx, task, fmt.Errorf("%w: %w", domain.ErrBackend, err))
	}
	return reply, nil
}

// countTask records a failed task and returns err unchanged.
func (s *Service) countTask(ctx context.Context, task string, err error) error {
	outcome := domain.OutcomeFor(err)
	s.metrics.Generations.WithLabelValues(task, string(outcome)).Inc()
	observability.LoggerFromContext(ctx).Warn("generation failed", "task", task, "outcome", string(outcome), "error", err)
	return err
}

func (s *Service) done(ctx context.Context, task string) {
	s.metrics.Generations.WithLabelValues(task, string(domain.OutcomeOK)).Inc()
	observability.LoggerFromContext(ctx).Info("generation completed", "task", task)
}

// extractJSON returns the outermost first...last span of text, which lets
// replies wrapped in markdown fences or prose still parse.
func extractJSON(text string, first, last byte) (string, bool) {
	start := strings.IndexByte(text, first)
	end := strings.LastIndexByte(text, last)
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// stockImageURL points at a stock photo search for name.
func stockImageURL(name string) string {
	return "https://source.unsplash.com/featured/?" + url.PathEscape(name)
}
