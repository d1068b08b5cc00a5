package service

import (
	"github.com/google/uuid"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/adapter/imaging"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/adapter/llm"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/config"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/observability"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/repository"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/policy"
)

type Service struct {
	store        store.Store
	llmClient    llm.LLMClient
	stager       *imaging.Stager
	metrics      *observability.Metrics
	config       *config.Config
	policyEngine *policy.Engine
	prompts      Prompts
	newID        func() string
}

func New(store store.Store, llmClient llm.LLMClient, stager *imaging.Stager, metrics *observability.Metrics, cfg *config.Config, policyEngine *policy.Engine) *Service {
	return &Service{
		store:        store,
		llmClient:    llmClient,
		stager:       stager,
		metrics:      metrics,
		config:       cfg,
		policyEngine: policyEngine,
		prompts:      DefaultPrompts(),
		newID:        uuid.NewString,
	}
}

// SetPrompts replaces the instructions sent to the backend.
func (s *Service) SetPrompts(p Prompts) {
	s.prompts = p
}
