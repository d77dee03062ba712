// Package shopflow wires the shopping pipeline: configuration, LLM client,
// agent stages, classifier, and orchestrator.
package shopflow

import (
	"fmt"

	"github.com/shopflow-ai/shopflow/internal/agent"
	"github.com/shopflow-ai/shopflow/internal/memory"
	"github.com/shopflow-ai/shopflow/internal/orchestration"
	"github.com/shopflow-ai/shopflow/internal/prompts"
	"github.com/shopflow-ai/shopflow/pkg/config"
	"github.com/shopflow-ai/shopflow/pkg/llm"
	"github.com/shopflow-ai/shopflow/pkg/llm/provider"
)

// NewClient creates the LLM client selected by the configuration.
func NewClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.Provider.Name {
	case "", "openai":
		return provider.NewOpenAIClient(provider.OpenAIConfig{
			APIKey:            cfg.Provider.APIKey,
			BaseURL:           cfg.Provider.BaseURL,
			Model:             cfg.Provider.Model,
			Temperature:       cfg.Provider.Temperature,
			RequestTimeout:    cfg.RequestTimeout(),
			RequestsPerSecond: cfg.Provider.RequestsPerSecond,
			Burst:             cfg.Provider.Burst,
		})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider.Name)
	}
}

// BuildStages creates the four agent stages, applying any per-role prompt
// or model overrides from the configuration.
func BuildStages(cfg *config.Config, client llm.Client) (orchestration.Stages, error) {
	defs := []struct {
		def      agent.StageDef
		override config.AgentConfig
		target   func(*orchestration.Stages, *agent.Stage)
	}{
		{
			def: agent.StageDef{
				Name:            "shopping",
				Role:            "shopping-assistant",
				SystemPrompt:    prompts.Shopping,
				RequiresHistory: true,
			},
			override: cfg.Agents.Shopping,
			target:   func(s *orchestration.Stages, st *agent.Stage) { s.Shopping = st },
		},
		{
			def: agent.StageDef{
				Name:         "catalog",
				Role:         "catalog-manager",
				SystemPrompt: prompts.Catalog,
			},
			override: cfg.Agents.Catalog,
			target:   func(s *orchestration.Stages, st *agent.Stage) { s.Catalog = st },
		},
		{
			def: agent.StageDef{
				Name:         "customer-service",
				Role:         "customer-service",
				SystemPrompt: prompts.CustomerService,
			},
			override: cfg.Agents.CustomerService,
			target:   func(s *orchestration.Stages, st *agent.Stage) { s.CustomerService = st },
		},
		{
			def: agent.StageDef{
				Name:         "payment",
				Role:         "payment-processor",
				SystemPrompt: prompts.Payment,
			},
			override: cfg.Agents.Payment,
			target:   func(s *orchestration.Stages, st *agent.Stage) { s.Payment = st },
		},
	}

	var stages orchestration.Stages
	for _, d := range defs {
		if d.override.Prompt != "" {
			d.def.SystemPrompt = d.override.Prompt
		}
		if d.override.Model != "" {
			d.def.Model = d.override.Model
		}
		st, err := agent.NewStage(d.def, client)
		if err != nil {
			return orchestration.Stages{}, err
		}
		d.target(&stages, st)
	}
	return stages, nil
}

// BuildClassifier creates the configured branch classifier.
func BuildClassifier(cfg *config.Config, client llm.Client) (orchestration.Classifier, error) {
	switch cfg.Orchestration.Classifier {
	case "", config.ClassifierSentinel:
		return orchestration.SentinelClassifier{}, nil
	case config.ClassifierRouter:
		return orchestration.NewRouterClassifier(client, prompts.Router, cfg.Provider.Model)
	default:
		return nil, fmt.Errorf("unknown classifier %q", cfg.Orchestration.Classifier)
	}
}

// BuildOrchestrator assembles the configured orchestration mode over the
// given client and memory store.
func BuildOrchestrator(cfg *config.Config, client llm.Client, store *memory.Store, opts ...orchestration.Option) (orchestration.Orchestrator, error) {
	stages, err := BuildStages(cfg, client)
	if err != nil {
		return nil, err
	}
	classifier, err := BuildClassifier(cfg, client)
	if err != nil {
		return nil, err
	}

	opts = append([]orchestration.Option{orchestration.WithStageTimeout(cfg.StageTimeout())}, opts...)

	switch cfg.Orchestration.Mode {
	case "", config.ModeConcurrent:
		return orchestration.NewConcurrent(stages, classifier, store, opts...)
	case config.ModeSequential:
		return orchestration.NewSequential(stages, classifier, store, opts...)
	default:
		return nil, fmt.Errorf("unknown orchestration mode %q", cfg.Orchestration.Mode)
	}
}
