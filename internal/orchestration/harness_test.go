package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shopflow-ai/shopflow/internal/agent"
	"github.com/shopflow-ai/shopflow/pkg/llm"
	"github.com/shopflow-ai/shopflow/pkg/llm/provider"
)

// stageScript drives the mock client per stage, dispatching on the stage's
// system prompt, and records every invocation.
type stageScript struct {
	mu sync.Mutex

	outputs map[string]string
	errs    map[string]error
	hooks   map[string]func(ctx context.Context) error

	calls    map[string]int
	payloads map[string][]string
	systems  map[string][]string
}

func newStageScript() *stageScript {
	return &stageScript{
		outputs: map[string]string{
			"shopping": "shopping output",
			"catalog":  "catalog output",
			"service":  "service output",
			"payment":  "payment output",
		},
		errs:     map[string]error{},
		hooks:    map[string]func(ctx context.Context) error{},
		calls:    map[string]int{},
		payloads: map[string][]string{},
		systems:  map[string][]string{},
	}
}

func (s *stageScript) client() *provider.MockClient {
	c := provider.NewMockClient()
	c.ChatFunc = func(ctx context.Context, messages []llm.Message, _ llm.Options) (*llm.Response, error) {
		system := messages[0].Content
		stage := ""
		for _, name := range []string{"shopping", "catalog", "service", "payment", "router"} {
			if strings.HasPrefix(system, name+"-system") {
				stage = name
				break
			}
		}
		if stage == "" {
			return nil, fmt.Errorf("unknown stage for system prompt %q", system)
		}

		s.mu.Lock()
		s.calls[stage]++
		s.payloads[stage] = append(s.payloads[stage], messages[len(messages)-1].Content)
		s.systems[stage] = append(s.systems[stage], system)
		hook := s.hooks[stage]
		out, err := s.outputs[stage], s.errs[stage]
		s.mu.Unlock()

		if hook != nil {
			if hookErr := hook(ctx); hookErr != nil {
				return nil, hookErr
			}
		}
		if err != nil {
			return nil, err
		}
		return &llm.Response{Content: out, FinishReason: "stop"}, nil
	}
	return c
}

func (s *stageScript) callCount(stage string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[stage]
}

func (s *stageScript) lastPayload(stage string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.payloads[stage]) == 0 {
		return ""
	}
	return s.payloads[stage][len(s.payloads[stage])-1]
}

func (s *stageScript) lastSystem(stage string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.systems[stage]) == 0 {
		return ""
	}
	return s.systems[stage][len(s.systems[stage])-1]
}

func newTestStages(t *testing.T, client llm.Client) Stages {
	t.Helper()

	mk := func(name string, history bool) *agent.Stage {
		st, err := agent.NewStage(agent.StageDef{
			Name:            name,
			Role:            name,
			SystemPrompt:    name + "-system",
			RequiresHistory: history,
		}, client)
		require.NoError(t, err)
		return st
	}

	return Stages{
		Shopping:        mk("shopping", true),
		Catalog:         mk("catalog", false),
		CustomerService: mk("service", false),
		Payment:         mk("payment", false),
	}
}
