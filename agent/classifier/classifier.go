// Package classifier adapts the LLM into the intent contract. The classifier
// is the only component allowed to see the model's raw output; everything
// past this boundary works with the validated Intent type.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	contractx "github.com/grubgather/grubgather/agent/contract"
	promptx "github.com/grubgather/grubgather/agent/prompt"
	logx "github.com/grubgather/grubgather/pkg/logger"
	openrouterx "github.com/grubgather/grubgather/pkg/openrouter"
)

// classifierLLMOutput mirrors the JSON shape the prompt demands.
type classifierLLMOutput struct {
	Intent     string   `json:"intent"`
	Items      []string `json:"items,omitempty"`
	Restaurant string   `json:"restaurant,omitempty"`
	Location   string   `json:"location,omitempty"`
}

type Service struct {
	runner compose.Runnable[map[string]any, classifierLLMOutput]
	log    zerolog.Logger
}

var _ contractx.Classifier = (*Service)(nil)

func New(ctx context.Context, builder openrouterx.LLMBuilder) (*Service, error) {
	chatModel, err := builder.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create classifier model: %v", contractx.ErrModelInvoke, err)
	}

	runner, err := compileStructuredLLMGraph[classifierLLMOutput](
		ctx, chatModel, promptx.LoadPromptSet().Classifier, "classifier.model_graph",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: compile classifier graph: %v", contractx.ErrModelInvoke, err)
	}

	return &Service{
		runner: runner,
		log:    logx.Component("classifier"),
	}, nil
}

// Classify never fails past this boundary: invoke errors, malformed JSON and
// unknown labels all degrade to IntentUnknown. No retries here; the caller
// owns retry policy.
func (s *Service) Classify(ctx context.Context, text string) contractx.Intent {
	out, err := s.runner.Invoke(ctx, map[string]any{
		"input": text,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("classification downgraded to UNKNOWN")
		return contractx.Intent{Type: contractx.IntentUnknown}
	}
	return normalize(out)
}

func normalize(out classifierLLMOutput) contractx.Intent {
	intent := contractx.Intent{
		Type:       contractx.ParseIntentType(out.Intent),
		Restaurant: strings.TrimSpace(out.Restaurant),
		Location:   strings.TrimSpace(out.Location),
	}

	// Items are only meaningful on ORDER.
	if intent.Type == contractx.IntentOrder {
		for _, item := range out.Items {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				intent.Items = append(intent.Items, trimmed)
			}
		}
	}

	return intent
}
