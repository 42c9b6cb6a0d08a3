// Package restaurant resolves a spoken restaurant name to its online
// ordering page. Known restaurants hit a static catalog; everything else is
// a best-effort model lookup that degrades to not-found.
package restaurant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog"

	contractx "github.com/grubgather/grubgather/agent/contract"
	promptx "github.com/grubgather/grubgather/agent/prompt"
	logx "github.com/grubgather/grubgather/pkg/logger"
)

type resolverLLMOutput struct {
	Found bool   `json:"found"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

type Resolver struct {
	client  *openaisdk.Client
	model   string
	catalog map[string]contractx.RestaurantInfo
	log     zerolog.Logger
}

var _ contractx.Resolver = (*Resolver)(nil)

// defaultCatalog covers restaurants the group orders from often enough that
// a model round-trip is wasted effort.
var defaultCatalog = map[string]contractx.RestaurantInfo{
	"mr broadway": {
		Name: "Mr. Broadway",
		URL:  "https://www.getsauce.com/order/mr-broadway/menu",
		Type: "sauce",
	},
}

// New creates a resolver. client may be nil, in which case only the static
// catalog answers lookups.
func New(client *openaisdk.Client, model string) *Resolver {
	return &Resolver{
		client:  client,
		model:   strings.TrimSpace(model),
		catalog: defaultCatalog,
		log:     logx.Component("restaurant"),
	}
}

func (r *Resolver) Resolve(ctx context.Context, name, location string) (contractx.RestaurantInfo, bool, error) {
	key := normalizeName(name)
	if key == "" {
		return contractx.RestaurantInfo{}, false, nil
	}

	if info, ok := r.catalog[key]; ok {
		return info, true, nil
	}

	if r.client == nil || r.model == "" {
		return contractx.RestaurantInfo{}, false, nil
	}

	return r.lookup(ctx, name, location)
}

func (r *Resolver) lookup(ctx context.Context, name, location string) (contractx.RestaurantInfo, bool, error) {
	payload, err := json.Marshal(map[string]string{
		"restaurant": name,
		"location":   location,
	})
	if err != nil {
		return contractx.RestaurantInfo{}, false, fmt.Errorf("%w: marshal resolver payload: %v", contractx.ErrValidation, err)
	}

	resp, err := r.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(r.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(promptx.LoadPromptSet().Resolver),
			openaisdk.UserMessage(string(payload)),
		},
	})
	if err != nil {
		return contractx.RestaurantInfo{}, false, fmt.Errorf("%w: restaurant lookup: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return contractx.RestaurantInfo{}, false, fmt.Errorf("%w: empty completion", contractx.ErrSchemaViolation)
	}

	var out resolverLLMOutput
	content := stripCodeFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return contractx.RestaurantInfo{}, false, fmt.Errorf("%w: parse resolver output: %v", contractx.ErrSchemaViolation, err)
	}

	if !out.Found {
		return contractx.RestaurantInfo{}, false, nil
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(out.URL)); err != nil {
		r.log.Warn().Str("url", out.URL).Msg("resolver returned unusable ordering url")
		return contractx.RestaurantInfo{}, false, nil
	}

	info := contractx.RestaurantInfo{
		Name: strings.TrimSpace(out.Name),
		URL:  strings.TrimSpace(out.URL),
		Type: strings.TrimSpace(out.Type),
	}
	if info.Name == "" {
		info.Name = strings.TrimSpace(name)
	}
	return info, true, nil
}

func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
