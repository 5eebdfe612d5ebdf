// Package enrich asks an advisory model for correction suggestions on
// a provider record. Suggestions are never authoritative and the call
// is never allowed to fail a validation run: every error path collapses
// to an empty suggestion set.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/directory-cli/internal/config"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/pkg/anthropic"
)

// Suggestions is the parsed advisory output for one record.
type Suggestions struct {
	// Fields maps field name to the proposed corrected value.
	Fields map[string]string
	// Adjustment is an optional confidence score delta.
	Adjustment int
	// Issues lists free-text problems the model noticed.
	Issues []string
}

// Empty returns a no-op suggestion set.
func Empty() *Suggestions {
	return &Suggestions{Fields: map[string]string{}}
}

// Client produces correction suggestions for provider records.
type Client interface {
	SuggestCorrections(ctx context.Context, p *model.Provider) (*Suggestions, error)
}

const suggestPrompt = `Analyze this healthcare provider directory record and suggest corrections if needed:
Name: %s
Phone: %s
Address: %s, %s, %s %s
Email: %s
Website: %s

Return a JSON object with any suggested corrections for formatting issues, common mistakes, or suspicious data. Only include fields that need correction. Allowed keys: suggested_phone, suggested_address, suggested_city, suggested_state, suggested_zip, suggested_email, issues_found (array of strings), confidence_adjustment (number).`

// maxAdjustment bounds the advisory score delta in either direction.
const maxAdjustment = 20

type anthropicClient struct {
	ai        anthropic.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
	timeout   time.Duration
}

// New creates an enrichment client backed by the Anthropic API.
func New(ai anthropic.Client, cfg config.AnthropicConfig) Client {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2.0
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &anthropicClient{
		ai:        ai,
		model:     cfg.Model,
		maxTokens: maxTokens,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		timeout:   timeout,
	}
}

func (c *anthropicClient) SuggestCorrections(ctx context.Context, p *model.Provider) (*Suggestions, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := fmt.Sprintf(suggestPrompt,
		p.Name, p.Phone, p.Address, p.City, p.State, p.Zip, p.Email, p.Website)

	resp, err := c.ai.CreateMessage(callCtx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	resp.Usage.LogUsage(c.model, "enrich")

	text := ""
	for _, block := range resp.Content {
		text += block.Text
	}

	return ParseSuggestions(text), nil
}

// ParseSuggestions decodes the model's JSON reply. Unparseable replies
// yield an empty suggestion set rather than an error.
func ParseSuggestions(text string) *Suggestions {
	out := Empty()

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		zap.L().Debug("enrich: unparseable suggestion reply", zap.Error(err))
		return out
	}

	for key, val := range raw {
		switch {
		case strings.HasPrefix(key, "suggested_"):
			if s, ok := val.(string); ok && s != "" {
				out.Fields[strings.TrimPrefix(key, "suggested_")] = s
			}
		case key == "issues_found":
			if items, ok := val.([]any); ok {
				for _, item := range items {
					if s, ok := item.(string); ok {
						out.Issues = append(out.Issues, s)
					}
				}
			}
		case key == "confidence_adjustment":
			if f, ok := val.(float64); ok {
				adj := int(math.Round(f))
				if adj > maxAdjustment {
					adj = maxAdjustment
				}
				if adj < -maxAdjustment {
					adj = -maxAdjustment
				}
				out.Adjustment = adj
			}
		}
	}

	return out
}

// cleanJSON strips markdown fences and surrounding prose so the reply
// body parses as a bare object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
