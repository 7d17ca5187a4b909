package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/vantage/internal/domain/ai"
	"github.com/bryanwahyu/vantage/internal/domain/analysis"
	"github.com/bryanwahyu/vantage/internal/domain/apperr"
)

// Options bound every provider call.
type Options struct {
	Timeout      time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Service runs the analysis-request use case: validate, ask the provider, decode its reply.
type Service struct {
	client ai.Client
	opts   Options
	log    zerolog.Logger
}

// NewService accepts a nil client; Analyze then fails with a configuration error.
func NewService(client ai.Client, opts Options, log zerolog.Logger) *Service {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Service{client: client, opts: opts, log: log}
}

// Analyze returns the literary breakdown of text.
func (s *Service) Analyze(ctx context.Context, text string) (*analysis.Fields, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Text is required")
	}
	if s.client == nil {
		return nil, apperr.Configuration("text-generation provider is not configured")
	}

	var reply string
	var err error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		reply, err = s.call(ctx, text)
		if err == nil {
			break
		}
		if attempt == s.opts.MaxAttempts || !retryable(ctx, err) {
			break
		}
		s.log.Warn().Err(err).Int("attempt", attempt).Msg("analysis request failed, retrying")
		select {
		case <-ctx.Done():
			return nil, apperr.Upstream("analysis request cancelled", ctx.Err())
		case <-time.After(time.Duration(attempt) * s.opts.RetryBackoff):
		}
	}
	if err != nil {
		s.log.Error().Err(err).Msg("analysis request failed")
		return nil, apperr.Upstream("Failed to analyze text. Please try again.", err)
	}

	return decodeFields(reply)
}

func (s *Service) call(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.client.Analyze(ctx, text)
}

// retryable excludes quota errors and a cancelled caller.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, ai.ErrQuotaExceeded)
}

// decodeFields pulls the first JSON object out of reply and maps it onto Fields.
func decodeFields(reply string) (*analysis.Fields, error) {
	raw, err := ai.ExtractJSONObject(reply)
	if err != nil {
		return nil, apperr.Malformed("Failed to parse AI response", err)
	}
	var loose struct {
		Summary            any `json:"summary"`
		Meaning            any `json:"meaning"`
		PoeticDevices      any `json:"poeticDevices"`
		Themes             any `json:"themes"`
		EmotionalTone      any `json:"emotionalTone"`
		HistoricalContext  any `json:"historicalContext"`
		WordAnalysis       any `json:"wordAnalysis"`
		Interpretation     any `json:"interpretation"`
		EnglishTranslation any `json:"englishTranslation"`
	}
	if err := json.Unmarshal([]byte(raw), &loose); err != nil {
		return nil, apperr.Malformed("Failed to parse AI response", err)
	}
	return &analysis.Fields{
		Summary:            asString(loose.Summary),
		Meaning:            asString(loose.Meaning),
		PoeticDevices:      asStrings(loose.PoeticDevices),
		Themes:             asStrings(loose.Themes),
		EmotionalTone:      asString(loose.EmotionalTone),
		HistoricalContext:  asString(loose.HistoricalContext),
		WordAnalysis:       asStringMap(loose.WordAnalysis),
		Interpretation:     asString(loose.Interpretation),
		EnglishTranslation: asString(loose.EnglishTranslation),
	}, nil
}

// Models do not always respect the requested types; scalars become strings,
// a lone string becomes a one-item list, nested values are re-encoded as JSON.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func asStrings(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := asString(t); s != "" {
			return []string{s}
		}
		return nil
	}
}

func asStringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, item := range m {
		out[k] = asString(item)
	}
	return out
}
