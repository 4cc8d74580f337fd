// Package authoring drafts new catalog templates with a language model.
// Drafts are validated with the same rules as the shipped catalog, and a
// rejected draft is sent back to the model with the problems listed.
package authoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/adaptiq/internal/catalog"
	"github.com/abhisek/adaptiq/internal/llm"
)

// DraftInput describes the template wanted.
type DraftInput struct {
	Subject         string
	SkillArea       string
	DifficultyLevel int
	// Type is optional; empty lets the model choose.
	Type  catalog.Type
	Notes string
}

// Config tunes drafting.
type Config struct {
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	// MaxAttempts counts the first draft plus repairs.
	MaxAttempts int `mapstructure:"max_attempts"`
	// MaxExistingIDs caps how many catalog ids are listed in the prompt.
	MaxExistingIDs int `mapstructure:"max_existing_ids"`

	Logger *zap.Logger `mapstructure:"-"`
}

// DefaultConfig returns the standard drafting settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:      1024,
		Temperature:    0.7,
		MaxAttempts:    2,
		MaxExistingIDs: 50,
	}
}

// Drafter asks a Provider for templates that fit into a Catalog.
type Drafter struct {
	provider llm.Provider
	cat      *catalog.Catalog
	cfg      Config
}

// New creates a Drafter. cat is consulted for id collisions and may be nil.
func New(provider llm.Provider, cat *catalog.Catalog, cfg Config) *Drafter {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Drafter{provider: provider, cat: cat, cfg: cfg}
}

// Draft returns a template that passes catalog.ValidateTemplate and does
// not collide with an existing id. When every attempt is rejected the
// error wraps the last *catalog.ValidationError.
func (d *Drafter) Draft(ctx context.Context, in DraftInput) (*catalog.QuestionTemplate, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeTemplateDraft)

	msgs := []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(in, d.existingIDs(in.Subject))}}
	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		resp, err := d.provider.Generate(ctx, llm.Request{
			System:      systemPrompt,
			Messages:    msgs,
			Schema:      DraftSchema,
			MaxTokens:   d.cfg.MaxTokens,
			Temperature: d.cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("draft template: %w", err)
		}

		var out draftOutput
		if err := json.Unmarshal(resp.Content, &out); err != nil {
			return nil, fmt.Errorf("decode draft: %w", err)
		}
		t := out.template(in)

		problems := d.check(in, t)
		if len(problems) == 0 {
			return &t, nil
		}
		lastErr = &catalog.ValidationError{Problems: problems}
		d.cfg.Logger.Info("template draft rejected",
			zap.String("id", t.ID),
			zap.Int("attempt", attempt),
			zap.Strings("problems", problems))

		msgs = append(msgs,
			llm.Message{Role: llm.RoleAssistant, Content: string(resp.Content)},
			llm.Message{Role: llm.RoleUser, Content: buildRepairMessage(problems)},
		)
	}
	return nil, fmt.Errorf("draft rejected after %d attempts: %w", d.cfg.MaxAttempts, lastErr)
}

func (d *Drafter) check(in DraftInput, t catalog.QuestionTemplate) []string {
	var problems []string
	if err := catalog.ValidateTemplate(t); err != nil {
		var verr *catalog.ValidationError
		if !errors.As(err, &verr) {
			return []string{err.Error()}
		}
		problems = append(problems, verr.Problems...)
	}
	if in.Type != "" && t.Type != in.Type {
		problems = append(problems, fmt.Sprintf("type must be %q, got %q", in.Type, t.Type))
	}
	if d.cat != nil {
		if _, exists := d.cat.Get(t.ID); exists {
			problems = append(problems, fmt.Sprintf("id %q is already in the catalog", t.ID))
		}
	}
	return problems
}

// existingIDs lists the subject's template ids, keeping the last
// MaxExistingIDs in sorted order.
func (d *Drafter) existingIDs(subject string) []string {
	if d.cat == nil {
		return nil
	}
	var ids []string
	for _, t := range d.cat.Templates() {
		if t.Subject == subject {
			ids = append(ids, t.ID)
		}
	}
	slices.Sort(ids)
	if n := d.cfg.MaxExistingIDs; n > 0 && len(ids) > n {
		ids = ids[len(ids)-n:]
	}
	return ids
}

func (in DraftInput) validate() error {
	switch {
	case strings.TrimSpace(in.Subject) == "":
		return errors.New("draft: subject is required")
	case strings.TrimSpace(in.SkillArea) == "":
		return errors.New("draft: skill area is required")
	case in.DifficultyLevel < catalog.MinDifficulty || in.DifficultyLevel > catalog.MaxDifficulty:
		return fmt.Errorf("draft: difficulty %d outside [%d,%d]",
			in.DifficultyLevel, catalog.MinDifficulty, catalog.MaxDifficulty)
	}
	switch in.Type {
	case "", catalog.TypeWordProblem, catalog.TypeArithmetic, catalog.TypeStringChoice:
		return nil
	default:
		return fmt.Errorf("draft: unknown template type %q", in.Type)
	}
}
