// Package classifier turns a free-form request into a typed Action by
// prompting a language model and validating what it returns.
package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danielolaszy/jassist/internal/llm"
	"github.com/danielolaszy/jassist/internal/logging"
	"github.com/danielolaszy/jassist/internal/validator"
	"github.com/danielolaszy/jassist/pkg/models"
)

// maxCalls bounds model calls per request: the first attempt and one
// corrective retry.
const maxCalls = 2

// Completer is the language model.
type Completer interface {
	Complete(ctx context.Context, p llm.Prompt) (string, error)
}

// Classifier maps requests to Actions.
type Classifier struct {
	model     Completer
	validator *validator.Validator
	history   int
	tracker   string
	now       func() time.Time
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithHistory sets how many prior turns go into the prompt.
func WithHistory(n int) Option {
	return func(c *Classifier) { c.history = n }
}

// WithTrackerName names the tracker in the prompt ("Jira", "GitHub").
func WithTrackerName(name string) Option {
	return func(c *Classifier) { c.tracker = name }
}

// WithClock sets the clock used for "today" and relative dates.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

// New creates a Classifier backed by model.
func New(model Completer, opts ...Option) *Classifier {
	c := &Classifier{
		model:   model,
		history: 6,
		tracker: "Jira",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.validator = validator.New(ActionSchema, validator.WithClock(c.now))
	return c
}

// Classify always returns an Action. When the model fails twice, or ctx is
// done, the result is Unknown with the last error as its reason.
func (c *Classifier) Classify(ctx context.Context, utterance string, conv *Conversation) models.Action {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return models.Unknown{RawText: utterance, Reason: "empty request"}
	}

	base := buildPrompt(ActionSchema, c.tracker, c.now(), utterance, conv.Recent(c.history))
	prompt := base
	var reason string

	for call := 1; call <= maxCalls; call++ {
		logging.Debug("classifying request", "attempt", call, "utterance", utterance)

		reply, err := c.model.Complete(ctx, prompt)
		if err != nil {
			reason = err.Error()
			logging.Warn("language model call failed", "attempt", call, "error", err)
			if ctx.Err() != nil {
				break
			}
			// Provider failures retry the same prompt.
			prompt = base
			continue
		}

		action, verr := c.parse(reply, utterance)
		if verr == nil {
			logging.Debug("classified request", "attempt", call, "action", action.Kind())
			return action
		}

		reason = verr.Error()
		logging.Warn("model output rejected", "attempt", call, "error", verr)
		prompt = correctivePrompt(base, reply, verr)
	}

	return models.Unknown{
		RawText: utterance,
		Reason:  fmt.Sprintf("could not understand the request: %s", reason),
	}
}

func (c *Classifier) parse(reply, utterance string) (models.Action, *validator.ValidationError) {
	parsed, verr := c.validator.Validate(reply)
	if len(parsed.Repairs) > 0 {
		logging.Debug("repaired model output", "repairs", parsed.Repairs)
	}
	if verr != nil {
		return nil, verr
	}
	return toAction(parsed, utterance)
}
