// Package ai wraps the generative model behind the financial advisor: a
// per-user chat conversation and a structured cash-flow analysis.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"freelanceflow/internal/core"
	"freelanceflow/internal/log"
)

var (
	// ErrUnavailable wraps every model failure. Callers show a generic message.
	ErrUnavailable = errors.New("advisor unavailable")
	ErrDisabled    = errors.New("advisor not configured")
	ErrEmptyPrompt = errors.New("empty message")
)

const (
	RoleUser  = "user"
	RoleModel = "model"

	// maxHistory bounds the turns replayed to the model on each chat call.
	maxHistory = 40
)

type (
	Message struct {
		Role string `json:"role"`
		Text string `json:"text"`
	}

	// Request is one call to the model. JSON asks for a JSON-only reply.
	Request struct {
		System   string
		Messages []Message
		JSON     bool
	}

	// Model generates the next reply for a conversation.
	Model interface {
		Generate(ctx context.Context, req Request) (string, error)
	}
)

// Advisor owns the chat conversations of every user. A failed call discards
// that user's conversation so the next message starts fresh.
type Advisor struct {
	model  Model
	logger *log.Logger

	mu      sync.Mutex
	history map[string][]Message

	analyses singleflight.Group
}

func NewAdvisor(model Model, logger *log.Logger) *Advisor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Advisor{
		model:   model,
		logger:  logger.WithComponent(log.ComponentAdvisor),
		history: make(map[string][]Message),
	}
}

// Enabled reports whether a model is wired.
func (a *Advisor) Enabled() bool { return a != nil && a.model != nil }

// Chat sends message in userID's conversation and returns the reply.
func (a *Advisor) Chat(ctx context.Context, userID, message string) (string, error) {
	if !a.Enabled() {
		return "", ErrDisabled
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyPrompt
	}

	a.mu.Lock()
	turns := append(append([]Message(nil), a.history[userID]...), Message{Role: RoleUser, Text: message})
	a.mu.Unlock()

	reply, err := a.model.Generate(ctx, Request{System: ChatInstruction, Messages: turns})
	if err != nil {
		a.Reset(userID)
		a.logger.ErrorContext(ctx, "Chat call failed, conversation reset",
			log.FieldUserID, userID, log.FieldError, err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Append to the history as it stands now; another chat for the same
	// user may have finished while the model was working.
	a.mu.Lock()
	h := append(a.history[userID],
		Message{Role: RoleUser, Text: message},
		Message{Role: RoleModel, Text: reply})
	if len(h) > maxHistory {
		h = append([]Message(nil), h[len(h)-maxHistory:]...)
	}
	a.history[userID] = h
	a.mu.Unlock()
	return reply, nil
}

// History returns a copy of userID's conversation.
func (a *Advisor) History(userID string) []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Message{}, a.history[userID]...)
}

// Reset forgets userID's conversation.
func (a *Advisor) Reset(userID string) {
	a.mu.Lock()
	delete(a.history, userID)
	a.mu.Unlock()
}

// Analyze asks for a structured analysis of in. Concurrent calls for the same
// user share one model call.
func (a *Advisor) Analyze(ctx context.Context, userID string, in core.AnalysisInput) (core.Analysis, error) {
	if !a.Enabled() {
		return core.Analysis{}, ErrDisabled
	}
	v, err, shared := a.analyses.Do(userID, func() (any, error) {
		return a.analyze(ctx, in)
	})
	if shared {
		a.logger.DebugContext(ctx, "Analysis shared with an in-flight call", log.FieldUserID, userID)
	}
	if err != nil {
		a.logger.ErrorContext(ctx, "Analysis failed", log.FieldUserID, userID, log.FieldError, err)
		return core.Analysis{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v.(core.Analysis), nil
}

func (a *Advisor) analyze(ctx context.Context, in core.AnalysisInput) (core.Analysis, error) {
	prompt, err := AnalysisPrompt(in)
	if err != nil {
		return core.Analysis{}, err
	}
	reply, err := a.model.Generate(ctx, Request{
		Messages: []Message{{Role: RoleUser, Text: prompt}},
		JSON:     true,
	})
	if err != nil {
		return core.Analysis{}, err
	}
	return ParseAnalysis(reply)
}

// ParseAnalysis extracts the analysis object from a model reply, tolerating
// surrounding prose or code fences.
func ParseAnalysis(reply string) (core.Analysis, error) {
	raw := extractJSON(reply)
	if raw == "" {
		return core.Analysis{}, errors.New("no JSON found in model response")
	}
	var out core.Analysis
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return core.Analysis{}, fmt.Errorf("parse analysis: %w", err)
	}
	if err := out.Validate(); err != nil {
		return core.Analysis{}, err
	}
	return out, nil
}

func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}
