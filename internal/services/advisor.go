package services

import (
	"context"
	"errors"

	"freelanceflow/internal/core"
	"freelanceflow/internal/log"
)

var ErrAdvisorDisabled = errors.New("advisor not configured")

// AnalysisInput returns what would be sent to the advisor for userID.
func (w *Workspace) AnalysisInput(ctx context.Context, userID string) (core.AnalysisInput, error) {
	d, err := w.Get(ctx, userID)
	if err != nil {
		return core.AnalysisInput{}, err
	}
	return core.NewAnalysisInput(d), nil
}

// Analyze asks the advisor for a cash-flow analysis of the user's recent
// activity.
func (w *Workspace) Analyze(ctx context.Context, userID string) (core.Analysis, error) {
	if w.advisor == nil {
		return core.Analysis{}, ErrAdvisorDisabled
	}
	in, err := w.AnalysisInput(ctx, userID)
	if err != nil {
		return core.Analysis{}, err
	}
	a, err := w.advisor.Analyze(ctx, userID, in)
	if err != nil {
		w.logger.ErrorContext(ctx, "Analysis failed", log.FieldUserID, userID, log.FieldError, err)
		return core.Analysis{}, err
	}
	return a, nil
}

// Chat forwards a message to the user's advisor conversation.
func (w *Workspace) Chat(ctx context.Context, userID, message string) (string, error) {
	if w.advisor == nil {
		return "", ErrAdvisorDisabled
	}
	reply, err := w.advisor.Chat(ctx, userID, message)
	if err != nil {
		w.logger.ErrorContext(ctx, "Advisor chat failed", log.FieldUserID, userID, log.FieldError, err)
		return "", err
	}
	return reply, nil
}
