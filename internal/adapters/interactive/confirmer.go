package interactive

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// ConfirmerAdapter asks for confirmation on the terminal
type ConfirmerAdapter struct {
	config *config.RuntimeConfig
	prompt func(label string) (string, error)
}

// NewConfirmerAdapter creates a new confirmer adapter
func NewConfirmerAdapter(cfg *config.RuntimeConfig) *ConfirmerAdapter {
	return &ConfirmerAdapter{config: cfg, prompt: runConfirmPrompt}
}

// Confirm returns true when the operator accepts. --yes and
// --non-interactive accept without prompting.
func (c *ConfirmerAdapter) Confirm(ctx context.Context, message string) (bool, error) {
	if c.config.Yes || c.config.NonInteractive {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := c.prompt(message)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	default:
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
}

func runConfirmPrompt(label string) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	return prompt.Run()
}

// Ensure the adapter implements the interface
var _ usecase.Confirmer = (*ConfirmerAdapter)(nil)
