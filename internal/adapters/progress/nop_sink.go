package progress

import (
	"context"

	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// NopProgressSink discards progress events, used with --non-interactive and in tests
type NopProgressSink struct{}

// NewNopProgressSink creates a new no-op progress sink
func NewNopProgressSink() *NopProgressSink {
	return &NopProgressSink{}
}

func (NopProgressSink) OnProgress(context.Context, usecase.ProgressEvent) {}
func (NopProgressSink) Info(string)                                       {}
func (NopProgressSink) Error(string)                                      {}

// Ensure NopProgressSink implements ProgressSink
var _ usecase.ProgressSink = (*NopProgressSink)(nil)
