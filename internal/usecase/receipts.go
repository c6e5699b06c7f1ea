package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
)

const (
	DefaultPollInterval   = time.Second
	DefaultReceiptTimeout = 2 * time.Minute
)

// ReceiptWaiter polls the chain until a transaction is mined
type ReceiptWaiter struct {
	client       ChainClient
	PollInterval time.Duration
	Timeout      time.Duration
}

// NewReceiptWaiter creates a waiter using the given poll interval and timeout.
// Zero values fall back to the defaults.
func NewReceiptWaiter(client ChainClient, pollInterval, timeout time.Duration) *ReceiptWaiter {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultReceiptTimeout
	}
	return &ReceiptWaiter{
		client:       client,
		PollInterval: pollInterval,
		Timeout:      timeout,
	}
}

// Wait blocks until the receipt for hash is available. A receipt with a
// failed status is returned together with a TransactionError wrapping
// ErrTransactionReverted. Transactions are never resubmitted.
func (w *ReceiptWaiter) Wait(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := w.client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, &domain.TransactionError{
					Action: "transaction reverted",
					Hash:   hash,
					Err:    domain.ErrTransactionReverted,
				}
			}
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil:
			return nil, &domain.TransactionError{
				Action: "failed to fetch receipt",
				Hash:   hash,
				Err:    err,
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, &domain.TransactionError{
					Action: fmt.Sprintf("no receipt after %s", w.Timeout),
					Hash:   hash,
					Err:    domain.ErrReceiptTimeout,
				}
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
