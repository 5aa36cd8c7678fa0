package gateway

import (
	"context"
	"errors"
	"time"

	"market_sync/internal/domain"
)

// settlementHandle tracks one submitted transaction. Await polls the node
// for a receipt; when a head watcher is wired, new-block notifications
// trigger immediate checks between polls. The ledger offers no cancellation,
// so Await holds until a terminal status or the settlement timeout.
type settlementHandle struct {
	client *Client
	txHash string
}

var _ domain.SettlementHandle = (*settlementHandle)(nil)

func (h *settlementHandle) TxHash() string { return h.txHash }

// Await suspends until the transaction is confirmed or fails. Failures are
// always *domain.SettlementError.
func (h *settlementHandle) Await(ctx context.Context) (domain.Receipt, error) {
	if h.client.settleLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.client.settleLimit)
		defer cancel()
	}

	var nudge <-chan struct{}
	if h.client.watcher != nil {
		ch, unsubscribe := h.client.watcher.Subscribe()
		defer unsubscribe()
		nudge = ch
	}

	ticker := time.NewTicker(h.client.pollInterval)
	defer ticker.Stop()

	for {
		receipt, done, err := h.check(ctx)
		if done {
			return receipt, err
		}

		select {
		case <-ctx.Done():
			return domain.Receipt{}, &domain.SettlementError{
				Status: domain.SettlementTimeout,
				TxHash: h.txHash,
				Err:    ctx.Err(),
			}
		case <-ticker.C:
		case <-nudge:
		}
	}
}

// check performs one receipt read. done is false while the transaction is
// still pending or the read itself failed transiently.
func (h *settlementHandle) check(ctx context.Context) (domain.Receipt, bool, error) {
	var res receiptResult
	err := h.client.call(ctx, methodReceipt, receiptParams{TxHash: h.txHash}, &res)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Receipt{}, false, nil // timeout surfaces in Await
		}
		// A failed receipt read is not a failed transaction; keep polling.
		h.client.logger.Warn("receipt check failed", "tx", h.txHash, "error", err)
		return domain.Receipt{}, false, nil
	}

	switch res.Status {
	case txConfirmed:
		return domain.Receipt{
			TxHash:      h.txHash,
			BlockNumber: res.BlockNumber,
			ConfirmedAt: time.Now(),
		}, true, nil
	case txRejected:
		return domain.Receipt{}, true, &domain.SettlementError{
			Status: domain.SettlementRejected,
			TxHash: h.txHash,
			Err:    reasonErr(res.Reason),
		}
	case txReverted:
		return domain.Receipt{}, true, &domain.SettlementError{
			Status: domain.SettlementReverted,
			TxHash: h.txHash,
			Err:    reasonErr(res.Reason),
		}
	case txPending, "":
		return domain.Receipt{}, false, nil
	default:
		return domain.Receipt{}, false, nil
	}
}

func reasonErr(reason string) error {
	if reason == "" {
		return errors.New("no reason reported")
	}
	return errors.New(reason)
}
