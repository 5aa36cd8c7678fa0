package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"market_sync/internal/domain"
	"market_sync/internal/infra"

	"github.com/google/uuid"
)

// Submitter encodes and submits one mutating intent, awaits settlement, and
// journals the terminal outcome. Failures are terminal per intent; nothing
// is retried automatically.
type Submitter struct {
	gw     domain.Gateway
	store  domain.SnapshotStore // optional journal
	logger *slog.Logger
}

// NewSubmitter creates a submitter. store may be nil to disable journaling.
func NewSubmitter(gw domain.Gateway, store domain.SnapshotStore) *Submitter {
	return &Submitter{
		gw:     gw,
		store:  store,
		logger: slog.Default().With("module", "submitter"),
	}
}

// Submit validates the intent, performs the matching gateway call and waits
// for settlement. Returns the receipt on success; failures are
// *domain.ValidationError (no gateway call made) or *domain.OperationError.
func (s *Submitter) Submit(ctx context.Context, intent domain.Intent) (domain.Receipt, error) {
	if err := intent.Validate(); err != nil {
		return domain.Receipt{}, err
	}
	if intent.OpID == "" {
		intent.OpID = uuid.NewString()
	}

	if intent.Kind == domain.IntentBuy {
		if err := s.checkFreshPrice(ctx, intent); err != nil {
			return domain.Receipt{}, err
		}
	}

	handle, err := s.dispatch(ctx, intent)
	if err != nil {
		opErr := &domain.OperationError{Status: domain.SettlementRejected, Err: err}
		s.journal(intent, "", string(domain.SettlementRejected), 0)
		infra.GlobalMetrics.RecordOperationFailure()
		return domain.Receipt{}, opErr
	}

	start := time.Now()
	receipt, err := handle.Await(ctx)
	if err != nil {
		var settleErr *domain.SettlementError
		status := domain.SettlementRejected
		if errors.As(err, &settleErr) {
			status = settleErr.Status
		}
		s.journal(intent, handle.TxHash(), string(status), 0)
		infra.GlobalMetrics.RecordOperationFailure()
		return domain.Receipt{}, &domain.OperationError{Status: status, Err: err}
	}

	infra.GlobalMetrics.RecordSubmission(time.Since(start).Nanoseconds())
	s.journal(intent, receipt.TxHash, "confirmed", receipt.BlockNumber)
	s.logger.Info("operation settled",
		"kind", string(intent.Kind),
		"op_id", intent.OpID,
		"tx", receipt.TxHash,
		"block", receipt.BlockNumber,
	)
	return receipt, nil
}

// checkFreshPrice re-reads the item immediately before a buy and rejects on
// price mismatch, so a cached price can fail locally instead of as a ledger
// revert. A failed pre-check read is not fatal: the submit proceeds with the
// caller's price and the ledger remains the backstop.
func (s *Submitter) checkFreshPrice(ctx context.Context, intent domain.Intent) error {
	fresh, err := s.gw.GetItem(ctx, intent.ItemID)
	if err != nil {
		s.logger.Warn("price pre-check read failed, submitting anyway", "item", intent.ItemID, "error", err)
		return nil
	}
	if !fresh.Price.Equal(intent.Price) {
		return &domain.ValidationError{Field: "price", Err: domain.ErrStalePrice}
	}
	return nil
}

func (s *Submitter) dispatch(ctx context.Context, intent domain.Intent) (domain.SettlementHandle, error) {
	switch intent.Kind {
	case domain.IntentList:
		return s.gw.SubmitList(ctx, intent.Name, intent.Price)
	case domain.IntentBuy:
		return s.gw.SubmitBuy(ctx, intent.ItemID, intent.Price)
	case domain.IntentTransfer:
		return s.gw.SubmitTransfer(ctx, intent.ItemID, intent.To)
	default:
		// Validate rejects unknown kinds before dispatch reaches here.
		return nil, errors.New("unknown intent kind")
	}
}

// journal records a terminal outcome, best effort.
func (s *Submitter) journal(intent domain.Intent, txHash, status string, block uint64) {
	if s.store == nil {
		return
	}
	rec := &domain.ReceiptRecord{
		OpID:        intent.OpID,
		Kind:        string(intent.Kind),
		ItemID:      intent.ItemID,
		TxHash:      txHash,
		Status:      status,
		BlockNumber: block,
	}
	if err := s.store.SaveReceipt(rec); err != nil {
		s.logger.Warn("failed to journal receipt", "op_id", intent.OpID, "error", err)
	}
}
