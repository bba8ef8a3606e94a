package service

import (
	"context"

	"github.com/punchamoorthee/storeops/internal/domain"
	"go.uber.org/zap"
)

type InconsistencyKind string

const (
	// Some lines were decremented before a later line hit a stock race.
	InconsistencyPartialCommit InconsistencyKind = "partial_commit"
	// All stock was decremented but the history entry was not written.
	InconsistencyLedgerWrite InconsistencyKind = "ledger_write"
)

// Inconsistency describes stock that moved without a matching history entry.
type Inconsistency struct {
	Kind       InconsistencyKind
	CustomerID string
	Applied    []domain.LineItem
	Entry      *domain.LedgerEntry
	Err        error
}

// Reconciler is told about every checkout that left the stores out of step.
type Reconciler interface {
	Report(ctx context.Context, inc Inconsistency)
}

// LogReconciler records inconsistencies in the log and in
// storeops_checkout_inconsistencies_total so they can be repaired by hand.
type LogReconciler struct {
	logger *zap.Logger
}

func NewLogReconciler(logger *zap.Logger) *LogReconciler {
	return &LogReconciler{logger: logger}
}

func (r *LogReconciler) Report(_ context.Context, inc Inconsistency) {
	inconsistenciesTotal.WithLabelValues(string(inc.Kind)).Inc()

	applied := make([]string, 0, len(inc.Applied))
	for _, li := range inc.Applied {
		applied = append(applied, li.ProductID)
	}
	fields := []zap.Field{
		zap.String("kind", string(inc.Kind)),
		zap.String("customer_id", inc.CustomerID),
		zap.Strings("applied_products", applied),
		zap.Error(inc.Err),
	}
	if inc.Entry != nil {
		fields = append(fields,
			zap.String("entry_id", inc.Entry.ID),
			zap.String("total", inc.Entry.Total.StringFixed(2)),
		)
	}
	r.logger.Error("checkout left stock and history inconsistent", fields...)
}
