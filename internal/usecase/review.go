package usecase

import (
	"context"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// HeldForReview lists items whose latest ledger status is held_for_review, oldest first.
func HeldForReview(ctx context.Context, ledger ports.Ledger, timeout time.Duration) ([]domain.LedgerRow, error) {
	return listByStatus(ctx, ledger, domain.StatusHeld, timeout)
}
