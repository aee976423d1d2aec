package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/repository"
)

// DebtUnbounded disables the debt floor on a debit. Used by exact
// reversals, which must re-charge recorded amounts even when that pushes
// an account past the staking ceiling.
const DebtUnbounded int64 = -1

// Ref carries the optional bet/option identifiers an audit entry records
type Ref struct {
	BetID    *uuid.UUID
	OptionID *uuid.UUID
	Reason   string
}

// Credit adds amount to the user's balance and appends the matching audit
// entry in the same transaction. Returns the resulting balance.
func Credit(ctx context.Context, tx repository.LedgerTx, userID uuid.UUID, amount int64, kind domain.AuditKind, ref Ref) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: credit amount must be positive, got %d", domain.ErrInvalidInput, amount)
	}

	balance, err := tx.AdjustBalance(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to credit balance: %w", err)
	}

	if err := appendAudit(ctx, tx, userID, kind, amount, balance, ref); err != nil {
		return 0, err
	}
	return balance, nil
}

// Debit subtracts amount from the user's balance, appending the matching
// audit entry. allowDebtUpTo is the deepest negative balance the debit may
// produce; pass DebtUnbounded to disable the floor. Exceeding the floor
// returns domain.ErrInsufficientFunds - the caller must roll back, since
// the adjustment has already been applied inside the transaction.
func Debit(ctx context.Context, tx repository.LedgerTx, userID uuid.UUID, amount, allowDebtUpTo int64, kind domain.AuditKind, ref Ref) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: debit amount must be positive, got %d", domain.ErrInvalidInput, amount)
	}

	balance, err := tx.AdjustBalance(ctx, userID, -amount)
	if err != nil {
		return 0, fmt.Errorf("failed to debit balance: %w", err)
	}

	if allowDebtUpTo != DebtUnbounded && balance < -allowDebtUpTo {
		return 0, fmt.Errorf("%w: balance %d would exceed debt ceiling %d", domain.ErrInsufficientFunds, balance, allowDebtUpTo)
	}

	if err := appendAudit(ctx, tx, userID, kind, -amount, balance, ref); err != nil {
		return 0, err
	}
	return balance, nil
}

// RecordLoss appends a zero-delta audit entry marking a lost stake. The
// debit happened when the stake was placed, so no balance change here.
func RecordLoss(ctx context.Context, tx repository.LedgerTx, userID uuid.UUID, ref Ref) error {
	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user for loss entry: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	return appendAudit(ctx, tx, userID, domain.AuditLoss, 0, user.Balance, ref)
}

func appendAudit(ctx context.Context, tx repository.LedgerTx, userID uuid.UUID, kind domain.AuditKind, delta, balance int64, ref Ref) error {
	entry := &domain.AuditEntry{
		UserID:   userID,
		Kind:     kind,
		Delta:    delta,
		Balance:  balance,
		BetID:    ref.BetID,
		OptionID: ref.OptionID,
		Reason:   ref.Reason,
	}
	if err := tx.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}
