package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditKind identifies the balance-affecting event an audit entry records
type AuditKind string

const (
	AuditAccountCreated  AuditKind = "AccountCreated"
	AuditBankruptcy      AuditKind = "Bankruptcy"
	AuditGifted          AuditKind = "Gifted"
	AuditStakePlaced     AuditKind = "StakePlaced"
	AuditStakeChanged    AuditKind = "StakeChanged"
	AuditStakeWithdrawn  AuditKind = "StakeWithdrawn"
	AuditRefund          AuditKind = "Refund"
	AuditPayout          AuditKind = "Payout"
	AuditLoss            AuditKind = "Loss"
	AuditRevertPayout    AuditKind = "RevertPayout"
	AuditRevertRefund    AuditKind = "RevertRefund"
)

// AuditEntry is an immutable, append-only record of a balance-affecting
// event. Delta is the signed amount applied to the balance (zero for Loss,
// which only marks the outcome: the debit happened at stake time) and
// Balance is the resulting balance, so the full history reconstructs every
// balance exactly.
type AuditEntry struct {
	ID       int64      `json:"id"`
	UserID   uuid.UUID  `json:"user_id"`
	Kind     AuditKind  `json:"kind"`
	Delta    int64      `json:"delta"`
	Balance  int64      `json:"balance"`
	BetID    *uuid.UUID `json:"bet_id,omitempty"`
	OptionID *uuid.UUID `json:"option_id,omitempty"`
	Reason   string     `json:"reason,omitempty"`
	Created  time.Time  `json:"created"`
}
