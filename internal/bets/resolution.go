package bets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/account"
	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/event"
	"github.com/osse101/StakeBot_Go/internal/logger"
	"github.com/osse101/StakeBot_Go/internal/metrics"
	"github.com/osse101/StakeBot_Go/internal/repository"
)

// payout is one winning stake's share of the pot
type payout struct {
	userID   uuid.UUID
	optionID uuid.UUID
	stake    int64
	amount   int64
}

// computePayouts splits the total pot over the winning stakes in
// proportion to each stake's share of the winning pool. Integer division
// floors each payout, so the sum of payouts never exceeds the pot; the
// remainder is not distributed. A zero winning pool yields no payouts at
// all - the pot is forfeited, never returned to losers.
func computePayouts(bet *domain.Bet, winning map[uuid.UUID]bool) (totalPot, winningPot int64, payouts []payout) {
	for _, opt := range bet.Options {
		for _, stake := range opt.Stakes {
			totalPot += stake.Amount
			if winning[opt.ID] {
				winningPot += stake.Amount
			}
		}
	}
	if winningPot == 0 {
		return totalPot, 0, nil
	}
	// The naive totalPot*stake/winningPot product overflows int64 once the
	// pot crosses a few billion. Splitting totalPot into quot*winningPot+rem
	// floors identically while the only large intermediate, stake*rem, stays
	// under winningPot^2 - safe for any pot the ledger can actually hold.
	quot := totalPot / winningPot
	rem := totalPot % winningPot
	for _, opt := range bet.Options {
		if !winning[opt.ID] {
			continue
		}
		for _, stake := range opt.Stakes {
			payouts = append(payouts, payout{
				userID:   stake.UserID,
				optionID: opt.ID,
				stake:    stake.Amount,
				amount:   stake.Amount*quot + stake.Amount*rem/winningPot,
			})
		}
	}
	return totalPot, winningPot, payouts
}

// Complete resolves a Locked bet: marks the winning options, pays each
// winning stake its floored pot share, and records a Loss entry for every
// other stake. All of it commits atomically with the state transition.
func (s *service) Complete(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int, winningOptionIDs []uuid.UUID) (*domain.Bet, error) {
	log := logger.FromContext(ctx)

	if len(winningOptionIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one winning option is required", domain.ErrInvalidInput)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	bet, err := s.loadBetForUpdate(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBetManager(ctx, tx, actingUserID, bet); err != nil {
		return nil, err
	}

	switch bet.Progress {
	case domain.BetProgressLocked:
		// the only state a bet completes from
	case domain.BetProgressVoting, domain.BetProgressComplete, domain.BetProgressCancelled:
		return nil, fmt.Errorf("%w: cannot complete from %s", domain.ErrInvalidState, bet.Progress)
	default:
		return nil, fmt.Errorf("%w: unknown progress %q", domain.ErrInvalidState, bet.Progress)
	}

	winning := make(map[uuid.UUID]bool, len(winningOptionIDs))
	for _, id := range winningOptionIDs {
		if bet.FindOption(id) == nil {
			return nil, fmt.Errorf("%w: option %s does not belong to bet %s", domain.ErrInvalidInput, id, betID)
		}
		winning[id] = true
	}

	// Take the version guard before moving any money so a concurrent
	// editor conflicts here, with nothing yet applied.
	now := time.Now()
	bet.Progress = domain.BetProgressComplete
	bet.ResolvedAt = &now
	if err := tx.UpdateBet(ctx, bet, expectedVersion); err != nil {
		return nil, err
	}
	bet.Version = expectedVersion + 1

	if err := tx.SetOptionsWon(ctx, betID, winningOptionIDs, true); err != nil {
		return nil, fmt.Errorf("failed to mark winning options: %w", err)
	}

	totalPot, winningPot, payouts := computePayouts(bet, winning)
	gameName := s.gameName(ctx, bet.GameID)

	for _, p := range payouts {
		ref := account.Ref{BetID: &bet.ID, OptionID: refID(p.optionID)}
		if _, err := account.Credit(ctx, tx, p.userID, p.amount, domain.AuditPayout, ref); err != nil {
			return nil, err
		}
		if err := tx.SetStakePayout(ctx, p.optionID, p.userID, p.amount); err != nil {
			return nil, fmt.Errorf("failed to record stake payout: %w", err)
		}
		if err := s.notifyFinished(ctx, tx, bet, gameName, p.optionID, p.userID, domain.StakeResultWin, p.amount); err != nil {
			return nil, err
		}
	}

	// Losing stakes: the debit happened at stake time, so only the
	// outcome is recorded. When no one backed a winner the same applies
	// to every stake and the pot is forfeited (documented asymmetry).
	for i := range bet.Options {
		opt := &bet.Options[i]
		if winning[opt.ID] && winningPot > 0 {
			opt.Won = true
			continue
		}
		opt.Won = winning[opt.ID]
		for _, stake := range opt.Stakes {
			ref := account.Ref{BetID: &bet.ID, OptionID: refID(opt.ID)}
			if err := account.RecordLoss(ctx, tx, stake.UserID, ref); err != nil {
				return nil, err
			}
			if err := s.notifyFinished(ctx, tx, bet, gameName, opt.ID, stake.UserID, domain.StakeResultLoss, stake.Amount); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Bet completed",
		"bet_id", betID,
		"total_pot", totalPot,
		"winning_pot", winningPot,
		"winners", len(payouts))
	metrics.BetsResolved.Inc()
	metrics.PayoutsCredited.Add(float64(sumPayouts(payouts)))

	s.publishBetComplete(ctx, bet, gameName, winning, totalPot, payouts)
	s.applyPayoutsLocally(bet, payouts)
	return bet, nil
}

// RevertComplete undoes a completion: debits exactly the payouts recorded
// on the stakes (never recomputed), clears the won flags, and returns the
// bet to Locked. Losing stakes are untouched since completion never moved
// their money.
func (s *service) RevertComplete(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error) {
	log := logger.FromContext(ctx)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	bet, err := s.loadBetForUpdate(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBetManager(ctx, tx, actingUserID, bet); err != nil {
		return nil, err
	}

	switch bet.Progress {
	case domain.BetProgressComplete:
	case domain.BetProgressVoting, domain.BetProgressLocked, domain.BetProgressCancelled:
		return nil, fmt.Errorf("%w: cannot revert completion from %s", domain.ErrInvalidState, bet.Progress)
	default:
		return nil, fmt.Errorf("%w: unknown progress %q", domain.ErrInvalidState, bet.Progress)
	}

	bet.Progress = domain.BetProgressLocked
	bet.ResolvedAt = nil
	if err := tx.UpdateBet(ctx, bet, expectedVersion); err != nil {
		return nil, err
	}
	bet.Version = expectedVersion + 1

	if err := tx.SetOptionsWon(ctx, betID, nil, false); err != nil {
		return nil, fmt.Errorf("failed to clear won flags: %w", err)
	}

	gameName := s.gameName(ctx, bet.GameID)
	var reverted int
	for i := range bet.Options {
		opt := &bet.Options[i]
		opt.Won = false
		for j := range opt.Stakes {
			stake := &opt.Stakes[j]
			if stake.Payout == 0 {
				continue
			}
			ref := account.Ref{BetID: &bet.ID, OptionID: refID(opt.ID)}
			if _, err := account.Debit(ctx, tx, stake.UserID, stake.Payout, account.DebtUnbounded, domain.AuditRevertPayout, ref); err != nil {
				return nil, err
			}
			if err := tx.SetStakePayout(ctx, opt.ID, stake.UserID, 0); err != nil {
				return nil, fmt.Errorf("failed to clear stake payout: %w", err)
			}
			if err := s.notifyReverted(ctx, tx, bet, gameName, stake.UserID, -stake.Payout); err != nil {
				return nil, err
			}
			stake.Payout = 0
			reverted++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Bet completion reverted", "bet_id", betID, "payouts_reverted", reverted)
	return bet, nil
}

// Cancel voids a Voting or Locked bet: every stake is credited back and
// marked refunded (the rows stay for RevertCancel), and the progress the
// bet held is stored so reverting restores it exactly.
func (s *service) Cancel(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int, reason string) (*domain.Bet, error) {
	log := logger.FromContext(ctx)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a cancellation reason is required", domain.ErrInvalidInput)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	bet, err := s.loadBetForUpdate(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBetManager(ctx, tx, actingUserID, bet); err != nil {
		return nil, err
	}

	switch bet.Progress {
	case domain.BetProgressVoting, domain.BetProgressLocked:
	case domain.BetProgressComplete, domain.BetProgressCancelled:
		return nil, fmt.Errorf("%w: cannot cancel from %s", domain.ErrInvalidState, bet.Progress)
	default:
		return nil, fmt.Errorf("%w: unknown progress %q", domain.ErrInvalidState, bet.Progress)
	}

	bet.CancelledFrom = bet.Progress
	bet.Progress = domain.BetProgressCancelled
	bet.CancelledReason = reason
	if err := tx.UpdateBet(ctx, bet, expectedVersion); err != nil {
		return nil, err
	}
	bet.Version = expectedVersion + 1

	gameName := s.gameName(ctx, bet.GameID)
	var refunded int
	for i := range bet.Options {
		opt := &bet.Options[i]
		for j := range opt.Stakes {
			stake := &opt.Stakes[j]
			if stake.Refunded {
				continue
			}
			ref := account.Ref{BetID: &bet.ID, OptionID: refID(opt.ID), Reason: reason}
			if _, err := account.Credit(ctx, tx, stake.UserID, stake.Amount, domain.AuditRefund, ref); err != nil {
				return nil, err
			}
			if err := tx.SetStakeRefunded(ctx, opt.ID, stake.UserID, true); err != nil {
				return nil, fmt.Errorf("failed to mark stake refunded: %w", err)
			}
			n := &domain.Notification{
				UserID: stake.UserID,
				Kind:   domain.NotificationRefunded,
				Payload: domain.RefundedPayload{
					GameID:     bet.GameID,
					GameName:   gameName,
					BetID:      bet.ID,
					BetName:    bet.Name,
					OptionID:   opt.ID,
					OptionName: opt.Name,
					Amount:     stake.Amount,
					Reason:     reason,
				},
			}
			if err := tx.CreateNotification(ctx, n); err != nil {
				return nil, fmt.Errorf("failed to create notification: %w", err)
			}
			stake.Refunded = true
			refunded++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Bet cancelled", "bet_id", betID, "reason", reason, "stakes_refunded", refunded)
	metrics.BetsCancelled.Inc()
	return bet, nil
}

// RevertCancel undoes a cancellation: re-debits exactly the refunded
// amounts and restores the progress stored at cancellation.
func (s *service) RevertCancel(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error) {
	log := logger.FromContext(ctx)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	bet, err := s.loadBetForUpdate(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBetManager(ctx, tx, actingUserID, bet); err != nil {
		return nil, err
	}

	switch bet.Progress {
	case domain.BetProgressCancelled:
	case domain.BetProgressVoting, domain.BetProgressLocked, domain.BetProgressComplete:
		return nil, fmt.Errorf("%w: cannot revert cancellation from %s", domain.ErrInvalidState, bet.Progress)
	default:
		return nil, fmt.Errorf("%w: unknown progress %q", domain.ErrInvalidState, bet.Progress)
	}

	switch bet.CancelledFrom {
	case domain.BetProgressVoting, domain.BetProgressLocked:
		bet.Progress = bet.CancelledFrom
	default:
		return nil, fmt.Errorf("%w: bet has no recorded pre-cancellation progress", domain.ErrInvalidState)
	}
	bet.CancelledFrom = ""
	bet.CancelledReason = ""
	if err := tx.UpdateBet(ctx, bet, expectedVersion); err != nil {
		return nil, err
	}
	bet.Version = expectedVersion + 1

	gameName := s.gameName(ctx, bet.GameID)
	var recharged int
	for i := range bet.Options {
		opt := &bet.Options[i]
		for j := range opt.Stakes {
			stake := &opt.Stakes[j]
			if !stake.Refunded {
				continue
			}
			// Exact reversal may push the balance past the staking debt
			// ceiling; that is accepted, the refund already happened.
			ref := account.Ref{BetID: &bet.ID, OptionID: refID(opt.ID)}
			if _, err := account.Debit(ctx, tx, stake.UserID, stake.Amount, account.DebtUnbounded, domain.AuditRevertRefund, ref); err != nil {
				return nil, err
			}
			if err := tx.SetStakeRefunded(ctx, opt.ID, stake.UserID, false); err != nil {
				return nil, fmt.Errorf("failed to clear stake refund flag: %w", err)
			}
			if err := s.notifyReverted(ctx, tx, bet, gameName, stake.UserID, -stake.Amount); err != nil {
				return nil, err
			}
			stake.Refunded = false
			recharged++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Bet cancellation reverted", "bet_id", betID, "progress", bet.Progress, "stakes_recharged", recharged)
	return bet, nil
}

func (s *service) notifyFinished(ctx context.Context, tx repository.BetsTx, bet *domain.Bet, gameName string, optionID, userID uuid.UUID, result domain.StakeResult, amount int64) error {
	opt := bet.FindOption(optionID)
	optionName := ""
	if opt != nil {
		optionName = opt.Name
	}
	n := &domain.Notification{
		UserID: userID,
		Kind:   domain.NotificationBetFinished,
		Payload: domain.BetFinishedPayload{
			GameID:     bet.GameID,
			GameName:   gameName,
			BetID:      bet.ID,
			BetName:    bet.Name,
			OptionID:   optionID,
			OptionName: optionName,
			Result:     result,
			Amount:     amount,
		},
	}
	if err := tx.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *service) notifyReverted(ctx context.Context, tx repository.BetsTx, bet *domain.Bet, gameName string, userID uuid.UUID, amount int64) error {
	n := &domain.Notification{
		UserID: userID,
		Kind:   domain.NotificationBetReverted,
		Payload: domain.BetRevertedPayload{
			GameID:   bet.GameID,
			GameName: gameName,
			BetID:    bet.ID,
			BetName:  bet.Name,
			Amount:   amount,
		},
	}
	if err := tx.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *service) publishBetComplete(ctx context.Context, bet *domain.Bet, gameName string, winning map[uuid.UUID]bool, totalPot int64, payouts []payout) {
	var winningNames []string
	for _, opt := range bet.Options {
		if winning[opt.ID] {
			winningNames = append(winningNames, opt.Name)
		}
	}

	var topPayout int64
	var topWinners []uuid.UUID
	for _, p := range payouts {
		if p.amount > topPayout {
			topPayout = p.amount
			topWinners = []uuid.UUID{p.userID}
		} else if p.amount == topPayout && topPayout > 0 {
			topWinners = append(topWinners, p.userID)
		}
	}

	s.publish(ctx, event.Event{
		Version: event.EventSchemaVersion,
		Type:    event.BetComplete,
		Payload: domain.BetCompletePayload{
			GameID:         bet.GameID,
			GameName:       gameName,
			BetID:          bet.ID,
			BetName:        bet.Name,
			WinningOptions: winningNames,
			TotalPot:       totalPot,
			WinnerCount:    len(payouts),
			TopPayout:      topPayout,
			TopWinnerIDs:   topWinners,
		},
	})
}

// applyPayoutsLocally mirrors the committed payout figures onto the
// returned bet copy
func (s *service) applyPayoutsLocally(bet *domain.Bet, payouts []payout) {
	for _, p := range payouts {
		opt := bet.FindOption(p.optionID)
		if opt == nil {
			continue
		}
		for j := range opt.Stakes {
			if opt.Stakes[j].UserID == p.userID {
				opt.Stakes[j].Payout = p.amount
			}
		}
	}
}

func sumPayouts(payouts []payout) int64 {
	var total int64
	for _, p := range payouts {
		total += p.amount
	}
	return total
}

func refID(id uuid.UUID) *uuid.UUID {
	return &id
}
