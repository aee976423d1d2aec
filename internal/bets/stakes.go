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

// PlaceStake debits the user and records a stake on one option of a
// Voting bet. A user holds at most one stake per bet; switching options
// means withdrawing first. The stake may push the balance negative within
// the debt ceiling, and a message is only accepted on notable amounts.
func (s *service) PlaceStake(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int, amount int64, message string) (*domain.Bet, error) {
	log := logger.FromContext(ctx)

	message = strings.TrimSpace(message)
	if err := s.validateStakeInput(amount, message); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	bet, opt, err := s.loadVotingOption(ctx, tx, betID, optionID)
	if err != nil {
		return nil, err
	}

	if prevOpt, _ := bet.StakeByUser(actingUserID); prevOpt != nil {
		if prevOpt.ID == optionID {
			return nil, fmt.Errorf("%w: stake already placed, change it instead", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: user already staked option %q on this bet", domain.ErrInvalidInput, prevOpt.Name)
	}

	// Bump the bet version so concurrent lifecycle edits conflict with
	// stake placement, then move the money.
	if err := tx.UpdateBet(ctx, bet, expectedVersion); err != nil {
		return nil, err
	}
	bet.Version = expectedVersion + 1

	ref := account.Ref{BetID: &bet.ID, OptionID: &opt.ID}
	balance, err := s.debitStake(ctx, tx, actingUserID, amount, domain.AuditStakePlaced, ref)
	if err != nil {
		return nil, err
	}

	stake := &domain.Stake{
		OptionID: optionID,
		BetID:    betID,
		UserID:   actingUserID,
		Amount:   amount,
		Message:  message,
		PlacedAt: time.Now(),
	}
	if err := tx.UpsertStake(ctx, stake); err != nil {
		return nil, fmt.Errorf("failed to store stake: %w", err)
	}

	user, err := tx.GetUser(ctx, actingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Stake placed",
		"bet_id", betID,
		"option_id", optionID,
		"user_id", actingUserID,
		"amount", amount,
		"balance", balance)
	metrics.StakesPlaced.Inc()
	metrics.StakeVolume.Add(float64(amount))

	opt.Stakes = append(opt.Stakes, *stake)
	s.publishNotableStake(ctx, bet, opt, user, amount, message)
	return bet, nil
}

// ChangeStake moves an existing stake on the given option to a new
// amount, settling only the difference against the balance. The placement
// time is refreshed so notable-stake ordering reflects the change.
func (s *service) ChangeStake(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int, newAmount int64, message string) (*domain.Bet, error) {
	log := logger.FromContext(ctx)

	message = strings.TrimSpace(message)
	if err := s.validateStakeInput(newAmount, message); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	bet, opt, err := s.loadVotingOption(ctx, tx, betID, optionID)
	if err != nil {
		return nil, err
	}

	stake := findStake(opt, actingUserID)
	if stake == nil {
		return nil, fmt.Errorf("%w: no stake on this option to change", domain.ErrStakeNotFound)
	}
	if stake.Amount == newAmount && stake.Message == message {
		return nil, fmt.Errorf("%w: stake is unchanged", domain.ErrInvalidInput)
	}

	if err := tx.UpdateBet(ctx, bet, expectedVersion); err != nil {
		return nil, err
	}
	bet.Version = expectedVersion + 1

	ref := account.Ref{BetID: &bet.ID, OptionID: &opt.ID}
	diff := newAmount - stake.Amount
	switch {
	case diff > 0:
		if _, err := s.debitStake(ctx, tx, actingUserID, diff, domain.AuditStakeChanged, ref); err != nil {
			return nil, err
		}
	case diff < 0:
		if _, err := account.Credit(ctx, tx, actingUserID, -diff, domain.AuditStakeChanged, ref); err != nil {
			return nil, err
		}
	}

	stake.Amount = newAmount
	stake.Message = message
	stake.PlacedAt = time.Now()
	if err := tx.UpsertStake(ctx, stake); err != nil {
		return nil, fmt.Errorf("failed to update stake: %w", err)
	}

	user, err := tx.GetUser(ctx, actingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Stake changed",
		"bet_id", betID,
		"option_id", optionID,
		"user_id", actingUserID,
		"amount", newAmount,
		"diff", diff)
	if diff > 0 {
		metrics.StakeVolume.Add(float64(diff))
	}

	s.publishNotableStake(ctx, bet, opt, user, newAmount, message)
	return bet, nil
}

// WithdrawStake removes the user's stake from a Voting bet and credits
// the full amount back.
func (s *service) WithdrawStake(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int) (*domain.Bet, error) {
	log := logger.FromContext(ctx)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	bet, opt, err := s.loadVotingOption(ctx, tx, betID, optionID)
	if err != nil {
		return nil, err
	}

	stake := findStake(opt, actingUserID)
	if stake == nil {
		return nil, fmt.Errorf("%w: no stake on this option to withdraw", domain.ErrStakeNotFound)
	}

	if err := tx.UpdateBet(ctx, bet, expectedVersion); err != nil {
		return nil, err
	}
	bet.Version = expectedVersion + 1

	ref := account.Ref{BetID: &bet.ID, OptionID: &opt.ID}
	if _, err := account.Credit(ctx, tx, actingUserID, stake.Amount, domain.AuditStakeWithdrawn, ref); err != nil {
		return nil, err
	}
	if err := tx.DeleteStake(ctx, optionID, actingUserID); err != nil {
		return nil, fmt.Errorf("failed to delete stake: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Stake withdrawn",
		"bet_id", betID,
		"option_id", optionID,
		"user_id", actingUserID,
		"amount", stake.Amount)

	removeStake(opt, actingUserID)
	return bet, nil
}

func (s *service) validateStakeInput(amount int64, message string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: stake amount must be positive, got %d", domain.ErrInvalidInput, amount)
	}
	if message != "" && amount < s.cfg.NotableStake {
		return fmt.Errorf("%w: messages are reserved for stakes of %d or more", domain.ErrInvalidInput, s.cfg.NotableStake)
	}
	return nil
}

// debitStake applies the staking debt rules on top of the ledger's floor:
// a debit that leaves the balance negative may not itself exceed the
// ceiling, and the resulting balance may not drop below its negation.
func (s *service) debitStake(ctx context.Context, tx repository.LedgerTx, userID uuid.UUID, amount int64, kind domain.AuditKind, ref account.Ref) (int64, error) {
	balance, err := account.Debit(ctx, tx, userID, amount, s.cfg.MaxStakeWhileInDebt, kind, ref)
	if err != nil {
		return 0, err
	}
	if balance < 0 && amount > s.cfg.MaxStakeWhileInDebt {
		return 0, fmt.Errorf("%w: a stake of %d cannot take the balance negative (limit %d)",
			domain.ErrInsufficientFunds, amount, s.cfg.MaxStakeWhileInDebt)
	}
	return balance, nil
}

// loadVotingOption loads the bet and resolves the option, rejecting any
// bet no longer open for staking.
func (s *service) loadVotingOption(ctx context.Context, tx repository.BetsTx, betID, optionID uuid.UUID) (*domain.Bet, *domain.Option, error) {
	bet, err := s.loadBetForUpdate(ctx, tx, betID)
	if err != nil {
		return nil, nil, err
	}

	switch bet.Progress {
	case domain.BetProgressVoting:
	case domain.BetProgressLocked, domain.BetProgressComplete, domain.BetProgressCancelled:
		return nil, nil, fmt.Errorf("%w: bet is %s, staking is closed", domain.ErrInvalidState, bet.Progress)
	default:
		return nil, nil, fmt.Errorf("%w: unknown progress %q", domain.ErrInvalidState, bet.Progress)
	}

	opt := bet.FindOption(optionID)
	if opt == nil {
		return nil, nil, fmt.Errorf("%w: option %s does not belong to bet %s", domain.ErrOptionNotFound, optionID, betID)
	}
	return bet, opt, nil
}

func (s *service) publishNotableStake(ctx context.Context, bet *domain.Bet, opt *domain.Option, user *domain.User, amount int64, message string) {
	if amount < s.cfg.NotableStake {
		return
	}
	userName := ""
	if user != nil {
		userName = user.Name
	}
	s.publish(ctx, event.Event{
		Version: event.EventSchemaVersion,
		Type:    event.NotableStake,
		Payload: domain.NotableStakePayload{
			GameID:     bet.GameID,
			GameName:   s.gameName(ctx, bet.GameID),
			BetID:      bet.ID,
			BetName:    bet.Name,
			OptionID:   opt.ID,
			OptionName: opt.Name,
			UserID:     user.ID,
			UserName:   userName,
			Amount:     amount,
			Message:    message,
		},
	})
}

func findStake(opt *domain.Option, userID uuid.UUID) *domain.Stake {
	for i := range opt.Stakes {
		if opt.Stakes[i].UserID == userID {
			return &opt.Stakes[i]
		}
	}
	return nil
}

func removeStake(opt *domain.Option, userID uuid.UUID) {
	for i := range opt.Stakes {
		if opt.Stakes[i].UserID == userID {
			opt.Stakes = append(opt.Stakes[:i], opt.Stakes[i+1:]...)
			return
		}
	}
}
