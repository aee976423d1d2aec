package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/session"
)

// Hand-written testify mocks for the service interfaces the handlers use.

// MockAccountService mocks account.Service
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, slug, name string) (*domain.User, error) {
	args := m.Called(ctx, slug, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAccountService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAccountService) GetUserBySlug(ctx context.Context, slug string) (*domain.User, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAccountService) ListUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockAccountService) Gift(ctx context.Context, actingUserID, targetUserID uuid.UUID, amount int64, reason string) (*domain.User, error) {
	args := m.Called(ctx, actingUserID, targetUserID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAccountService) Bankrupt(ctx context.Context, actingUserID, targetUserID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, actingUserID, targetUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockBetsService mocks bets.Service
type MockBetsService struct {
	mock.Mock
}

func (m *MockBetsService) betOrNil(args mock.Arguments) (*domain.Bet, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bet), args.Error(1)
}

func (m *MockBetsService) CreateGame(ctx context.Context, actingUserID uuid.UUID, name string, progress domain.GameProgress, order *int) (*domain.Game, error) {
	args := m.Called(ctx, actingUserID, name, progress, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Game), args.Error(1)
}

func (m *MockBetsService) UpdateGame(ctx context.Context, actingUserID, gameID uuid.UUID, expectedVersion int, name string, progress domain.GameProgress) (*domain.Game, error) {
	args := m.Called(ctx, actingUserID, gameID, expectedVersion, name, progress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Game), args.Error(1)
}

func (m *MockBetsService) GetGame(ctx context.Context, gameID uuid.UUID) (*domain.Game, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Game), args.Error(1)
}

func (m *MockBetsService) ListGames(ctx context.Context) ([]domain.Game, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Game), args.Error(1)
}

func (m *MockBetsService) AddLockMoment(ctx context.Context, actingUserID, gameID uuid.UUID, name string, order int) (*domain.LockMoment, error) {
	args := m.Called(ctx, actingUserID, gameID, name, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LockMoment), args.Error(1)
}

func (m *MockBetsService) ListLockMoments(ctx context.Context, gameID uuid.UUID) ([]domain.LockMoment, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LockMoment), args.Error(1)
}

func (m *MockBetsService) LockAtMoment(ctx context.Context, actingUserID, lockMomentID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, actingUserID, lockMomentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockBetsService) CreateBet(ctx context.Context, actingUserID, gameID, lockMomentID uuid.UUID, name string, options []string) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, gameID, lockMomentID, name, options))
}

func (m *MockBetsService) GetBet(ctx context.Context, betID uuid.UUID) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, betID))
}

func (m *MockBetsService) ListBets(ctx context.Context, gameID uuid.UUID) ([]domain.Bet, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bet), args.Error(1)
}

func (m *MockBetsService) AddOption(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int, name string) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, betID, expectedVersion, name))
}

func (m *MockBetsService) RenameOption(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int, name string) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, betID, optionID, expectedVersion, name))
}

func (m *MockBetsService) RemoveOption(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, betID, optionID, expectedVersion))
}

func (m *MockBetsService) Lock(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, betID, expectedVersion))
}

func (m *MockBetsService) Unlock(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, betID, expectedVersion))
}

func (m *MockBetsService) Complete(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int, winningOptionIDs []uuid.UUID) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, betID, expectedVersion, winningOptionIDs))
}

func (m *MockBetsService) RevertComplete(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, betID, expectedVersion))
}

func (m *MockBetsService) Cancel(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int, reason string) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, betID, expectedVersion, reason))
}

func (m *MockBetsService) RevertCancel(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, betID, expectedVersion))
}

func (m *MockBetsService) PlaceStake(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int, amount int64, message string) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, betID, optionID, expectedVersion, amount, message))
}

func (m *MockBetsService) ChangeStake(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int, newAmount int64, message string) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, betID, optionID, expectedVersion, newAmount, message))
}

func (m *MockBetsService) WithdrawStake(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int) (*domain.Bet, error) {
	return m.betOrNil(m.Called(ctx, actingUserID, betID, optionID, expectedVersion))
}

// MockAuditService mocks audit.Service
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) UserHistory(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

func (m *MockAuditService) BetHistory(ctx context.Context, betID uuid.UUID) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

// MockNotificationService mocks notification.Service
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, userID uuid.UUID, limit int, unreadOnly bool) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, limit, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// request builders

// newJSONRequest marshals body (unless it is a raw string) into a request
func newJSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = bytes.NewBuffer(nil)
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		buf = bytes.NewBuffer(raw)
	}
	return httptest.NewRequest(method, target, buf)
}

// withURLParams attaches chi route parameters to the request context
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// asUser stamps the request with a session-authenticated user
func asUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(session.WithUserID(r.Context(), userID))
}
