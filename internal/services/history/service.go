package history

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"finhistory/internal/models"
	"finhistory/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service assembles a user's deposit, withdrawal and investment history.
type Service interface {
	GetHistory(ctx context.Context, userID int64) (models.HistoryEnvelope, error)
}

type service struct {
	repo    repositories.HistoryRepository
	log     *zap.Logger
	metrics MetricsCollector
}

// NewService creates a new history service
func NewService(repo repositories.HistoryRepository, log *zap.Logger, metrics MetricsCollector) Service {
	if repo == nil {
		panic("repo is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		log:     log,
		metrics: metrics,
	}
}

// GetHistory reads both record sets concurrently. If either read fails the
// result is FailedEnvelope and the error wraps ErrFetchFailed; a zero userID
// returns ErrInvalidUserID without touching the repository.
func (s *service) GetHistory(ctx context.Context, userID int64) (models.HistoryEnvelope, error) {
	start := time.Now()

	if userID == 0 {
		s.metrics.RecordRequest(ResultInvalid, time.Since(start))
		return models.HistoryEnvelope{Success: false, Message: MessageInvalidUserID}, ErrInvalidUserID
	}

	var (
		transactions []models.Transaction
		investments  []models.Investment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = s.repo.ListTransactionsByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		investments, err = s.repo.ListInvestmentsByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("list investments: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Error("Transaction fetch error", zap.Int64("user_id", userID), zap.Error(err))
		s.metrics.RecordRequest(ResultFailed, time.Since(start))
		return FailedEnvelope(), fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	deposits, withdrawals := SplitTransactions(transactions)
	envelope := models.HistoryEnvelope{
		Success:           true,
		DepositHistory:    deposits,
		WithdrawalHistory: withdrawals,
		InvestmentHistory: ProjectInvestments(investments),
	}

	s.metrics.RecordRecords(KindDeposit, len(envelope.DepositHistory))
	s.metrics.RecordRecords(KindWithdrawal, len(envelope.WithdrawalHistory))
	s.metrics.RecordRecords(KindInvestment, len(envelope.InvestmentHistory))
	s.metrics.RecordRequest(ResultSuccess, time.Since(start))

	return envelope, nil
}

// StatusFor maps a GetHistory error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidUserID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
