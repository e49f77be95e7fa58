package repositories

import (
	"context"

	"finhistory/internal/models"

	"gorm.io/gorm"
)

// HistoryRepository lists a user's records, newest first.
type HistoryRepository interface {
	ListTransactionsByUser(ctx context.Context, userID int64) ([]models.Transaction, error)
	ListInvestmentsByUser(ctx context.Context, userID int64) ([]models.Investment, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) ListTransactionsByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&transactions).Error
	return transactions, err
}

// ListInvestmentsByUser selects only models.InvestmentColumns; the remaining
// fields of the returned rows are left zero.
func (r *historyRepository) ListInvestmentsByUser(ctx context.Context, userID int64) ([]models.Investment, error) {
	var records []models.Investment
	err := r.db.WithContext(ctx).
		Model(&models.Investment{}).
		Select(models.InvestmentColumns).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&records).Error
	return records, err
}
