package repositories

import (
	"context"
	"fmt"

	"finhistory/internal/models"

	"gorm.io/gorm"
)

// Seed inserts transactions and investments in a single database transaction.
func Seed(ctx context.Context, db *gorm.DB, transactions []models.Transaction, investments []models.Investment) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(transactions) > 0 {
			if err := tx.Create(&transactions).Error; err != nil {
				return fmt.Errorf("failed to create transactions: %w", err)
			}
		}
		if len(investments) > 0 {
			if err := tx.Create(&investments).Error; err != nil {
				return fmt.Errorf("failed to create investments: %w", err)
			}
		}
		return nil
	})
}

// DeleteUserHistory removes every transaction and investment owned by userID.
func DeleteUserHistory(ctx context.Context, db *gorm.DB, userID int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Transaction{}).Error; err != nil {
			return fmt.Errorf("failed to delete transactions: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Investment{}).Error; err != nil {
			return fmt.Errorf("failed to delete investments: %w", err)
		}
		return nil
	})
}
