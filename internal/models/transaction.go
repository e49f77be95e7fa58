package models

import (
	"time"
)

// Transaction types recognized by the history endpoint. Matching is case-insensitive.
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
)

// Transaction is a deposit or withdrawal written by the funding flows.
// Type is nullable; rows without one never show up in history.
type Transaction struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"userId"`
	Type      *string   `json:"type"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Status    string    `gorm:"not null;default:'pending'" json:"status"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
