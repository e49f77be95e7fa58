package models

import "time"

// Investment is a user's position in an investment plan.
type Investment struct {
	ID        uint      `gorm:"primarykey"`
	UserID    int64     `gorm:"index;not null"`
	PlanName  string    `gorm:"not null"`
	Amount    float64   `gorm:"not null"`
	ROI       float64   `gorm:"column:roi;default:0"`
	Duration  string    `gorm:"not null"`
	Status    string    `gorm:"not null;default:'active'"`
	StartDate time.Time `gorm:"not null"`
	EndDate   *time.Time
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// InvestmentColumns is the allow-list of columns exposed through InvestmentRecord.
var InvestmentColumns = []string{
	"id",
	"plan_name",
	"amount",
	"roi",
	"duration",
	"status",
	"start_date",
	"end_date",
	"created_at",
}

// InvestmentRecord is the public projection of an Investment.
type InvestmentRecord struct {
	ID        uint       `json:"id"`
	PlanName  string     `json:"planName"`
	Amount    float64    `json:"amount"`
	ROI       float64    `json:"roi"`
	Duration  string     `json:"duration"`
	Status    string     `json:"status"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Record projects the investment onto its public fields.
func (i Investment) Record() InvestmentRecord {
	return InvestmentRecord{
		ID:        i.ID,
		PlanName:  i.PlanName,
		Amount:    i.Amount,
		ROI:       i.ROI,
		Duration:  i.Duration,
		Status:    i.Status,
		StartDate: i.StartDate,
		EndDate:   i.EndDate,
		CreatedAt: i.CreatedAt,
	}
}
