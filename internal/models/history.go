package models

// HistoryEnvelope is the body of a history response. The three arrays are
// always present, even when empty.
type HistoryEnvelope struct {
	Success           bool               `json:"success"`
	Message           string             `json:"message,omitempty"`
	DepositHistory    []Transaction      `json:"depositHistory"`
	WithdrawalHistory []Transaction      `json:"withdrawalHistory"`
	InvestmentHistory []InvestmentRecord `json:"investmentHistory"`
}

// ErrorResponse is returned when the request is rejected before any lookup.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HistorySnapshot is the client-side view of an envelope after normalization.
type HistorySnapshot struct {
	DepositHistory    []Transaction      `json:"depositHistory"`
	WithdrawalHistory []Transaction      `json:"withdrawalHistory"`
	InvestmentHistory []InvestmentRecord `json:"investmentHistory"`
}

// EmptySnapshot returns a snapshot whose arrays are non-nil and empty.
func EmptySnapshot() HistorySnapshot {
	return HistorySnapshot{
		DepositHistory:    []Transaction{},
		WithdrawalHistory: []Transaction{},
		InvestmentHistory: []InvestmentRecord{},
	}
}
