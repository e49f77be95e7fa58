package history

import (
	"math"
	"strconv"
	"strings"

	"finhistory/internal/models"
)

// ParseUserID parses the userId query value. It accepts any finite integral
// number, surrounding whitespace included, in decimal or exponent notation or
// as an unsigned 0x, 0o or 0b literal. Digit separators and hex floats are
// rejected, as is zero, the same way as a missing value.
func ParseUserID(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsRune(s, '_') {
		return 0, ErrInvalidUserID
	}

	f, err := parseNumber(s)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidUserID
	}
	if f != math.Trunc(f) || math.Abs(f) > maxUserID {
		return 0, ErrInvalidUserID
	}

	// TODO: zero is a legal store identifier; confirm with the data owners
	// whether it should stop being treated as missing.
	if f == 0 {
		return 0, ErrInvalidUserID
	}
	return int64(f), nil
}

func parseNumber(s string) (float64, error) {
	if base := radixPrefix(s); base != 0 {
		n, err := strconv.ParseUint(s[2:], base, 64)
		if err != nil {
			return 0, err
		}
		return float64(n), nil
	}
	// ParseFloat also reads hex floats such as 0x1p4.
	if strings.ContainsAny(s, "xX") {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}

// radixPrefix returns the base named by a 0x, 0o or 0b prefix, or 0.
func radixPrefix(s string) int {
	if len(s) < 2 || s[0] != '0' {
		return 0
	}
	switch s[1] {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	}
	return 0
}

// SplitTransactions partitions transactions by type, keeping input order.
// Rows whose type is missing or unrecognized land in neither slice.
func SplitTransactions(transactions []models.Transaction) (deposits, withdrawals []models.Transaction) {
	deposits = []models.Transaction{}
	withdrawals = []models.Transaction{}

	for _, tx := range transactions {
		if tx.Type == nil {
			continue
		}
		switch strings.ToLower(*tx.Type) {
		case models.TransactionTypeDeposit:
			deposits = append(deposits, tx)
		case models.TransactionTypeWithdrawal:
			withdrawals = append(withdrawals, tx)
		}
	}
	return deposits, withdrawals
}

// ProjectInvestments maps investments onto their public fields, keeping input order.
func ProjectInvestments(investments []models.Investment) []models.InvestmentRecord {
	records := make([]models.InvestmentRecord, 0, len(investments))
	for _, inv := range investments {
		records = append(records, inv.Record())
	}
	return records
}

// FailedEnvelope is returned when the store could not be read.
func FailedEnvelope() models.HistoryEnvelope {
	return models.HistoryEnvelope{
		Success:           false,
		Message:           MessageFetchFailed,
		DepositHistory:    []models.Transaction{},
		WithdrawalHistory: []models.Transaction{},
		InvestmentHistory: []models.InvestmentRecord{},
	}
}
