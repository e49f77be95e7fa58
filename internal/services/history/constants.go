package history

// Response messages. These are part of the public contract.
const (
	MessageInvalidUserID = "Missing or invalid userId"
	MessageFetchFailed   = "Failed to fetch transactions"
)

// Request outcomes reported to the metrics collector.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultFailed  = "failed"
)

// Record kinds reported to the metrics collector.
const (
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
	KindInvestment = "investment"
)

// maxUserID is the largest integer a float64 represents exactly.
const maxUserID = 1 << 53
