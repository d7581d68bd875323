package models

// Stake represents a user's credit commitment to one option of a market.
// Stakes are immutable once created; a user may hold several per market.
type Stake struct {
	ID       int64  `db:"id"`
	MarketID int64  `db:"market_id"`
	UserID   string `db:"user_id"`
	Option   string `db:"option"`
	Amount   int64  `db:"amount"`
}

// UserStake is a user's open stake joined with its market's question
type UserStake struct {
	MarketID int64  `db:"market_id"`
	Question string `db:"question"`
	Stake    *Stake
}

// WinnerPayout reports the credits returned to one winning stake
type WinnerPayout struct {
	UserID        string
	Winnings      int64
	OriginalStake int64
	Profit        int64
}

// Refund reports a stake returned at its original amount
type Refund struct {
	UserID string
	Amount int64
}

// ResolutionResult is the outcome of resolving a market
type ResolutionResult struct {
	Market   *Market
	TotalPot int64
	Winners  []*WinnerPayout
	// Refunds is populated only when no stake matched the outcome
	Refunds []*Refund
}

// VoidResult is the outcome of voiding a market
type VoidResult struct {
	Market   *Market
	TotalPot int64
	Refunds  []*Refund
}
