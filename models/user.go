package models

// User represents a credit holder identified by an opaque handle
type User struct {
	UserID  string `db:"user_id"`
	Balance int64  `db:"balance"`
}

// BalanceEntry is a scoreboard row returned by balance listings
type BalanceEntry struct {
	UserID  string `db:"user_id"`
	Balance int64  `db:"balance"`
}

// BalanceAdjustment reports the effect of a ledger adjustment
type BalanceAdjustment struct {
	UserID     string
	OldBalance int64
	NewBalance int64
}
