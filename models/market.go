package models

import (
	"strings"
	"time"
)

// MarketState represents the lifecycle state of a market
type MarketState string

const (
	MarketStateOpen     MarketState = "open"
	MarketStateResolved MarketState = "resolved"
	MarketStateVoided   MarketState = "voided"
)

// Market represents a prediction with a finite set of mutually exclusive options
type Market struct {
	ID        int64       `db:"id"`
	Question  string      `db:"question"`
	Options   []string    `db:"options"`
	CreatorID string      `db:"creator_id"`
	State     MarketState `db:"state"`
	Outcome   *string     `db:"outcome"`
	CreatedAt time.Time   `db:"created_at"`
}

// IsOpen checks if the market still accepts stakes
func (m *Market) IsOpen() bool {
	return m.State == MarketStateOpen
}

// IsSettled checks if the market has been resolved or voided
func (m *Market) IsSettled() bool {
	return m.State == MarketStateResolved || m.State == MarketStateVoided
}

// FindOption returns the stored option matching s case-insensitively.
// The returned string carries the original casing for display.
func (m *Market) FindOption(s string) (string, bool) {
	for _, opt := range m.Options {
		if OptionEqual(opt, s) {
			return opt, true
		}
	}
	return "", false
}

// OptionEqual compares two option strings the way the whole system does:
// whitespace-trimmed and case-folded. Stored values keep their original case.
func OptionEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// CleanOptions trims every option and drops empties, preserving order and case.
func CleanOptions(raw []string) []string {
	cleaned := make([]string, 0, len(raw))
	for _, opt := range raw {
		opt = strings.TrimSpace(opt)
		if opt != "" {
			cleaned = append(cleaned, opt)
		}
	}
	return cleaned
}

// HasDuplicateOptions reports whether any two options collide case-insensitively
func HasDuplicateOptions(options []string) bool {
	for i := range options {
		for j := i + 1; j < len(options); j++ {
			if OptionEqual(options[i], options[j]) {
				return true
			}
		}
	}
	return false
}

// MarketDetail combines a market with all stakes placed on it
type MarketDetail struct {
	Market *Market
	Stakes []*Stake
}

// TotalPot sums every stake on the market
func (d *MarketDetail) TotalPot() int64 {
	var total int64
	for _, s := range d.Stakes {
		total += s.Amount
	}
	return total
}
