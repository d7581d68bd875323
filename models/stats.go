package models

// SystemStats holds diagnostic counts across the whole store
type SystemStats struct {
	Users           int64
	OpenMarkets     int64
	ResolvedMarkets int64
	VoidedMarkets   int64
	Stakes          int64
	TotalStaked     int64
}
