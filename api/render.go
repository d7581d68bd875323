package api

import (
	"bookie/models"
)

type balanceView struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

func renderBalances(entries []*models.BalanceEntry) []balanceView {
	views := make([]balanceView, len(entries))
	for i, e := range entries {
		views[i] = balanceView{UserID: e.UserID, Balance: e.Balance}
	}
	return views
}

type stakeView struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`
	Option string `json:"option"`
	Amount int64  `json:"amount"`
}

type marketView struct {
	ID        int64       `json:"id"`
	Question  string      `json:"question"`
	Options   []string    `json:"options"`
	CreatorID string      `json:"creator_id"`
	State     string      `json:"state"`
	Outcome   *string     `json:"outcome,omitempty"`
	TotalPot  int64       `json:"total_pot"`
	Stakes    []stakeView `json:"stakes"`
}

func renderMarketDetail(detail *models.MarketDetail) marketView {
	stakes := make([]stakeView, len(detail.Stakes))
	for i, s := range detail.Stakes {
		stakes[i] = stakeView{ID: s.ID, UserID: s.UserID, Option: s.Option, Amount: s.Amount}
	}
	return marketView{
		ID:        detail.Market.ID,
		Question:  detail.Market.Question,
		Options:   detail.Market.Options,
		CreatorID: detail.Market.CreatorID,
		State:     string(detail.Market.State),
		Outcome:   detail.Market.Outcome,
		TotalPot:  detail.TotalPot(),
		Stakes:    stakes,
	}
}

type userStakeView struct {
	MarketID int64  `json:"market_id"`
	Question string `json:"question"`
	Option   string `json:"option"`
	Amount   int64  `json:"amount"`
}

func renderUserStakes(userStakes []*models.UserStake) []userStakeView {
	views := make([]userStakeView, len(userStakes))
	for i, us := range userStakes {
		views[i] = userStakeView{
			MarketID: us.MarketID,
			Question: us.Question,
			Option:   us.Stake.Option,
			Amount:   us.Stake.Amount,
		}
	}
	return views
}

type payoutView struct {
	UserID        string `json:"user_id"`
	Winnings      int64  `json:"winnings"`
	OriginalStake int64  `json:"original_stake"`
	Profit        int64  `json:"profit"`
}

type refundView struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

type resolutionView struct {
	MarketID int64        `json:"market_id"`
	Outcome  string       `json:"outcome"`
	TotalPot int64        `json:"total_pot"`
	Winners  []payoutView `json:"winners"`
	Refunds  []refundView `json:"refunds"`
}

func renderResolution(result *models.ResolutionResult) resolutionView {
	winners := make([]payoutView, len(result.Winners))
	for i, p := range result.Winners {
		winners[i] = payoutView{
			UserID:        p.UserID,
			Winnings:      p.Winnings,
			OriginalStake: p.OriginalStake,
			Profit:        p.Profit,
		}
	}
	outcome := ""
	if result.Market.Outcome != nil {
		outcome = *result.Market.Outcome
	}
	return resolutionView{
		MarketID: result.Market.ID,
		Outcome:  outcome,
		TotalPot: result.TotalPot,
		Winners:  winners,
		Refunds:  renderRefunds(result.Refunds),
	}
}

type voidView struct {
	MarketID int64        `json:"market_id"`
	TotalPot int64        `json:"total_pot"`
	Refunds  []refundView `json:"refunds"`
}

func renderVoid(result *models.VoidResult) voidView {
	return voidView{
		MarketID: result.Market.ID,
		TotalPot: result.TotalPot,
		Refunds:  renderRefunds(result.Refunds),
	}
}

func renderRefunds(refunds []*models.Refund) []refundView {
	views := make([]refundView, len(refunds))
	for i, r := range refunds {
		views[i] = refundView{UserID: r.UserID, Amount: r.Amount}
	}
	return views
}
