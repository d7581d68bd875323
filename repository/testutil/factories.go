package testutil

import (
	"bookie/models"
)

// CreateTestUser creates a test user with the default starting balance
func CreateTestUser(userID string) *models.User {
	return &models.User{
		UserID:  userID,
		Balance: 1000,
	}
}

// CreateTestUserWithBalance creates a test user with a specific balance
func CreateTestUserWithBalance(userID string, balance int64) *models.User {
	user := CreateTestUser(userID)
	user.Balance = balance
	return user
}

// CreateTestMarket creates an open test market with sensible defaults
func CreateTestMarket(creatorID, question string, options ...string) *models.Market {
	if len(options) == 0 {
		options = []string{"yes", "no"}
	}
	return &models.Market{
		Question:  question,
		Options:   options,
		CreatorID: creatorID,
		State:     models.MarketStateOpen,
	}
}

// CreateTestStake creates a test stake on the given market and option
func CreateTestStake(marketID int64, userID, option string, amount int64) *models.Stake {
	return &models.Stake{
		MarketID: marketID,
		UserID:   userID,
		Option:   option,
		Amount:   amount,
	}
}
