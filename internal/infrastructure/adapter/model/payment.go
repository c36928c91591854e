package model

import (
	"time"
)

// PaymentTransaction represents the database model for payment transactions.
// The challenge columns are populated only while a 3DS step-up is
// outstanding; the composite index over the token pair backs the secondary
// challenge lookup.
type PaymentTransaction struct {
	ID                    uint64    `gorm:"primaryKey;autoIncrement"`
	PurchaseID            string    `gorm:"uniqueIndex;not null;size:255"`
	Status                string    `gorm:"not null;size:50;index"`
	ChallengeMethod       *string   `gorm:"size:10"`
	ChallengeRequestToken *string   `gorm:"size:1024;index:idx_challenge_tokens"`
	ChallengeContextToken *string   `gorm:"size:1024;index:idx_challenge_tokens"`
	ChallengeRedirectURL  *string   `gorm:"size:2048"`
	ChallengeCallbackURL  *string   `gorm:"size:2048"`
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time `gorm:"not null"`
}

// TableName specifies the table name for PaymentTransaction
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
