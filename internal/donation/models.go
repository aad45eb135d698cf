// Package donation owns the donation lifecycle: creation with inventory
// reservation, the exactly-once claim transition, forward-only status
// advancement, and role-based visibility.
package donation

import (
	"time"

	"foodbridge/internal/inventory"
	"foodbridge/internal/payment"
)

// Status is a donation's position in its lifecycle.
type Status string

const (
	StatusPending          Status = "Pending"
	StatusClaimed          Status = "Claimed"
	StatusReadyForDelivery Status = "ReadyForDelivery"
	StatusDelivered        Status = "Delivered"
	// StatusDeleted is terminal and reachable only from Pending. Deleted
	// donations are removed from the store; the status exists for audit
	// records.
	StatusDeleted Status = "Deleted"
)

// statusRank orders the forward path. Deleted is outside the path.
var statusRank = map[Status]int{
	StatusPending:          0,
	StatusClaimed:          1,
	StatusReadyForDelivery: 2,
	StatusDelivered:        3,
}

// Type discriminates the payload variant.
type Type string

const (
	TypeFoodItems Type = "food_items"
	TypeMoney     Type = "money"
)

// FoodItemsPayload lists the reserved inventory lines.
type FoodItemsPayload struct {
	Lines []inventory.Line `json:"lines"`
}

// MoneyPayload records the authorized monetary gift.
type MoneyPayload struct {
	Amount        int64                 `json:"amount"` // minor units
	Currency      string                `json:"currency"`
	Authorization payment.Authorization `json:"authorization"`
}

// Donation is the aggregate. Exactly one of FoodItems and Money is set,
// selected by Type.
type Donation struct {
	ID                string
	DonorID           string
	RecipientID       string // set iff status is not Pending
	Type              Type
	FoodItems         *FoodItemsPayload
	Money             *MoneyPayload
	Status            Status
	StatusDescription string
	Approved          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AdvanceAllowed reports whether from -> to is a legal advance. Claiming is
// not an advance; it has its own guarded transition. Money donations with no
// physical fulfillment may jump straight from Pending to Delivered.
func AdvanceAllowed(donationType Type, from, to Status) bool {
	if donationType == TypeMoney && from == StatusPending && to == StatusDelivered {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank == fromRank+1 && to != StatusClaimed
}
