// Package inventory is the ledger of donated item stock. Reserve and release
// are the only mutations; quantity never goes negative.
package inventory

import "time"

// Item is a catalog entry owned by a donor.
type Item struct {
	ID        string
	Name      string
	Category  string
	Quantity  int
	DonorID   string
	Approved  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line pairs an item with a quantity, used for batched reservations.
type Line struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}
