package donation

import "context"

// Filter narrows List to the caller's visibility.
type Filter struct {
	// DonorID restricts to one donor's donations.
	DonorID string
	// OpenOnly restricts to approved donations still in Pending, the set a
	// recipient may browse and claim.
	OpenOnly bool
}

// Store persists donations.
//
// Claim, Advance and Delete are conditional writes guarded on the current
// status. They return sentinel.ErrNotFound when the donation is absent and
// sentinel.ErrConflict when the guard fails, without mutating anything.
type Store interface {
	Create(ctx context.Context, d Donation) error
	Get(ctx context.Context, id string) (Donation, error)
	List(ctx context.Context, f Filter) ([]Donation, error)

	// Claim atomically sets the recipient, status Claimed and the given
	// description, only if the donation is still Pending.
	Claim(ctx context.Context, id, recipientID, description string) (Donation, error)

	// Advance atomically moves status from -> to, only if the current
	// status equals from.
	Advance(ctx context.Context, id string, from, to Status, description string) (Donation, error)

	// Delete removes the donation, only while it is Pending.
	Delete(ctx context.Context, id string) error

	// SetApproval flips the approval flag.
	SetApproval(ctx context.Context, id string, approved bool) (Donation, error)
}
