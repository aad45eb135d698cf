// Package identity is the engine's view of the external user directory.
// Registration, verification and password handling live elsewhere; the core
// only reads id, role and the verified flag.
package identity

// Role enumerates the user types the donation engine distinguishes.
type Role string

const (
	RoleDonor     Role = "Donor"
	RoleRecipient Role = "Recipient"
	RoleAdmin     Role = "Admin"
)

// User is the directory record the engine consumes.
type User struct {
	ID       string
	Name     string
	Role     Role
	Verified bool
}
