package model

// Role decides what an actor may do to an order. Customers own their orders,
// staff run the studio, and system is reserved for transitions the platform
// performs on its own (e.g. moving a fully produced order to quality check).
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleSystem   Role = "system"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleStaff || r == RoleSystem
}

// Actor is who performed an action, as recorded in audit history and events.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// System is the actor stamped on platform-initiated changes.
var System = Actor{ID: "system", Role: RoleSystem}
