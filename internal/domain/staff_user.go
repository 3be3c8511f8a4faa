package domain

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAdmin     StaffRole = "Admin"
	StaffRoleStaff     StaffRole = "Staff"
	StaffRoleRequester StaffRole = "Requester"
)

// StaffUser is an internal operator used for assignment and requester pickers.
type StaffUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         StaffRole `json:"role"`
	Department   string    `json:"department"`
	PasswordHash string    `json:"passwordHash,omitempty"`
}
