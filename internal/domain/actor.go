package domain

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Email  string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanAccess reports whether the actor may read or change data owned by userID.
func (a Actor) CanAccess(userID string) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == userID)
}

// ErrNotOwner is returned when an actor touches another user's data.
var ErrNotOwner = NewError(ErrForbidden, "You do not have access to this resource")
