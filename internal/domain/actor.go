package domain

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsDirector() bool { return a.Role == RoleDirector }
