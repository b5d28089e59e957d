package domain

// Roles carried in the session JWT. Directors manage projects and tasks;
// contractors execute the tasks assigned to them.
const (
	RoleDirector   = "director"
	RoleContractor = "contractor"
)

// Position is the professional position a user registers with.
type Position string

const (
	PositionDeveloper Position = "Developer"
	PositionManager   Position = "Manager"
	PositionTester    Position = "Tester"
)
