package domain

import "time"

// UserRole describes which sides of the marketplace a user may act on.
type UserRole string

const (
	UserRolePassenger UserRole = "PASSENGER"
	UserRoleDriver    UserRole = "DRIVER"
	UserRoleBoth      UserRole = "BOTH"
)

// User represents a registered user. Reputation fields are mutated only by
// the rating aggregator.
type User struct {
	ID    string
	Name  string
	Phone string

	Role          UserRole
	PhoneVerified bool

	RatingAverage float64
	TotalRatings  int

	TripsAsDriver    int
	TripsAsPassenger int

	CreatedAt time.Time
}

// IsDriver reports whether the user may publish trips.
func (u *User) IsDriver() bool {
	return u.Role == UserRoleDriver || u.Role == UserRoleBoth
}

// IsPassenger reports whether the user may reserve seats.
func (u *User) IsPassenger() bool {
	return u.Role == UserRolePassenger || u.Role == UserRoleBoth
}
