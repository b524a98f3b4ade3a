package entity

import "time"

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	IsStaff      bool
	DateJoined   time.Time
}

// Principal identifies who is making a request: an authenticated user, an
// anonymous session holding a basket, or both.
type Principal struct {
	User     *User
	BasketID *int64
	// TokenID identifies the session token the request was made with.
	TokenID string
}

func (p Principal) IsAnonymous() bool { return p.User == nil }

func (p Principal) IsStaff() bool { return p.User != nil && p.User.IsStaff }

// UserID returns the user's id or nil for anonymous requests.
func (p Principal) UserID() *int64 {
	if p.User == nil {
		return nil
	}
	id := p.User.ID
	return &id
}
