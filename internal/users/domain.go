package users

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// User is the read-only reference to an account owned by the auth service.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ref is the trimmed projection embedded in resolved orders.
type Ref struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// Ref returns the trimmed projection of u.
func (u User) Ref() Ref {
	return Ref{ID: u.ID, Username: u.Username, Email: u.Email, Name: u.Name}
}

// ErrNotFound indicates the user could not be resolved.
var ErrNotFound = fmt.Errorf("user %w", shared.ErrNotFound)
