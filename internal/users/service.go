package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-commerce/internal/shared"
)

// Store is the persistence contract for the directory.
type Store interface {
	GetUser(ctx context.Context, id string) (User, error)
	FindUser(ctx context.Context, idOrUsername string) (User, error)
	GetUsers(ctx context.Context, ids []string) ([]User, error)
}

// Directory resolves user references for other modules.
type Directory struct {
	store Store
}

// NewDirectory constructs the directory.
func NewDirectory(store Store) *Directory {
	return &Directory{store: store}
}

// Resolve finds a user by id or username.
func (d *Directory) Resolve(ctx context.Context, idOrUsername string) (User, error) {
	key := strings.TrimSpace(idOrUsername)
	if key == "" {
		return User{}, fmt.Errorf("%w: user id or username required", shared.ErrInvalidInput)
	}
	return d.store.FindUser(ctx, key)
}

// Refs returns the trimmed references for the given ids keyed by id.
func (d *Directory) Refs(ctx context.Context, ids []string) (map[string]Ref, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	found, err := d.store.GetUsers(ctx, unique)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Ref, len(found))
	for _, u := range found {
		out[u.ID] = u.Ref()
	}
	return out, nil
}
