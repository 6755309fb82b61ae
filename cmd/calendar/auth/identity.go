package auth

import (
	"calendar-backend/cmd/calendar/model"
	"context"
)

// Identity is the signed-in user for the duration of one request.
type Identity struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CountryID *int64     `json:"country_id"`
}

func IdentityOf(u model.User) Identity {
	return Identity{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CountryID: u.CountryID,
	}
}

func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// ForcedCountry is the country a user's events always carry, or nil when the
// user may choose one.
func (i Identity) ForcedCountry() *int64 {
	if i.CountryID == nil || *i.CountryID <= 0 {
		return nil
	}
	return i.CountryID
}

type ctxKey int

const identityKey ctxKey = 1

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func IsLoggedIn(ctx context.Context) bool {
	_, ok := FromContext(ctx)
	return ok
}

func IsAdmin(ctx context.Context) bool {
	id, ok := FromContext(ctx)
	return ok && id.IsAdmin()
}

// CanMutate reports whether the caller may update or delete e: admins may
// change any event, everyone else only their own.
func CanMutate(ctx context.Context, e model.Event) bool {
	id, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return id.IsAdmin() || e.OwnedBy(id.ID)
}
