package live

import (
	"sync"
	"time"

	"github.com/dploch/geofront/internal/model"
)

// User is the in-memory runtime record of one connected user within a
// live game. It is owned by exactly one Game; the ingest handler mutates
// its location and the broadcast path reads it.
type User struct {
	id model.UserID

	mu        sync.RWMutex
	role      model.Role // snapshot at join; authoritative role is refetched per decision
	coord     model.Coordinate
	hasCoord  bool
	updatedAt time.Time
}

// NewUser creates a live user with no recorded location
func NewUser(id model.UserID, role model.Role) *User {
	return &User{id: id, role: role}
}

// ID returns the user's identity
func (u *User) ID() model.UserID {
	return u.id
}

// Role returns the role snapshot taken when the user joined
func (u *User) Role() model.Role {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.role
}

// SetRole replaces the role snapshot
func (u *User) SetRole(role model.Role) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.role = role
}

// UpdateLocation replaces the last coordinate and timestamp. Validation
// is the caller's job; this is a pure in-memory mutation.
func (u *User) UpdateLocation(coord model.Coordinate, now time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.coord = coord
	u.hasCoord = true
	u.updatedAt = now
}

// Location returns the last coordinate, or absent if none was recorded
// or the last report is older than the decay window. Decay is evaluated
// at read time against the caller's clock; the stored value is never
// physically cleared.
func (u *User) Location(now time.Time, decayWindow time.Duration) (model.Coordinate, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if !u.hasCoord {
		return model.Coordinate{}, false
	}
	if decayWindow > 0 && now.Sub(u.updatedAt) > decayWindow {
		return model.Coordinate{}, false
	}
	return u.coord, true
}
