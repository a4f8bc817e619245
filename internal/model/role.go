package model

// Role is a user's capability set within a single game.
//
// Exactly which flags are set is decided at the storage boundary; the
// runtime treats this as a closed value and never mutates it.
type Role struct {
	IsPlayer    bool
	IsSpectator bool
	IsSpecial   bool
	Team        TeamID
}

// IsNone reports whether the user has no standing in the game at all.
// A no-role user sees nothing and is shown nothing.
func (r Role) IsNone() bool {
	return !r.IsPlayer && !r.IsSpectator && !r.IsSpecial
}

// CanReport reports whether the user may stream their own location
// into the game: players and special units report, spectators do not.
func (r Role) CanReport() bool {
	return r.IsPlayer || r.IsSpecial
}

// SeesAll reports whether the user observes every player regardless of
// team: spectators and special (non-player) units have global sight.
func (r Role) SeesAll() bool {
	return r.IsSpectator || r.IsSpecial
}
