package live

import "github.com/dploch/geofront/internal/model"

// Visible decides whether a viewer may observe a peer's location.
//
// Players see members of their own team; spectators and special units
// see every player regardless of team. Only players are shown as peers.
// A viewer or peer with no role at all fails closed: nothing is seen,
// nothing is shown. The caller excludes self before asking.
func Visible(viewer, peer model.Role) bool {
	if viewer.IsNone() || peer.IsNone() {
		return false
	}
	if !peer.IsPlayer {
		return false
	}
	if viewer.SeesAll() {
		return true
	}
	if viewer.IsPlayer {
		return viewer.Team != "" && viewer.Team == peer.Team
	}
	return false
}
