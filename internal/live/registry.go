package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dploch/geofront/internal/dependencies/clock"
	"github.com/dploch/geofront/internal/latch"
	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/storage"
	"github.com/dploch/geofront/internal/transport"
)

// unloadLookupTimeout bounds the best-effort name lookup performed for
// the unload status message
const unloadLookupTimeout = 2 * time.Second

// gameEntry tracks one identity's slot in the registry table. While a
// load is in flight the entry exists with ready still open; concurrent
// callers for the same identity wait on ready instead of starting a
// second load.
type gameEntry struct {
	ready chan struct{}
	game  *Game // nil if the load failed or the game was not active
	err   error
}

// Registry is the process-wide table of currently live games. All table
// mutation goes through load and unload; broadcast and ingest only read
// the table and then work inside the owned live games.
type Registry struct {
	storage   storage.Storage
	transport Transport
	presence  Presence
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger

	mu    sync.Mutex
	games map[model.GameID]*gameEntry
}

// NewRegistry creates an empty registry
func NewRegistry(
	store storage.Storage,
	trans Transport,
	presence Presence,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		storage:   store,
		transport: trans,
		presence:  presence,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "live")),
		games:     make(map[model.GameID]*gameEntry),
	}
}

// Init loads every active-stage game at startup
func (r *Registry) Init(ctx context.Context) error {
	return r.LoadAll(ctx)
}

// Shutdown unloads everything
func (r *Registry) Shutdown() {
	r.UnloadAll()
}

// GetGame returns the live game for an identity. If the game is not yet
// live, it consults the persistent store and loads it only if the stage
// is active; inactive or missing games come back as (nil, nil), which
// callers treat as a normal absent state.
//
// Loads for one identity are serialized: a second concurrent caller
// waits on the first load and observes its result, so at most one live
// game is ever registered per identity.
func (r *Registry) GetGame(ctx context.Context, id model.GameID) (*Game, error) {
	r.mu.Lock()
	if e, ok := r.games[id]; ok {
		r.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return e.game, e.err
	}

	e := &gameEntry{ready: make(chan struct{})}
	r.games[id] = e
	r.mu.Unlock()

	game, err := r.load(ctx, id)
	if game == nil {
		// Failed or not-active loads return the identity to unloaded;
		// no half-registered entry may remain.
		r.mu.Lock()
		if r.games[id] == e {
			delete(r.games, id)
		}
		r.mu.Unlock()
	}
	e.game = game
	e.err = err
	close(e.ready)
	return game, err
}

// load fetches the record and constructs the live game if it is active
func (r *Registry) load(ctx context.Context, id model.GameID) (*Game, error) {
	rec, err := r.storage.GetGame(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrGameNotFound) {
			return nil, nil
		}
		r.logger.Error("game load failed",
			slog.String("game_id", string(id)),
			slog.String("error", err.Error()))
		return nil, err
	}
	if !rec.IsActive() {
		return nil, nil
	}

	game := NewGame(id, rec.Stage)
	game.SyncFactories(rec.Factories)

	// Seed with every connected user holding a role in this game
	for _, userID := range r.presence.ConnectedUsers() {
		role := rec.RoleFor(userID)
		if role.IsNone() {
			continue
		}
		game.AddUser(userID, role)
		r.transport.JoinRoom(id, userID)
	}

	r.logger.Info("game loaded",
		slog.String("game_id", string(id)),
		slog.String("name", rec.Name),
		slog.Int("users", game.UserCount()))
	return game, nil
}

// LoadAll replaces the whole table with the currently active games: it
// unloads every registered game, then loads each active game in
// parallel joined on a latch. The first per-game failure is reported to
// the caller once; sibling loads still run to completion and register
// themselves or report their own errors independently.
func (r *Registry) LoadAll(ctx context.Context) error {
	records, err := r.storage.GetGamesWithStage(ctx, model.GameStageActive)
	if err != nil {
		return err
	}

	r.UnloadAll()

	if len(records) == 0 {
		r.logger.Info("no active games to load")
		return nil
	}

	l := latch.New()
	outcome := latch.NewOutcome()
	done := make(chan struct{})
	l.Then(func() { close(done) })

	for range records {
		l.Add()
	}
	for _, rec := range records {
		go func(id model.GameID) {
			defer l.Resolve()
			if _, err := r.GetGame(ctx, id); err != nil {
				if !outcome.Fail(err) {
					// First failure already owns the caller's error;
					// this one is only logged.
					r.logger.Error("sibling game load failed",
						slog.String("game_id", string(id)),
						slog.String("error", err.Error()))
				}
			}
		}(rec.ID)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.logger.Info("active games loaded", slog.Int("count", len(records)))
	return outcome.Err()
}

// Unload removes a game from the registry. The status message sent to
// the game's room uses a best-effort display name lookup that may fail
// silently without blocking removal.
func (r *Registry) Unload(id model.GameID) bool {
	r.mu.Lock()
	e, ok := r.games[id]
	r.mu.Unlock()
	if !ok {
		return false
	}

	// Wait out an in-flight load so load and unload never race for the
	// same identity
	<-e.ready

	r.mu.Lock()
	removed := r.games[id] == e
	if removed {
		delete(r.games, id)
	}
	r.mu.Unlock()

	if !removed || e.game == nil {
		return false
	}

	name := string(id)
	ctx, cancel := context.WithTimeout(context.Background(), unloadLookupTimeout)
	defer cancel()
	if rec, err := r.storage.GetGame(ctx, id); err == nil && rec.Name != "" {
		name = rec.Name
	}

	r.transport.SendToGame(transport.PacketMessageResponse, transport.MessageResponsePayload{
		Message: fmt.Sprintf("%s is no longer live", name),
		Dialog:  true,
	}, id)
	r.transport.CloseRoom(id)

	r.logger.Info("game unloaded", slog.String("game_id", string(id)))
	return true
}

// UnloadAll removes every registered game
func (r *Registry) UnloadAll() {
	r.mu.Lock()
	ids := make([]model.GameID, 0, len(r.games))
	for id := range r.games {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Unload(id)
	}
}

// Games returns a snapshot of the currently loaded live games
func (r *Registry) Games() []*Game {
	r.mu.Lock()
	entries := make([]*gameEntry, 0, len(r.games))
	for _, e := range r.games {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	games := make([]*Game, 0, len(entries))
	for _, e := range entries {
		select {
		case <-e.ready:
			if e.game != nil {
				games = append(games, e.game)
			}
		default:
			// Still loading; not visible yet
		}
	}
	return games
}

// DropUser removes a disconnected user from every live game
func (r *Registry) DropUser(userID model.UserID) {
	for _, g := range r.Games() {
		if _, ok := g.User(userID); ok {
			g.RemoveUser(userID)
			r.transport.LeaveRoom(g.ID(), userID)
			r.logger.Info("live user dropped",
				slog.String("game_id", string(g.ID())),
				slog.String("user_id", string(userID)))
		}
	}
}

// RefreshUser refetches a user's role for a game and applies it to the
// live game if one is loaded. Used when roles change mid-game and when
// a connected user joins a running game.
func (r *Registry) RefreshUser(ctx context.Context, gameID model.GameID, userID model.UserID) error {
	g, err := r.GetGame(ctx, gameID)
	if err != nil || g == nil {
		return err
	}

	role, err := r.storage.GetGameRole(ctx, gameID, userID)
	if err != nil {
		return err
	}

	if role.IsNone() {
		g.RemoveUser(userID)
		r.transport.LeaveRoom(gameID, userID)
		return nil
	}
	if r.presence.IsConnected(userID) {
		g.AddUser(userID, role)
		r.transport.JoinRoom(gameID, userID)
	}
	return nil
}
