package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dploch/geofront/internal/dependencies/clock"
	"github.com/dploch/geofront/internal/latch"
	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/storage"
	"github.com/dploch/geofront/internal/transport"
)

// Scheduler drives the periodic location broadcast: on a fixed interval
// it walks every live game and sends each connected user a filtered
// snapshot of the peers they may observe.
type Scheduler struct {
	registry *Registry
	storage  storage.Storage
	sender   Sender
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	stopped  chan struct{}
}

// NewScheduler creates a broadcast scheduler; Start begins the timer
func NewScheduler(
	registry *Registry,
	store storage.Storage,
	sender Sender,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		registry: registry,
		storage:  store,
		sender:   sender,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "broadcast")),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start runs the broadcast loop until Stop is called
func (s *Scheduler) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(s.cfg.BroadcastInterval)
		defer ticker.Stop()

		s.logger.Info("broadcast scheduler started",
			slog.Duration("interval", s.cfg.BroadcastInterval))
		for {
			select {
			case <-ticker.C:
				// Bound the cycle's lookups so a stuck store lookup
				// fails its branch instead of stalling the join forever
				ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BroadcastInterval)
				s.RunCycle(ctx)
				cancel()
			case <-s.stop:
				s.logger.Info("broadcast scheduler stopped")
				return
			}
		}
	}()
}

// Stop halts the broadcast loop and waits for it to exit
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.stopped
}

// RunCycle broadcasts one snapshot round for every live game
func (s *Scheduler) RunCycle(ctx context.Context) {
	for _, g := range s.registry.Games() {
		s.broadcastGame(ctx, g)
	}
}

// broadcastGame sends each of the game's users their filtered view.
// Per-viewer work is independent: a failure preparing one viewer's
// packet never affects the others.
func (s *Scheduler) broadcastGame(ctx context.Context, g *Game) {
	users := g.Users()
	if len(users) == 0 {
		return
	}

	// One fresh record per cycle supplies peer roles and factory counts
	rec, err := s.storage.GetGame(ctx, g.ID())
	if err != nil {
		s.logger.Error("broadcast skipped - game record unavailable",
			slog.String("game_id", string(g.ID())),
			slog.String("error", err.Error()))
		return
	}
	g.SyncFactories(rec.Factories)

	l := latch.New()
	done := make(chan struct{})
	l.Then(func() { close(done) })

	for range users {
		l.Add()
	}
	for _, viewer := range users {
		go func(viewer *User) {
			defer l.Resolve()
			s.sendViewerSnapshot(ctx, g, rec, viewer, users)
		}(viewer)
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// sendViewerSnapshot assembles and sends one viewer's packet. The
// viewer's role is refetched from the store (roles change mid-game);
// each visible peer's display name is resolved concurrently and joined
// before the single send. A peer lookup failure drops only that entry;
// a viewer role failure drops the whole packet for this cycle.
func (s *Scheduler) sendViewerSnapshot(ctx context.Context, g *Game, rec *model.Game, viewer *User, peers []*User) {
	viewerRole, err := s.storage.GetGameRole(ctx, g.ID(), viewer.ID())
	if err != nil {
		s.logger.Warn("viewer packet dropped - role lookup failed",
			slog.String("game_id", string(g.ID())),
			slog.String("user_id", string(viewer.ID())),
			slog.String("error", err.Error()))
		return
	}

	now := s.clock.Now()
	vl := latch.New()
	done := make(chan struct{})

	var mu sync.Mutex
	entries := make([]transport.UserLocation, 0, len(peers))

	vl.Add() // fan-out unit: holds the join open while peers are issued
	vl.Then(func() { close(done) })

	for _, peer := range peers {
		if peer.ID() == viewer.ID() {
			continue // self is never a peer
		}
		if !Visible(viewerRole, rec.RoleFor(peer.ID())) {
			continue
		}

		vl.Add()
		go func(peer *User) {
			defer vl.Resolve()
			u, err := s.storage.GetUser(ctx, peer.ID())
			if err != nil {
				// Drop this pair only
				s.logger.Warn("peer entry dropped - user lookup failed",
					slog.String("game_id", string(g.ID())),
					slog.String("peer_id", string(peer.ID())),
					slog.String("error", err.Error()))
				return
			}

			entry := transport.UserLocation{
				User:     peer.ID(),
				UserName: u.DisplayName,
			}
			if coord, ok := peer.Location(now, s.cfg.DecayWindow); ok {
				entry.Location = &coord
			}
			mu.Lock()
			entries = append(entries, entry)
			mu.Unlock()
		}(peer)
	}
	vl.Resolve()

	select {
	case <-done:
	case <-ctx.Done():
		return
	}

	// A zero-peer cycle still sends an empty list rather than skipping
	// the packet
	s.sender.SendToUser(transport.PacketGameLocations, transport.GameLocationsPayload{
		Game:  g.ID(),
		Users: entries,
	}, viewer.ID())
}
