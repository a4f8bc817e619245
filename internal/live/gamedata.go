package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dploch/geofront/internal/latch"
	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/transport"
)

// SendGameData assembles a per-user state snapshot for a live game and
// sends it either to the supplied sinks or to the user's default
// channel. The record and role lookups run in parallel; the factory
// portion needs both the refreshed record and the user's role, so its
// unit is added to the join only once each has resolved.
//
// It returns the first lookup failure, in which case nothing is sent.
func (r *Registry) SendGameData(ctx context.Context, g *Game, userID model.UserID, sinks ...PacketSink) error {
	l := latch.New()
	outcome := latch.NewOutcome()
	done := make(chan struct{})

	var mu sync.Mutex
	var rec *model.Game
	var role *model.Role
	var factory *transport.FactoryData
	costIssued := false

	// Called with mu held by whichever branch completes second
	maybeFactory := func() {
		if costIssued || rec == nil || role == nil || outcome.Failed() {
			return
		}
		costIssued = true
		l.Add()
		go func() {
			defer l.Resolve()
			g.SyncFactories(rec.Factories)

			if _, live := g.User(userID); !live || !rec.IsActive() || !role.IsPlayer {
				return
			}
			mu.Lock()
			factory = &transport.FactoryData{
				CanBuild: g.CanBuildFactory(*role),
				Cost:     g.FactoryCost(role.Team),
			}
			mu.Unlock()
		}()
	}

	l.Add() // game record
	l.Add() // user role
	l.Then(func() { close(done) })

	go func() {
		defer l.Resolve()
		got, err := r.storage.GetGame(ctx, g.ID())
		if err != nil {
			outcome.Fail(err)
			return
		}
		mu.Lock()
		rec = got
		maybeFactory()
		mu.Unlock()
	}()

	go func() {
		defer l.Resolve()
		got, err := r.storage.GetGameRole(ctx, g.ID(), userID)
		if err != nil {
			outcome.Fail(err)
			return
		}
		mu.Lock()
		role = &got
		maybeFactory()
		mu.Unlock()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := outcome.Err(); err != nil {
		r.logger.Error("game data assembly failed",
			slog.String("game_id", string(g.ID())),
			slog.String("user_id", string(userID)),
			slog.String("error", err.Error()))
		return err
	}

	payload := transport.GameDataPayload{
		Game: g.ID(),
		Data: transport.GameData{
			Stage:   rec.Stage,
			Factory: factory,
		},
	}

	if len(sinks) > 0 {
		for _, sink := range sinks {
			sink.Send(transport.PacketGameData, payload)
		}
		return nil
	}
	r.transport.SendToUser(transport.PacketGameData, payload, userID)
	return nil
}
