package live

import (
	"context"
	"sync"
	"time"

	"github.com/dploch/geofront/internal/dependencies/mocks"
	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/storage"
	"github.com/dploch/geofront/internal/storage/memory"
	"github.com/dploch/geofront/internal/testutil"
	"github.com/dploch/geofront/internal/transport"
)

// sentPacket records one outbound packet for assertions
type sentPacket struct {
	Type    transport.PacketType
	Payload any
	User    model.UserID
	Game    model.GameID
}

// fakeTransport records sends and room membership in memory
type fakeTransport struct {
	mu    sync.Mutex
	sends []sentPacket
	rooms map[model.GameID]map[model.UserID]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{rooms: make(map[model.GameID]map[model.UserID]bool)}
}

func (f *fakeTransport) SendToUser(t transport.PacketType, payload any, userID model.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentPacket{Type: t, Payload: payload, User: userID})
}

func (f *fakeTransport) SendToGame(t transport.PacketType, payload any, gameID model.GameID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentPacket{Type: t, Payload: payload, Game: gameID})
}

func (f *fakeTransport) JoinRoom(gameID model.GameID, userID model.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rooms[gameID] == nil {
		f.rooms[gameID] = make(map[model.UserID]bool)
	}
	f.rooms[gameID][userID] = true
}

func (f *fakeTransport) LeaveRoom(gameID model.GameID, userID model.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms[gameID], userID)
}

func (f *fakeTransport) CloseRoom(gameID model.GameID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, gameID)
}

func (f *fakeTransport) packetsFor(userID model.UserID, t transport.PacketType) []sentPacket {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentPacket
	for _, p := range f.sends {
		if p.User == userID && p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeTransport) inRoom(gameID model.GameID, userID model.UserID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms[gameID][userID]
}

// fakePresence reports a fixed set of connected users
type fakePresence struct {
	mu    sync.Mutex
	users map[model.UserID]bool
}

func newFakePresence(users ...model.UserID) *fakePresence {
	p := &fakePresence{users: make(map[model.UserID]bool)}
	for _, u := range users {
		p.users[u] = true
	}
	return p
}

func (p *fakePresence) ConnectedUsers() []model.UserID {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.UserID, 0, len(p.users))
	for u := range p.users {
		out = append(out, u)
	}
	return out
}

func (p *fakePresence) IsConnected(userID model.UserID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.users[userID]
}

// flakyStorage wraps a real storage and injects targeted failures
type flakyStorage struct {
	storage.Storage

	mu          sync.Mutex
	failGetUser map[model.UserID]error
	failGetRole map[model.UserID]error
	failGetGame map[model.GameID]error
	getGameHits int
}

func newFlakyStorage(inner storage.Storage) *flakyStorage {
	return &flakyStorage{
		Storage:     inner,
		failGetUser: make(map[model.UserID]error),
		failGetRole: make(map[model.UserID]error),
		failGetGame: make(map[model.GameID]error),
	}
}

func (f *flakyStorage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	f.mu.Lock()
	err := f.failGetUser[id]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Storage.GetUser(ctx, id)
}

func (f *flakyStorage) GetGameRole(ctx context.Context, gameID model.GameID, userID model.UserID) (model.Role, error) {
	f.mu.Lock()
	err := f.failGetRole[userID]
	f.mu.Unlock()
	if err != nil {
		return model.Role{}, err
	}
	return f.Storage.GetGameRole(ctx, gameID, userID)
}

func (f *flakyStorage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	f.mu.Lock()
	f.getGameHits++
	err := f.failGetGame[id]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Storage.GetGame(ctx, id)
}

// fixture wires a registry and scheduler over in-memory storage
type fixture struct {
	store     *flakyStorage
	trans     *fakeTransport
	presence  *fakePresence
	clock     *mocks.MockClock
	registry  *Registry
	scheduler *Scheduler
	cfg       Config
}

func newFixture(connected ...model.UserID) *fixture {
	f := &fixture{
		store:    newFlakyStorage(memory.New()),
		trans:    newFakeTransport(),
		presence: newFakePresence(connected...),
		clock:    mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		cfg: Config{
			BroadcastInterval: 50 * time.Millisecond,
			DecayWindow:       time.Minute,
		},
	}
	logger := testutil.NopLogger()
	f.registry = NewRegistry(f.store, f.trans, f.presence, f.clock, f.cfg, logger)
	f.scheduler = NewScheduler(f.registry, f.store, f.trans, f.clock, f.cfg, logger)
	return f
}

func (f *fixture) saveGame(ctx context.Context, id model.GameID, stage model.GameStage, roles map[model.UserID]model.Role) *model.Game {
	game := &model.Game{
		ID:        id,
		Name:      "Operation " + string(id),
		Stage:     stage,
		Roles:     roles,
		Factories: make(map[model.TeamID]int),
	}
	if err := f.store.SaveGame(ctx, game); err != nil {
		panic(err)
	}
	return game
}

func (f *fixture) saveUser(ctx context.Context, id model.UserID, name string) {
	if err := f.store.SaveUser(ctx, &model.User{ID: id, DisplayName: name}); err != nil {
		panic(err)
	}
}
