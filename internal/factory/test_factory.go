package factory

import (
	"time"

	"github.com/dploch/geofront/internal/dependencies/mocks"
	"github.com/dploch/geofront/internal/live"
	"github.com/dploch/geofront/internal/services/auth"
	"github.com/dploch/geofront/internal/storage/memory"
	"github.com/dploch/geofront/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	liveCfg := live.Config{
		BroadcastInterval: 50 * time.Millisecond,
		DecayWindow:       time.Minute,
	}
	app := newWithDependencies(store, mockClock, mockRandom, auth.DefaultConfig(), liveCfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
