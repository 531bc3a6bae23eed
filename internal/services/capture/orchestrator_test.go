package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/captura/internal/models"
)

type fakeVariant struct {
	kind  models.DeviceKind
	err   error
	delay time.Duration
	runs  *atomic.Int32
}

func (f *fakeVariant) label() models.DeviceKind { return f.kind }

func (f *fakeVariant) run(ctx context.Context) error {
	if f.runs != nil {
		f.runs.Add(1)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func testOrchestrator(parallel bool, variants ...variantRunner) *linkOrchestrator {
	return &linkOrchestrator{
		url:      "https://example.com",
		folder:   "/tmp/example-com",
		variants: variants,
		parallel: parallel,
		logger:   arbor.NewLogger(),
	}
}

func TestOrchestratorSuccess(t *testing.T) {
	orch := testOrchestrator(false,
		&fakeVariant{kind: models.DeviceDesktop},
		&fakeVariant{kind: models.DeviceTablet},
		&fakeVariant{kind: models.DeviceMobile},
	)

	outcome := orch.run(context.Background())
	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.Error)
	assert.Equal(t, "https://example.com", outcome.URL)
	assert.Equal(t, "/tmp/example-com", outcome.Folder)
}

func TestOrchestratorConvertsFailureToOutcome(t *testing.T) {
	orch := testOrchestrator(false,
		&fakeVariant{kind: models.DeviceDesktop},
		&fakeVariant{kind: models.DeviceTablet, err: errors.New("content not ready after 10000ms")},
	)

	outcome := orch.run(context.Background())
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "tablet variant failed")
	assert.Contains(t, outcome.Error, "content not ready")
}

func TestOrchestratorSequentialStopsAtFirstFailure(t *testing.T) {
	var desktopRuns, tabletRuns, mobileRuns atomic.Int32

	orch := testOrchestrator(false,
		&fakeVariant{kind: models.DeviceDesktop, runs: &desktopRuns},
		&fakeVariant{kind: models.DeviceTablet, err: errors.New("boom"), runs: &tabletRuns},
		&fakeVariant{kind: models.DeviceMobile, runs: &mobileRuns},
	)

	outcome := orch.run(context.Background())
	require.False(t, outcome.Success)
	assert.Equal(t, int32(1), desktopRuns.Load())
	assert.Equal(t, int32(1), tabletRuns.Load())
	assert.Equal(t, int32(0), mobileRuns.Load())
}

func TestOrchestratorParallelRunsAllAndReportsFirstByPosition(t *testing.T) {
	var desktopRuns, tabletRuns, mobileRuns atomic.Int32

	// The mobile failure finishes first, but the tablet failure is reported
	// because error selection follows declaration order.
	orch := testOrchestrator(true,
		&fakeVariant{kind: models.DeviceDesktop, runs: &desktopRuns},
		&fakeVariant{kind: models.DeviceTablet, err: errors.New("tablet boom"), delay: 20 * time.Millisecond, runs: &tabletRuns},
		&fakeVariant{kind: models.DeviceMobile, err: errors.New("mobile boom"), runs: &mobileRuns},
	)

	outcome := orch.run(context.Background())
	require.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "tablet variant failed")
	assert.Equal(t, int32(1), desktopRuns.Load())
	assert.Equal(t, int32(1), tabletRuns.Load())
	assert.Equal(t, int32(1), mobileRuns.Load())
}

func TestOrchestratorManifestFailureDoesNotFailLink(t *testing.T) {
	orch := testOrchestrator(false, &fakeVariant{kind: models.DeviceDesktop})
	orch.manifest = func() error { return errors.New("no desktop html") }

	outcome := orch.run(context.Background())
	assert.True(t, outcome.Success)
}
