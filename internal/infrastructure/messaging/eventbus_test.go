package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklabubesar/kehadiran-bot/internal/domain/shared"
)

type countingHandler struct {
	mu    sync.Mutex
	seen  []shared.Event
	name  string
	fail  error
}

func (h *countingHandler) Handle(ctx context.Context, event shared.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, event)
	return h.fail
}

func (h *countingHandler) Name() string { return h.name }

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func syncBus() *EventBus {
	return NewEventBus(Config{AsyncMode: false})
}

func TestPublishRoutesByType(t *testing.T) {
	bus := syncBus()
	saved := &countingHandler{name: "saved"}
	complete := &countingHandler{name: "complete"}

	require.NoError(t, bus.Subscribe(shared.EventAttendanceSaved, saved))
	require.NoError(t, bus.Subscribe(shared.EventAllClassesRecorded, complete))

	event := shared.NewAttendanceSavedEvent("4 Amber", "01/03/2025", 18, 20, false)
	require.NoError(t, bus.Publish(context.Background(), event))

	assert.Equal(t, 1, saved.count())
	assert.Equal(t, 0, complete.count())
}

func TestSubscribeAllSeesEverything(t *testing.T) {
	bus := syncBus()
	all := &countingHandler{name: "all"}
	require.NoError(t, bus.SubscribeAll(all))

	require.NoError(t, bus.Publish(context.Background(),
		shared.NewAttendanceSavedEvent("4 Amber", "01/03/2025", 18, 20, false)))
	require.NoError(t, bus.Publish(context.Background(),
		shared.NewAllClassesRecordedEvent("01/03/2025", 6)))

	assert.Equal(t, 2, all.count())
}

func TestPublishWithNoHandlers(t *testing.T) {
	bus := syncBus()
	err := bus.Publish(context.Background(),
		shared.NewAllClassesRecordedEvent("01/03/2025", 6))
	assert.NoError(t, err)
}

func TestHandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := syncBus()
	failing := &countingHandler{name: "failing", fail: assert.AnError}
	healthy := &countingHandler{name: "healthy"}

	require.NoError(t, bus.Subscribe(shared.EventAttendanceSaved, failing))
	require.NoError(t, bus.Subscribe(shared.EventAttendanceSaved, healthy))

	event := shared.NewAttendanceSavedEvent("4 Amber", "01/03/2025", 18, 20, false)
	require.NoError(t, bus.Publish(context.Background(), event))

	assert.Equal(t, 1, healthy.count())
}

func TestClosedBusRejectsPublish(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(),
		shared.NewAllClassesRecordedEvent("01/03/2025", 6))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventAttendanceSaved, &countingHandler{name: "late"})
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestAsyncDeliveryCompletesOnClose(t *testing.T) {
	bus := NewEventBus(Config{AsyncMode: true, WorkerPoolSize: 2})
	h := &countingHandler{name: "async"}
	require.NoError(t, bus.SubscribeAll(h))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(context.Background(),
			shared.NewAllClassesRecordedEvent("01/03/2025", 6)))
	}

	assert.Eventually(t, func() bool { return h.count() == 5 },
		time.Second, 5*time.Millisecond)
	require.NoError(t, bus.Close())
}
