package events

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

func TestRouterPrintsEventsInOrder(t *testing.T) {
	router, err := NewEventRouter()
	require.NoError(t, err)

	out := &lockedBuffer{}
	router.AddHandler("printer", TopicSession, NewPrinterHandler(out))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eg := errgroup.Group{}
	eg.Go(func() error {
		return router.Run(ctx)
	})
	<-router.Running()

	sink := router.Sink(TopicSession)
	id := uuid.New()
	evts := []Event{
		{Type: EventTypeState, SessionID: id, State: "debating"},
		{Type: EventTypeTurn, SessionID: id, Index: 1, Agent: "Agent 1", Text: "first"},
		{Type: EventTypeTurn, SessionID: id, Index: 2, Agent: "Agent 2", Text: "second"},
	}
	for _, e := range evts {
		require.NoError(t, sink.PublishEvent(e))
	}

	require.NoError(t, router.Close())
	require.NoError(t, eg.Wait())

	s := out.String()
	assert.Contains(t, s, "Starting brainstorming session...")
	first := bytes.Index([]byte(s), []byte("Agent 1: first"))
	second := bytes.Index([]byte(s), []byte("Agent 2: second"))
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
}

func TestEventJSON(t *testing.T) {
	id := uuid.New()
	sink := &CollectingSink{}
	require.NoError(t, sink.PublishEvent(Event{Type: EventTypeSeed, SessionID: id, Text: "seed"}))
	require.Len(t, sink.Events(), 1)

	e, err := NewEventFromJson([]byte(`{"type":"turn","session_id":"` + id.String() + `","index":3,"agent":"Agent 2","text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, EventTypeTurn, e.Type)
	assert.Equal(t, id, e.SessionID)
	assert.Equal(t, 3, e.Index)
	assert.Equal(t, "Agent 2", e.Agent)
}

func TestNullSink(t *testing.T) {
	assert.NoError(t, NullSink{}.PublishEvent(Event{Type: EventTypeError}))
}
