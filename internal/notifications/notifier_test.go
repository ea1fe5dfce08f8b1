package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.Send:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Event{}
	}
}

func TestEventEncode(t *testing.T) {
	t.Parallel()
	raw, err := PostReactionUpdated(3, 5).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"post_reaction_updated","payload":{"id":3,"curtidas":5}}`, raw)

	_, err = Event{}.Encode()
	assert.Error(t, err)
}

func TestNotifier_WithoutRedisDeliversLocally(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(nil)
	require.NoError(t, err)

	n := NewNotifier(nil, hub)
	require.NoError(t, n.Publish(context.Background(), PostCreated(7, 2)))

	event := receive(t, client)
	assert.Equal(t, EventPostCreated, event.Type)
	assert.EqualValues(t, 7, event.Payload["id"])
	assert.EqualValues(t, 2, event.Payload["usuarioId"])
}

func TestNotifier_NilHubAndRedisIsNoop(t *testing.T) {
	assert.NoError(t, NewNotifier(nil, nil).Publish(context.Background(), PostCreated(1, 1)))
}

func TestNotifier_FansOutAcrossInstances(t *testing.T) {
	_, rdb := newRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Two hubs sharing one Redis behave like two server instances.
	hubA, hubB := NewHub(), NewHub()
	notifierA := NewNotifier(rdb, hubA)
	notifierB := NewNotifier(rdb, hubB)
	require.NoError(t, hubA.StartWiring(ctx, notifierA))
	require.NoError(t, hubB.StartWiring(ctx, notifierB))

	clientA, err := hubA.Register(nil)
	require.NoError(t, err)
	clientB, err := hubB.Register(nil)
	require.NoError(t, err)

	require.NoError(t, notifierA.Publish(ctx, PostReactionUpdated(9, 1)))

	for _, c := range []*Client{clientA, clientB} {
		event := receive(t, c)
		assert.Equal(t, EventPostReactionUpdated, event.Type)
		assert.EqualValues(t, 1, event.Payload["curtidas"])
	}
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	_, rdb := newRedis(t)
	hub := NewHub()
	n := NewNotifier(rdb, hub)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, hub.StartWiring(ctx, n))
	client, err := hub.Register(nil)
	require.NoError(t, err)

	require.NoError(t, n.Publish(context.Background(), PostCreated(1, 1)))
	receive(t, client)

	cancel()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, n.Publish(context.Background(), PostCreated(2, 1)))
	assert.Never(t, func() bool { return len(client.Send) > 0 }, 200*time.Millisecond, 10*time.Millisecond)
}

func TestNotifier_RedisDownFallsBackToLocalHub(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	hub := NewHub()
	client, err := hub.Register(nil)
	require.NoError(t, err)

	n := NewNotifier(rdb, hub)
	require.NoError(t, n.Publish(context.Background(), PostCreated(4, 1)))
	assert.Equal(t, EventPostCreated, receive(t, client).Type)
}
