package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
)

type valuer interface{ Value() int }

type numbered struct{ N int }

func (n numbered) Value() int { return n.N }

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(250 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
	var zero T
	return zero
}

func TestBus_PublishSubscribe(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[BuildCompleted](b, 1)
	defer unsubscribe()

	require.NoError(t, b.Publish(context.Background(), BuildCompleted{BuildID: "b1", Kind: "full"}))
	got := receive(t, ch)
	require.Equal(t, "b1", got.BuildID)
	require.True(t, got.Succeeded())
}

func TestBus_InterfaceSubscription(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[valuer](b, 1)
	defer unsubscribe()

	require.NoError(t, b.Publish(context.Background(), numbered{N: 7}))
	require.Equal(t, 7, receive(t, ch).Value())
}

func TestBus_PublishHonoursContext(t *testing.T) {
	b := NewBus()
	defer b.Close()

	_, unsubscribe := Subscribe[numbered](b, 0)
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := b.Publish(ctx, numbered{N: 1})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryRuntime))
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestBus_UnsubscribeAndClose(t *testing.T) {
	b := NewBus()

	ch, unsubscribe := Subscribe[numbered](b, 1)
	require.Equal(t, 1, SubscriberCount[numbered](b))
	unsubscribe()
	require.Equal(t, 0, SubscriberCount[numbered](b))
	_, ok := <-ch
	require.False(t, ok)

	other, _ := Subscribe[BuildCompleted](b, 1)
	b.Close()
	_, ok = <-other
	require.False(t, ok)

	require.Error(t, b.Publish(context.Background(), numbered{N: 1}))
	late, _ := Subscribe[numbered](b, 1)
	_, ok = <-late
	require.False(t, ok)
}

func TestBuildCompleted_Failed(t *testing.T) {
	require.False(t, BuildCompleted{Err: errors.New("boom")}.Succeeded())
}
