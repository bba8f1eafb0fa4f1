package cutengine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PushPopFIFO(t *testing.T) {
	q := NewQueue[int, string](4)
	id := q.RegisterProducer()

	q.Push(1)
	q.Push(2)
	q.MarkDone(id)

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = q.Pop()
	assert.False(t, ok, "pop on a drained, all-done queue returns ok=false")
}

func TestQueue_PopBlocksUntilPushOrDone(t *testing.T) {
	q := NewQueue[int, string](4)
	id := q.RegisterProducer()

	done := make(chan struct{})
	var got int
	var ok bool
	go func() {
		got, ok = q.Pop()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Pop returned before any item was pushed or producer marked done")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(42)
	<-done
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	q.MarkDone(id)
}

func TestQueue_PushBlocksAtCapacityUntilConsumed(t *testing.T) {
	q := NewQueue[int, string](1)
	id := q.RegisterProducer()

	q.Push(1)

	pushed := make(chan struct{})
	go func() {
		q.Push(2)
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("Push returned before capacity freed up")
	case <-time.After(20 * time.Millisecond):
	}

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	<-pushed
	q.MarkDone(id)
}

func TestQueue_MarkDoneUnblocksAllProducersRequired(t *testing.T) {
	q := NewQueue[int, string](4)
	id1 := q.RegisterProducer()
	id2 := q.RegisterProducer()

	done := make(chan struct{})
	go func() {
		_, ok := q.Pop()
		assert.False(t, ok)
		close(done)
	}()

	q.MarkDone(id1)
	select {
	case <-done:
		t.Fatal("Pop unblocked before every producer marked done")
	case <-time.After(20 * time.Millisecond):
	}

	q.MarkDone(id2)
	<-done
}

func TestQueue_SetSpecialGetSpecial(t *testing.T) {
	q := NewQueue[int, string](4)
	id := q.RegisterProducer()

	var wg sync.WaitGroup
	wg.Add(1)
	var got string
	var ok bool
	go func() {
		defer wg.Done()
		got, ok = q.GetSpecial()
	}()

	time.Sleep(10 * time.Millisecond)
	q.SetSpecial("session-metadata")
	wg.Wait()

	assert.True(t, ok)
	assert.Equal(t, "session-metadata", got)
	q.MarkDone(id)
}

func TestQueue_GetSpecialUnblocksOnAllDoneWithoutSpecial(t *testing.T) {
	q := NewQueue[int, string](4)
	id := q.RegisterProducer()

	done := make(chan struct{})
	var ok bool
	go func() {
		_, ok = q.GetSpecial()
		close(done)
	}()

	q.MarkDone(id)
	<-done
	assert.False(t, ok)
}
