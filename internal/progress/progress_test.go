package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObservePercent(t *testing.T) {
	var got []float64
	b := New(func(p float64) { got = append(got, p) }, nil)

	b.Observe(Event{Task: "encoding", Index: 1, Total: 4})
	b.Observe(Event{Task: "encoding", Index: 2, Total: 4})
	b.Observe(Event{Task: "encoding", Index: 4, Total: 4})

	assert.Equal(t, []float64{25, 50, 100}, got)
}

func TestObserveSkipsUnknownTotal(t *testing.T) {
	calls := 0
	b := New(func(float64) { calls++ }, nil)

	b.Observe(Event{Task: "encoding", Index: 3, Total: 0})
	assert.Zero(t, calls)
}

func TestMessageDeduplication(t *testing.T) {
	var got []string
	b := New(nil, func(m string) { got = append(got, m) })

	b.Message("Loading video...")
	b.Message("Loading video...")
	b.Message("Writing GIF (fps: 15)...")
	b.Message("Writing GIF (fps: 15)...")
	b.Message("Loading video...")

	assert.Equal(t, []string{
		"Loading video...",
		"Writing GIF (fps: 15)...",
		"Loading video...",
	}, got)
}

func TestObserveCarriesBothChannels(t *testing.T) {
	var pct []float64
	var msgs []string
	b := New(
		func(p float64) { pct = append(pct, p) },
		func(m string) { msgs = append(msgs, m) },
	)

	b.Observe(Event{Task: "encoding", Index: 5, Total: 10, Message: "frame 5"})
	b.Observe(Event{Task: "encoding", Index: 6, Total: 10, Message: "frame 5"})

	assert.Equal(t, []float64{50, 60}, pct)
	assert.Equal(t, []string{"frame 5"}, msgs)
}

func TestObserveConcurrentTasks(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	b := New(func(float64) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 1; j <= 50; j++ {
				b.Observe(Event{Task: "t", Index: j, Total: 50, Message: "working"})
			}
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 8*50, calls)
}
