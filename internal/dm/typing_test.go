package dm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type typingChange struct {
	peerID int
	typing bool
}

func newTypingSink() (chan typingChange, func(int, bool)) {
	ch := make(chan typingChange, 16)
	return ch, func(peerID int, typing bool) {
		ch <- typingChange{peerID: peerID, typing: typing}
	}
}

func nextChange(t *testing.T, ch chan typingChange) typingChange {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for typing transition")
		return typingChange{}
	}
}

func expectNoChange(t *testing.T, ch chan typingChange, within time.Duration) {
	t.Helper()
	select {
	case c := <-ch:
		t.Fatalf("unexpected transition: %+v", c)
	case <-time.After(within):
	}
}

func TestTypingTransitionsOnceThenExpires(t *testing.T) {
	sink, onChange := newTypingSink()
	m := NewTypingMonitor(80*time.Millisecond, onChange)
	defer m.Close()

	m.Observe(2)
	require.Equal(t, typingChange{peerID: 2, typing: true}, nextChange(t, sink))

	// repeat signals inside the window are not new transitions
	m.Observe(2)
	m.Observe(2)

	require.Equal(t, typingChange{peerID: 2, typing: false}, nextChange(t, sink))
	expectNoChange(t, sink, 150*time.Millisecond)
}

func TestTypingRepeatSignalReArmsExpiry(t *testing.T) {
	sink, onChange := newTypingSink()
	m := NewTypingMonitor(300*time.Millisecond, onChange)
	defer m.Close()

	m.Observe(2)
	require.True(t, nextChange(t, sink).typing)

	// keep signalling well inside the window; the flag must hold
	for i := 0; i < 3; i++ {
		time.Sleep(100 * time.Millisecond)
		m.Observe(2)
	}
	expectNoChange(t, sink, 100*time.Millisecond)

	require.False(t, nextChange(t, sink).typing)
}

func TestTypingStopsImmediatelyOnMessage(t *testing.T) {
	sink, onChange := newTypingSink()
	m := NewTypingMonitor(time.Hour, onChange)
	defer m.Close()

	m.Observe(2)
	require.True(t, nextChange(t, sink).typing)

	m.Stop(2)
	require.Equal(t, typingChange{peerID: 2, typing: false}, nextChange(t, sink))
	expectNoChange(t, sink, 100*time.Millisecond)
}

func TestTypingStopWithoutActiveBurstIsSilent(t *testing.T) {
	sink, onChange := newTypingSink()
	m := NewTypingMonitor(time.Hour, onChange)
	defer m.Close()

	m.Stop(2)
	expectNoChange(t, sink, 100*time.Millisecond)
}

func TestTypingTracksPeersIndependently(t *testing.T) {
	sink, onChange := newTypingSink()
	m := NewTypingMonitor(time.Hour, onChange)
	defer m.Close()

	m.Observe(2)
	m.Observe(3)
	first := nextChange(t, sink)
	second := nextChange(t, sink)
	require.ElementsMatch(t, []int{2, 3}, []int{first.peerID, second.peerID})

	m.Stop(2)
	require.Equal(t, typingChange{peerID: 2, typing: false}, nextChange(t, sink))
	expectNoChange(t, sink, 100*time.Millisecond)
}

func TestTypingCloseFiresNoTransitions(t *testing.T) {
	sink, onChange := newTypingSink()
	m := NewTypingMonitor(50*time.Millisecond, onChange)

	m.Observe(2)
	require.True(t, nextChange(t, sink).typing)

	m.Close()
	expectNoChange(t, sink, 150*time.Millisecond)

	// signals after close are ignored
	m.Observe(2)
	expectNoChange(t, sink, 100*time.Millisecond)
}
