package peer

import (
	"testing"
	"time"

	"github.com/pion/webrtc/v3"
)

// seedConnected marks s as having reached Connected at least once and
// gives it a crypto context, without any real WebRTC negotiation —
// the precondition handleConnectionStateChange's Disconnected/Failed
// branch checks before starting a grace task.
func seedConnected(t *testing.T, s *Session) {
	t.Helper()
	kpA, err := newKeypair()
	if err != nil {
		t.Fatal(err)
	}
	kpB, err := newKeypair()
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := buildCryptoContext(kpA, kpB.pub)
	if err != nil {
		t.Fatal(err)
	}
	s.cryptoMu.Lock()
	s.crypto = ctx
	s.cryptoMu.Unlock()

	s.stateMu.Lock()
	s.wasConnected = true
	s.stateMu.Unlock()
}

// TestGracePeriodRecoversWithinWindow covers a Disconnected transition
// followed by a Connected transition inside the grace period: it must
// emit connection-problem, connection-recovering and
// connection-recovered/connected, and must not emit disconnected.
func TestGracePeriodRecoversWithinWindow(t *testing.T) {
	s := NewSession(nil)
	seedConnected(t, s)

	s.handleConnectionStateChange(webrtc.PeerConnectionStateDisconnected)
	waitForEvent(t, s, EventConnectionProblem, time.Second)
	waitForEvent(t, s, EventConnectionRecovering, time.Second)

	s.handleConnectionStateChange(webrtc.PeerConnectionStateConnected)
	waitForEvent(t, s, EventConnectionRecovered, time.Second)
	waitForEvent(t, s, EventConnected, time.Second)

	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected extra event after recovery: %+v", ev)
	case <-time.After(gracePeriod + time.Second):
	}
}

// TestGracePeriodTimesOutWhenStillDown covers the case where the
// connection is still not Connected once the grace period elapses:
// connection-failed must fire and the session must be torn down (no
// crypto context, not connected).
func TestGracePeriodTimesOutWhenStillDown(t *testing.T) {
	s := NewSession(nil)
	seedConnected(t, s)

	s.handleConnectionStateChange(webrtc.PeerConnectionStateDisconnected)
	waitForEvent(t, s, EventConnectionProblem, time.Second)
	waitForEvent(t, s, EventConnectionRecovering, time.Second)

	waitForEvent(t, s, EventConnectionFailed, gracePeriod+5*time.Second)

	if s.IsConnected() {
		t.Fatal("expected session to be torn down after grace period timeout")
	}
}

// TestDisconnectedBeforeEverConnectedStartsNoGraceTask covers the
// was-connected gate documented in DESIGN.md: a Disconnected/Failed
// transition on a session that never reached Connected must not emit
// connection-problem or spawn a grace task.
func TestDisconnectedBeforeEverConnectedStartsNoGraceTask(t *testing.T) {
	s := NewSession(nil)

	s.handleConnectionStateChange(webrtc.PeerConnectionStateDisconnected)

	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected event before any successful connection: %+v", ev)
	case <-time.After(500 * time.Millisecond):
	}
}

// TestSecondDisconnectedWhileGraceTaskPendingIsIgnored ensures a
// duplicate Disconnected/Failed callback (pion can deliver more than
// one) does not spawn a second concurrent grace task or re-emit
// connection-problem.
func TestSecondDisconnectedWhileGraceTaskPendingIsIgnored(t *testing.T) {
	s := NewSession(nil)
	seedConnected(t, s)

	s.handleConnectionStateChange(webrtc.PeerConnectionStateDisconnected)
	waitForEvent(t, s, EventConnectionProblem, time.Second)
	waitForEvent(t, s, EventConnectionRecovering, time.Second)

	s.handleConnectionStateChange(webrtc.PeerConnectionStateFailed)

	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected duplicate event: %+v", ev)
	case <-time.After(500 * time.Millisecond):
	}

	s.handleConnectionStateChange(webrtc.PeerConnectionStateConnected)
	waitForEvent(t, s, EventConnectionRecovered, time.Second)
	waitForEvent(t, s, EventConnected, time.Second)
}
