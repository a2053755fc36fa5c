package peer

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// gracePeriod is the window a lost connection is given to recover
// before the session is declared failed.
const gracePeriod = 10 * time.Second

// Session is the single active peer session per process: one peer
// connection, one data channel once negotiated, an optional crypto
// context, candidate queues, and the bookkeeping the connection
// lifecycle state machine needs. Each field group below is guarded by
// its own mutex so callbacks only ever hold the lock they need, and
// release it before awaiting.
type Session struct {
	pcMu sync.Mutex
	pc   *webrtc.PeerConnection
	dc   *webrtc.DataChannel

	cryptoMu  sync.Mutex
	crypto    *cryptoContext
	myKeypair *keypair

	candidates *candidateStore

	configMu   sync.Mutex
	iceServers []ServerConfig

	stateMu      sync.Mutex
	wasConnected bool
	graceCancel  context.CancelFunc

	events  *eventSink
	metrics *Metrics

	id string
}

// NewSession constructs an idle session with no peer connection yet.
// reg may be nil, in which case metrics are collected in-process but
// never exported to a scrape endpoint.
func NewSession(reg prometheus.Registerer) *Session {
	return &Session{
		candidates: &candidateStore{},
		events:     newEventSink(),
		metrics:    NewMetrics(reg),
	}
}

// Events returns the channel the host should range over for connection
// and message notifications.
func (s *Session) Events() <-chan Event {
	return s.events.events()
}

// IsConnected reports whether a crypto context exists, not the
// underlying WebRTC connection state, since the data channel can be
// open before the key exchange completes.
func (s *Session) IsConnected() bool {
	s.cryptoMu.Lock()
	defer s.cryptoMu.Unlock()
	return s.crypto != nil
}

// Fingerprint returns the session's SAS string, or false if no crypto
// context exists yet (or any longer, after Disconnect).
func (s *Session) Fingerprint() (string, bool) {
	s.cryptoMu.Lock()
	defer s.cryptoMu.Unlock()
	if s.crypto == nil {
		return "", false
	}
	return s.crypto.sas, true
}

// SendText encrypts and sends plaintext over the established data
// channel. It fails with ErrStateAbsent if no crypto context exists yet.
func (s *Session) SendText(plaintext string) error {
	s.cryptoMu.Lock()
	if s.crypto == nil {
		s.cryptoMu.Unlock()
		return ErrStateAbsent
	}
	// The counter increment and the seal happen inside one critical
	// section so nonce uniqueness holds under concurrent SendText calls.
	ciphertext := s.crypto.seal([]byte(plaintext))
	s.cryptoMu.Unlock()

	s.pcMu.Lock()
	dc := s.dc
	s.pcMu.Unlock()
	if dc == nil {
		return ErrStateAbsent
	}
	if err := dc.Send(ciphertext); err != nil {
		return ErrWebRTCFailure
	}
	s.metrics.messageSent()
	return nil
}

// Disconnect closes the data channel and peer connection, cancels any
// pending grace-period task, wipes the crypto context and key slots,
// clears the candidate queues, and emits disconnected.
func (s *Session) Disconnect() {
	s.cancelGrace()

	s.pcMu.Lock()
	dc, pc := s.dc, s.pc
	s.dc, s.pc = nil, nil
	s.pcMu.Unlock()

	if dc != nil {
		dc.Close()
	}
	if pc != nil {
		pc.Close()
	}

	s.cryptoMu.Lock()
	s.crypto.wipe()
	s.crypto = nil
	s.myKeypair = nil
	s.cryptoMu.Unlock()

	s.candidates.reset()

	s.stateMu.Lock()
	s.wasConnected = false
	s.stateMu.Unlock()

	s.metrics.sessionTornDown()
	s.events.emit(EventDisconnected, "")
}

// destroy is Disconnect's internals without re-emitting disconnected,
// for callers (data-channel close, peer Closed transition) that already
// emit the event themselves before or instead of this cleanup.
func (s *Session) destroy() {
	s.cancelGrace()

	s.pcMu.Lock()
	dc, pc := s.dc, s.pc
	s.dc, s.pc = nil, nil
	s.pcMu.Unlock()

	if dc != nil {
		dc.Close()
	}
	if pc != nil {
		pc.Close()
	}

	s.cryptoMu.Lock()
	s.crypto.wipe()
	s.crypto = nil
	s.myKeypair = nil
	s.cryptoMu.Unlock()

	s.candidates.reset()

	s.stateMu.Lock()
	s.wasConnected = false
	s.stateMu.Unlock()

	s.metrics.sessionTornDown()
}

func (s *Session) cancelGrace() {
	s.stateMu.Lock()
	cancel := s.graceCancel
	s.graceCancel = nil
	s.stateMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// newSessionID mints the hex-of-8-random-bytes identifier assigned to a
// freshly minted SDP envelope.
func newSessionID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
