package peer

import (
	"context"
	"log"
	"time"

	"github.com/pion/webrtc/v3"
)

// newPeerConnection builds a fresh pion PeerConnection configured with
// the session's current ICE server list and resets the candidate store
// for it.
func (s *Session) newPeerConnection() (*webrtc.PeerConnection, error) {
	servers := s.ICEServers()
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: toWebRTCServers(servers),
	})
	if err != nil {
		return nil, ErrWebRTCFailure
	}

	s.candidates.reset()

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			s.candidates.markGatherComplete()
			return
		}
		init := c.ToJSON()
		rec := ICECandidateRecord{
			Candidate:    init.Candidate,
			ConnectionID: s.id,
		}
		rec.SDPMid = init.SDPMid
		rec.SDPMLineIndex = init.SDPMLineIndex
		s.candidates.recordLocal(rec)
		s.metrics.candidateGathered(c.Typ.String())
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.metrics.stateTransition(state.String())
		s.handleConnectionStateChange(state)
	})

	s.pcMu.Lock()
	s.pc = pc
	s.pcMu.Unlock()

	return pc, nil
}

// handleConnectionStateChange implements the connection lifecycle state
// machine. It must not block: any further work is spawned.
func (s *Session) handleConnectionStateChange(state webrtc.PeerConnectionState) {
	switch state {
	case webrtc.PeerConnectionStateConnected:
		s.cancelGrace()

		s.stateMu.Lock()
		s.wasConnected = true
		s.stateMu.Unlock()

		if s.IsConnected() {
			// A crypto context already exists, so this is a
			// reconnection after transient loss, not the first
			// handshake.
			s.events.emit(EventConnectionRecovered, "")
			s.events.emit(EventConnected, "")
		}
		// If no crypto context exists yet, connected is emitted later,
		// once the in-band key exchange completes on the data channel.

	case webrtc.PeerConnectionStateDisconnected, webrtc.PeerConnectionStateFailed:
		s.stateMu.Lock()
		hadTask := s.graceCancel != nil
		wasConnected := s.wasConnected
		if hadTask || !wasConnected {
			s.stateMu.Unlock()
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		s.graceCancel = cancel
		s.stateMu.Unlock()

		s.events.emit(EventConnectionProblem, "")
		go s.runGracePeriod(ctx)

	case webrtc.PeerConnectionStateClosed:
		s.cancelGrace()
		s.events.emit(EventDisconnected, "")
		s.destroy()
	}
}

// runGracePeriod emits recovering, then waits out the grace period; if
// the connection has not returned to Connected by the deadline it
// emits connection-failed. A return to Connected cancels ctx before
// this ever reaches the deadline, via handleConnectionStateChange.
func (s *Session) runGracePeriod(ctx context.Context) {
	s.events.emit(EventConnectionRecovering, "")

	timer := time.NewTimer(gracePeriod)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	s.stateMu.Lock()
	s.graceCancel = nil
	s.stateMu.Unlock()

	s.pcMu.Lock()
	pc := s.pc
	s.pcMu.Unlock()
	if pc == nil || pc.ConnectionState() != webrtc.PeerConnectionStateConnected {
		s.events.emit(EventConnectionFailed, "")
		s.destroy()
	}
}

// attachDataChannel wires open/message/close handlers onto dc, whether
// it was created locally (offerer) or delivered via OnDataChannel
// (answerer).
func (s *Session) attachDataChannel(dc *webrtc.DataChannel) {
	s.pcMu.Lock()
	s.dc = dc
	s.pcMu.Unlock()

	// The keypair is generated here, synchronously at attach time, not
	// inside OnOpen: pion runs OnOpen and the message read loop on
	// separate goroutines, so a keypair generated lazily in OnOpen can
	// still be nil when the peer's public key arrives.
	kp, err := newKeypair()
	if err != nil {
		log.Printf("peer: failed to generate ephemeral keypair: %v", err)
		return
	}
	s.cryptoMu.Lock()
	s.myKeypair = kp
	s.cryptoMu.Unlock()

	dc.OnOpen(func() {
		pub := kp.pub
		if err := dc.Send(pub[:]); err != nil {
			log.Printf("peer: failed to send public key: %v", err)
		}
	})

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		s.handleDataChannelMessage(msg.Data)
	})

	dc.OnClose(func() {
		s.events.emit(EventDisconnected, "")
		s.destroy()
	})
}

// handleDataChannelMessage dispatches an inbound payload to the
// handshake (a bare 32-byte public key, only while no crypto context
// exists yet) or to the cipher (everything else).
func (s *Session) handleDataChannelMessage(data []byte) {
	s.cryptoMu.Lock()
	haveCrypto := s.crypto != nil
	s.cryptoMu.Unlock()

	if len(data) == 32 {
		if haveCrypto {
			// Idempotent handshake: a second public key after the
			// context already exists is silently dropped, never
			// misparsed as ciphertext.
			return
		}
		s.completeHandshake([32]byte(data))
		return
	}

	if !haveCrypto {
		s.metrics.messageDropped("no-crypto-context")
		return
	}

	s.cryptoMu.Lock()
	plaintext, err := s.crypto.open(data)
	s.cryptoMu.Unlock()
	if err != nil {
		s.metrics.messageDropped(err.Error())
		return
	}

	s.metrics.messageReceived()
	s.events.emit(EventMessage, string(plaintext))
}

// completeHandshake builds the directional crypto context from the
// peer's public key and, once built, emits connected for the first time
// in this session.
func (s *Session) completeHandshake(peerPub [32]byte) {
	s.cryptoMu.Lock()
	if s.crypto != nil || s.myKeypair == nil {
		s.cryptoMu.Unlock()
		return
	}
	ctx, err := buildCryptoContext(s.myKeypair, peerPub)
	if err != nil {
		s.cryptoMu.Unlock()
		log.Printf("peer: key agreement failed: %v", err)
		return
	}
	s.crypto = ctx
	s.cryptoMu.Unlock()

	s.events.emit(EventConnected, "")
}
