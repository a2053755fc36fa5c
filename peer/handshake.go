package peer

import (
	"context"
	"time"

	"github.com/pion/webrtc/v3"
)

// bundleCollectTimeout is the timeout passed to collectCandidates by
// the bundle-mode handshake operations.
const bundleCollectTimeout = 10 * time.Second

func (s *Session) currentPC() *webrtc.PeerConnection {
	s.pcMu.Lock()
	defer s.pcMu.Unlock()
	return s.pc
}

// --- Trickle (legacy) flow ---------------------------------------------

// CreateOfferTrickle builds a new session, creates a data channel and
// local offer, and returns the envelope immediately without waiting for
// ICE candidates.
func (s *Session) CreateOfferTrickle() (SDPEnvelope, error) {
	id, err := newSessionID()
	if err != nil {
		return SDPEnvelope{}, ErrWebRTCFailure
	}
	s.id = id
	s.metrics.sessionStarted()

	pc, err := s.newPeerConnection()
	if err != nil {
		return SDPEnvelope{}, err
	}

	dc, err := pc.CreateDataChannel("ssc-chat", nil)
	if err != nil {
		return SDPEnvelope{}, ErrWebRTCFailure
	}
	s.attachDataChannel(dc)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return SDPEnvelope{}, ErrWebRTCFailure
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return SDPEnvelope{}, ErrWebRTCFailure
	}

	return SDPEnvelope{SDP: offer, ID: s.id, TS: time.Now().Unix()}, nil
}

// AcceptOfferTrickle builds a new session from a received offer
// envelope, sets the remote description, flushes any remote candidates
// the host queued early, creates and sets the answer, and returns the
// answer envelope.
func (s *Session) AcceptOfferTrickle(env SDPEnvelope) (SDPEnvelope, error) {
	s.id = env.ID
	s.metrics.sessionStarted()

	pc, err := s.newPeerConnection()
	if err != nil {
		return SDPEnvelope{}, err
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		s.attachDataChannel(dc)
	})

	if err := pc.SetRemoteDescription(env.SDP); err != nil {
		return SDPEnvelope{}, ErrWebRTCFailure
	}
	s.candidates.flushRemote(pc)

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return SDPEnvelope{}, ErrWebRTCFailure
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return SDPEnvelope{}, ErrWebRTCFailure
	}

	return SDPEnvelope{SDP: answer, ID: s.id, TS: time.Now().Unix()}, nil
}

// ApplyAnswerTrickle sets the remote description from a received answer
// and flushes any candidates queued while it was pending.
func (s *Session) ApplyAnswerTrickle(env SDPEnvelope) error {
	pc := s.currentPC()
	if pc == nil {
		return ErrStateAbsent
	}
	if err := pc.SetRemoteDescription(env.SDP); err != nil {
		return ErrWebRTCFailure
	}
	s.candidates.flushRemote(pc)
	return nil
}

// --- Bundle flow --------------------------------------------------------

// CreateOfferBundle mirrors CreateOfferTrickle but waits up to 10
// seconds for ICE candidates and returns them inline in the bundle.
func (s *Session) CreateOfferBundle() (Bundle, error) {
	env, err := s.CreateOfferTrickle()
	if err != nil {
		return Bundle{}, err
	}

	candidates := s.candidates.collectCandidates(context.Background(), bundleCollectTimeout)
	analyzeCandidates(candidates)
	return Bundle{SDPPayload: env, ICECandidates: candidates}, nil
}

// AcceptOfferBundle mirrors AcceptOfferTrickle but applies every
// candidate in the bundle directly instead of relying on the pending
// queue, then gathers and returns its own candidates.
func (s *Session) AcceptOfferBundle(bundle Bundle) (Bundle, error) {
	s.id = bundle.SDPPayload.ID
	s.metrics.sessionStarted()

	pc, err := s.newPeerConnection()
	if err != nil {
		return Bundle{}, err
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		s.attachDataChannel(dc)
	})

	if err := pc.SetRemoteDescription(bundle.SDPPayload.SDP); err != nil {
		return Bundle{}, ErrWebRTCFailure
	}
	for _, c := range bundle.ICECandidates {
		if err := pc.AddICECandidate(c.toInit()); err != nil {
			s.metrics.messageDropped("candidate-apply-failed")
		}
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return Bundle{}, ErrWebRTCFailure
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return Bundle{}, ErrWebRTCFailure
	}

	candidates := s.candidates.collectCandidates(context.Background(), bundleCollectTimeout)
	analyzeCandidates(candidates)
	return Bundle{
		SDPPayload:    SDPEnvelope{SDP: answer, ID: s.id, TS: time.Now().Unix()},
		ICECandidates: candidates,
	}, nil
}

// ApplyAnswerBundle sets the remote description from the answer bundle
// and applies every candidate it carries directly.
func (s *Session) ApplyAnswerBundle(bundle Bundle) error {
	pc := s.currentPC()
	if pc == nil {
		return ErrStateAbsent
	}
	if err := pc.SetRemoteDescription(bundle.SDPPayload.SDP); err != nil {
		return ErrWebRTCFailure
	}
	for _, c := range bundle.ICECandidates {
		if err := pc.AddICECandidate(c.toInit()); err != nil {
			s.metrics.messageDropped("candidate-apply-failed")
		}
	}
	return nil
}

// AddRemoteCandidate applies a host-delivered remote candidate
// immediately if the remote description is already set, otherwise
// queues it.
func (s *Session) AddRemoteCandidate(c ICECandidateRecord) error {
	pc := s.currentPC()
	if pc == nil {
		return ErrStateAbsent
	}
	if err := s.candidates.addRemote(pc, c); err != nil {
		return ErrWebRTCFailure
	}
	return nil
}
