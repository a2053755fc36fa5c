package peer

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
)

// candidatePollInterval is how often collectCandidates re-checks its
// exit conditions.
const candidatePollInterval = 100 * time.Millisecond

// candidateMinWait is the minimum time collectCandidates always waits
// before returning, even if a candidate or gathering-complete arrives
// sooner: STUN/TURN responses can trail the first host candidate, so
// returning instantly yields a bundle that is useless behind NAT.
const candidateMinWait = 2 * time.Second

// candidateStore holds the per-session local and pending-remote ICE
// candidate collections.
type candidateStore struct {
	mu sync.Mutex

	local          []ICECandidateRecord
	pendingRemote  []ICECandidateRecord
	gatherComplete bool
}

// recordLocal appends a freshly gathered local candidate. No
// deduplication.
func (s *candidateStore) recordLocal(c ICECandidateRecord) {
	s.mu.Lock()
	s.local = append(s.local, c)
	s.mu.Unlock()
}

// markGatherComplete is called once, when the ICE layer signals the
// terminating nil candidate.
func (s *candidateStore) markGatherComplete() {
	s.mu.Lock()
	s.gatherComplete = true
	s.mu.Unlock()
}

func (s *candidateStore) reset() {
	s.mu.Lock()
	s.local = nil
	s.pendingRemote = nil
	s.gatherComplete = false
	s.mu.Unlock()
}

// enqueueRemote appends a remote candidate to the pending queue, to be
// applied once a remote description exists.
func (s *candidateStore) enqueueRemote(c ICECandidateRecord) {
	s.mu.Lock()
	s.pendingRemote = append(s.pendingRemote, c)
	s.mu.Unlock()
}

// drainRemote removes and returns every queued remote candidate in
// insertion order.
func (s *candidateStore) drainRemote() []ICECandidateRecord {
	s.mu.Lock()
	drained := s.pendingRemote
	s.pendingRemote = nil
	s.mu.Unlock()
	return drained
}

// snapshotLocal returns a copy of the local candidate list gathered so
// far.
func (s *candidateStore) snapshotLocal() []ICECandidateRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ICECandidateRecord, len(s.local))
	copy(out, s.local)
	return out
}

func (s *candidateStore) hasLocal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.local) > 0
}

func (s *candidateStore) isGatherComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gatherComplete
}

// addRemote applies a remote candidate immediately if pc already has a
// remote description, otherwise enqueues it for a later flush.
func (s *candidateStore) addRemote(pc *webrtc.PeerConnection, c ICECandidateRecord) error {
	if pc.RemoteDescription() == nil {
		s.enqueueRemote(c)
		return nil
	}
	return pc.AddICECandidate(c.toInit())
}

// flushRemote drains the pending-remote queue and applies each
// candidate in order. A per-candidate failure is logged and collected
// into the returned slice rather than aborting the rest of the flush.
func (s *candidateStore) flushRemote(pc *webrtc.PeerConnection) []error {
	var errs []error
	for _, c := range s.drainRemote() {
		if err := pc.AddICECandidate(c.toInit()); err != nil {
			log.Printf("peer: failed to apply queued remote candidate: %v", err)
			errs = append(errs, err)
		}
	}
	return errs
}

// collectCandidates waits for the ICE layer to finish gathering or for
// at least one local candidate to show up, subject to a 2-second
// minimum wait and the given maximum timeout, then snapshots and
// returns the local candidate list.
func (s *candidateStore) collectCandidates(ctx context.Context, timeout time.Duration) []ICECandidateRecord {
	deadline := time.Now().Add(timeout)
	minDeadline := time.Now().Add(candidateMinWait)

	ticker := time.NewTicker(candidatePollInterval)
	defer ticker.Stop()

	for {
		now := time.Now()
		pastMinWait := !now.Before(minDeadline)
		ready := pastMinWait && (s.isGatherComplete() || s.hasLocal())
		if ready || !now.Before(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return s.snapshotLocal()
		case <-ticker.C:
		}
	}
	return s.snapshotLocal()
}

// candidateCounts is the result of analyze: how many local candidates
// fall into each of the three kinds worth distinguishing.
type candidateCounts struct {
	Host  int
	Srflx int
	Relay int
}

// analyzeCandidates counts candidates of types host/srflx/relay by
// substring of the serialised candidate line rather than a structured
// field, and warns when the bundle carries no relay candidate: without
// one, connectivity behind a symmetric NAT or restrictive firewall is
// unlikely to succeed.
func analyzeCandidates(records []ICECandidateRecord) candidateCounts {
	var c candidateCounts
	for _, r := range records {
		switch {
		case strings.Contains(r.Candidate, "typ host"):
			c.Host++
		case strings.Contains(r.Candidate, "typ srflx"):
			c.Srflx++
		case strings.Contains(r.Candidate, "typ relay"):
			c.Relay++
		}
	}
	if c.Relay == 0 {
		log.Printf("peer: WARNING: No TURN relay candidates found!")
	}
	return c
}

// CheckServerReachable drives a throwaway peer connection configured
// with exactly one ICE server and reports whether a candidate of the
// server-type-appropriate kind (srflx for stun, relay for turn) arrives
// within 10 seconds. It never touches the session's own peer or state.
func (s *Session) CheckServerReachable(server ServerConfig) (bool, error) {
	normalized, err := validateICEServers([]ServerConfig{server})
	if err != nil {
		return false, err
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: toWebRTCServers(normalized),
	})
	if err != nil {
		return false, ErrWebRTCFailure
	}
	defer pc.Close()

	wantType := webrtc.ICECandidateTypeSrflx
	if strings.ToLower(server.Type) == "turn" {
		wantType = webrtc.ICECandidateTypeRelay
	}

	found := make(chan bool, 1)
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		if c.Typ == wantType {
			select {
			case found <- true:
			default:
			}
		}
	})

	if _, err := pc.CreateDataChannel("probe", nil); err != nil {
		return false, ErrWebRTCFailure
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return false, ErrWebRTCFailure
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return false, ErrWebRTCFailure
	}

	select {
	case <-found:
		return true, nil
	case <-time.After(10 * time.Second):
		return false, nil
	}
}
