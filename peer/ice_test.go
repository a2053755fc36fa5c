package peer

import (
	"testing"

	"github.com/pion/webrtc/v3"
)

func TestCandidateStoreRecordLocal(t *testing.T) {
	s := &candidateStore{}
	s.recordLocal(ICECandidateRecord{Candidate: "candidate:1 1 udp 1 1.2.3.4 1 typ host"})
	s.recordLocal(ICECandidateRecord{Candidate: "candidate:2 1 udp 1 1.2.3.4 2 typ srflx"})
	got := s.snapshotLocal()
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].Candidate != "candidate:1 1 udp 1 1.2.3.4 1 typ host" {
		t.Fatalf("insertion order not preserved: %+v", got)
	}
}

func TestCandidateStoreResetClearsEverything(t *testing.T) {
	s := &candidateStore{}
	s.recordLocal(ICECandidateRecord{Candidate: "x"})
	s.enqueueRemote(ICECandidateRecord{Candidate: "y"})
	s.markGatherComplete()

	s.reset()

	if len(s.snapshotLocal()) != 0 {
		t.Fatal("local candidates not cleared by reset")
	}
	if len(s.drainRemote()) != 0 {
		t.Fatal("pending remote candidates not cleared by reset")
	}
	if s.isGatherComplete() {
		t.Fatal("gather-complete flag not cleared by reset")
	}
}

// A freshly constructed PeerConnection always has a nil remote
// description, so addRemote must always enqueue rather than apply.
func TestAddRemoteQueuesBeforeRemoteDescriptionIsSet(t *testing.T) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatalf("NewPeerConnection: %v", err)
	}
	defer pc.Close()

	s := &candidateStore{}
	rec := ICECandidateRecord{Candidate: "candidate:1 1 udp 1 1.2.3.4 1 typ host"}
	if err := s.addRemote(pc, rec); err != nil {
		t.Fatalf("addRemote: %v", err)
	}

	drained := s.drainRemote()
	if len(drained) != 1 || drained[0].Candidate != rec.Candidate {
		t.Fatalf("candidate was not queued: %+v", drained)
	}
}

func TestFlushRemoteDrainsQueueRegardlessOfPerCandidateOutcome(t *testing.T) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatalf("NewPeerConnection: %v", err)
	}
	defer pc.Close()

	s := &candidateStore{}
	s.enqueueRemote(ICECandidateRecord{Candidate: "candidate:1 1 udp 1 1.2.3.4 1 typ host"})
	s.enqueueRemote(ICECandidateRecord{Candidate: "candidate:2 1 udp 1 1.2.3.4 2 typ srflx"})

	// No remote description has been set, so pion may reject every one
	// of these; the contract under test is that the queue still fully
	// drains and flushRemote does not panic or short-circuit.
	s.flushRemote(pc)

	if len(s.drainRemote()) != 0 {
		t.Fatal("flushRemote left candidates in the queue")
	}
}

func TestAnalyzeCandidatesCountsByTypeSubstring(t *testing.T) {
	records := []ICECandidateRecord{
		{Candidate: "candidate:1 1 udp 1 1.2.3.4 1 typ host"},
		{Candidate: "candidate:2 1 udp 1 1.2.3.4 2 typ host"},
		{Candidate: "candidate:3 1 udp 1 1.2.3.4 3 typ srflx"},
		{Candidate: "candidate:4 1 udp 1 1.2.3.4 4 typ relay"},
	}
	counts := analyzeCandidates(records)
	if counts.Host != 2 || counts.Srflx != 1 || counts.Relay != 1 {
		t.Fatalf("got %+v, want {Host:2 Srflx:1 Relay:1}", counts)
	}
}

func TestAnalyzeCandidatesEmptyInput(t *testing.T) {
	counts := analyzeCandidates(nil)
	if counts.Host != 0 || counts.Srflx != 0 || counts.Relay != 0 {
		t.Fatalf("got %+v, want zero counts", counts)
	}
}

// TestAnalyzeCandidatesZeroRelayStillReturnsCounts exercises the
// warning path (no relay candidates present): analyze must still
// return accurate host/srflx counts, whatever it logs.
func TestAnalyzeCandidatesZeroRelayStillReturnsCounts(t *testing.T) {
	records := []ICECandidateRecord{
		{Candidate: "candidate:1 1 udp 1 1.2.3.4 1 typ host"},
		{Candidate: "candidate:2 1 udp 1 1.2.3.4 2 typ srflx"},
	}
	counts := analyzeCandidates(records)
	if counts.Relay != 0 || counts.Host != 1 || counts.Srflx != 1 {
		t.Fatalf("got %+v, want {Host:1 Srflx:1 Relay:0}", counts)
	}
}
