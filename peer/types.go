package peer

import "github.com/pion/webrtc/v3"

// SDPEnvelope is the serialisable unit carried out of band between peers:
// a session description plus enough metadata to correlate it with the
// candidates that follow.
type SDPEnvelope struct {
	SDP webrtc.SessionDescription `json:"sdp"`
	ID  string                    `json:"id"`
	TS  int64                     `json:"ts"`
}

// ICECandidateRecord is one ICE candidate as carried over the out-of-band
// channel, either inside a Bundle or one at a time via AddRemoteCandidate.
type ICECandidateRecord struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdp_mid"`
	SDPMLineIndex *uint16 `json:"sdp_mline_index"`
	ConnectionID  string  `json:"connection_id"`
}

// Bundle wraps an SDPEnvelope together with the full set of ICE candidates
// gathered for it, used by the bundle (non-trickle) handshake flow.
type Bundle struct {
	SDPPayload    SDPEnvelope          `json:"sdp_payload"`
	ICECandidates []ICECandidateRecord `json:"ice_candidates"`
}

// ServerConfig describes one user-supplied STUN or TURN server.
type ServerConfig struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"` // "stun" or "turn"
	URL        string  `json:"url"`
	Username   *string `json:"username,omitempty"`
	Credential *string `json:"credential,omitempty"`
}

func (s ICECandidateRecord) toInit() webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{
		Candidate:     s.Candidate,
		SDPMid:        s.SDPMid,
		SDPMLineIndex: s.SDPMLineIndex,
	}
}
