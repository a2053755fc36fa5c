package peer

import "errors"

// ErrWebRTCFailure wraps any failure from the underlying WebRTC library:
// peer construction, SDP application, or candidate application that
// happens as part of a host-invoked handshake operation (as opposed to
// a background candidate flush, which is logged and skipped instead).
var ErrWebRTCFailure = errors.New("peer: webrtc operation failed")

// ErrStateAbsent is returned when an operation needs a session or
// crypto context that does not currently exist.
var ErrStateAbsent = errors.New("peer: no active session")
