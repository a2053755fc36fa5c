package peer

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/pion/webrtc/v3"
)

func sampleEnvelope() SDPEnvelope {
	return SDPEnvelope{
		SDP: webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0\r\n"},
		ID:  "deadbeefcafef00d",
		TS:  1234567890,
	}
}

func TestSDPEnvelopeRoundTrip(t *testing.T) {
	env := sampleEnvelope()
	encoded, err := EncodeSDPEnvelope(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeSDPEnvelope(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != env {
		t.Fatalf("round trip mismatch: got %+v want %+v", decoded, env)
	}
}

func TestBundleRoundTrip(t *testing.T) {
	mid := "0"
	idx := uint16(0)
	b := Bundle{
		SDPPayload: sampleEnvelope(),
		ICECandidates: []ICECandidateRecord{
			{Candidate: "candidate:1 1 udp 1 1.2.3.4 1000 typ host", SDPMid: &mid, SDPMLineIndex: &idx, ConnectionID: "deadbeefcafef00d"},
			{Candidate: "candidate:2 1 udp 1 5.6.7.8 2000 typ srflx", ConnectionID: "deadbeefcafef00d"},
		},
	}
	encoded, err := EncodeBundle(b)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeBundle(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.SDPPayload != b.SDPPayload {
		t.Fatalf("sdp payload mismatch: got %+v want %+v", decoded.SDPPayload, b.SDPPayload)
	}
	if len(decoded.ICECandidates) != len(b.ICECandidates) {
		t.Fatalf("candidate count mismatch: got %d want %d", len(decoded.ICECandidates), len(b.ICECandidates))
	}
	for i := range b.ICECandidates {
		if decoded.ICECandidates[i].Candidate != b.ICECandidates[i].Candidate {
			t.Fatalf("candidate %d mismatch: got %q want %q", i, decoded.ICECandidates[i].Candidate, b.ICECandidates[i].Candidate)
		}
	}
}

func TestDecodeRejectsBadBase64(t *testing.T) {
	if _, err := DecodeSDPEnvelope("not-valid-base64!!"); err != ErrEnvelopeMalformed {
		t.Fatalf("got %v want ErrEnvelopeMalformed", err)
	}
}

func TestDecodeRejectsBadGzip(t *testing.T) {
	garbage := base64.StdEncoding.EncodeToString([]byte("this is not gzip data"))
	if _, err := DecodeSDPEnvelope(garbage); err != ErrEnvelopeMalformed {
		t.Fatalf("got %v want ErrEnvelopeMalformed", err)
	}
}

func TestDecodeRejectsBadJSON(t *testing.T) {
	encoded := gzipAndBase64(t, []byte("not json"))
	if _, err := DecodeSDPEnvelope(encoded); err != ErrEnvelopeMalformed {
		t.Fatalf("got %v want ErrEnvelopeMalformed", err)
	}
}

// TestDecodeSizeCapBoundary exercises the exact decompression-cap
// boundary: exactly 262,144 decompressed bytes must decode, 262,145
// must fail.
func TestDecodeSizeCapBoundary(t *testing.T) {
	// A JSON array of digits is easy to pad to an exact byte length:
	// each element after the first contributes ",0" (2 bytes).
	build := func(n int) []byte {
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i := 0; i < n; i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('0')
		}
		buf.WriteByte(']')
		return buf.Bytes()
	}

	// length = 2 + n + (n-1) = 2*n + 1, which is odd while the cap is
	// even, so n = (cap-2)/2 plus one trailing space (JSON whitespace)
	// hits the cap exactly, and a second trailing space exceeds it by one.
	n := (maxDecompressedEnvelope - 2) / 2
	exact := append(build(n), ' ')
	if len(exact) != maxDecompressedEnvelope {
		t.Fatalf("test setup: exact payload is %d bytes, want %d", len(exact), maxDecompressedEnvelope)
	}
	tooBig := append(build(n), ' ', ' ')
	if len(tooBig) != maxDecompressedEnvelope+1 {
		t.Fatalf("test setup: oversized payload is %d bytes, want %d", len(tooBig), maxDecompressedEnvelope+1)
	}

	var arr []int

	okEncoded := gzipAndBase64(t, exact)
	if err := decodeEnvelope(okEncoded, &arr); err != nil {
		t.Fatalf("exactly-at-cap payload should decode, got %v", err)
	}

	failEncoded := gzipAndBase64(t, tooBig)
	if err := decodeEnvelope(failEncoded, &arr); err != ErrEnvelopeMalformed {
		t.Fatalf("one-byte-over-cap payload should fail, got %v", err)
	}
}

func gzipAndBase64(t *testing.T, raw []byte) string {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeRejectsGarbageEvenWhenLooksLikeValidPrefix(t *testing.T) {
	encoded := gzipAndBase64(t, []byte(strings.Repeat("x", 10)))
	var v map[string]interface{}
	if err := decodeEnvelope(encoded, &v); err != ErrEnvelopeMalformed {
		t.Fatalf("got %v want ErrEnvelopeMalformed", err)
	}
}
