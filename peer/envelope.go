package peer

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
)

// maxDecompressedEnvelope bounds the decompressed size of an incoming
// envelope, guarding against a compression-bomb on the decoding peer.
const maxDecompressedEnvelope = 256 * 1024 // 256 KiB

// ErrEnvelopeMalformed is returned for any failure along the decode path:
// bad base64, bad gzip, the size cap exceeded, or bad JSON.
var ErrEnvelopeMalformed = errors.New("peer: envelope malformed")

// encodeEnvelope serialises v as JSON, gzips at the fastest setting, and
// base64-encodes the result with the standard padded alphabet.
func encodeEnvelope(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return "", err
	}
	if _, err := gz.Write(raw); err != nil {
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// decodeEnvelope reverses encodeEnvelope into v, rejecting anything that
// would decompress past maxDecompressedEnvelope.
func decodeEnvelope(s string, v interface{}) error {
	compressed, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ErrEnvelopeMalformed
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return ErrEnvelopeMalformed
	}
	defer gz.Close()

	// Read one byte past the cap so exceeding it by even one byte fails,
	// while exactly maxDecompressedEnvelope bytes still succeeds.
	limited := io.LimitReader(gz, maxDecompressedEnvelope+1)
	decompressed, err := io.ReadAll(limited)
	if err != nil {
		return ErrEnvelopeMalformed
	}
	if len(decompressed) > maxDecompressedEnvelope {
		return ErrEnvelopeMalformed
	}

	if err := json.Unmarshal(decompressed, v); err != nil {
		return ErrEnvelopeMalformed
	}
	return nil
}

// EncodeSDPEnvelope encodes a trickle-mode envelope.
func EncodeSDPEnvelope(e SDPEnvelope) (string, error) {
	return encodeEnvelope(e)
}

// DecodeSDPEnvelope decodes a trickle-mode envelope.
func DecodeSDPEnvelope(s string) (SDPEnvelope, error) {
	var e SDPEnvelope
	err := decodeEnvelope(s, &e)
	return e, err
}

// EncodeBundle encodes a bundle-mode envelope.
func EncodeBundle(b Bundle) (string, error) {
	return encodeEnvelope(b)
}

// DecodeBundle decodes a bundle-mode envelope.
func DecodeBundle(s string) (Bundle, error) {
	var b Bundle
	err := decodeEnvelope(s, &b)
	return b, err
}
