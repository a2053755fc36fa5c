package peer

import (
	"encoding/binary"
	"errors"
)

// tagLen is the ChaCha20-Poly1305 authentication tag size in bytes.
const tagLen = 16

// ErrReplay is returned when the receive counter is not strictly greater
// than the replay floor. Under the current reliable-ordered data channel
// this branch is defensive rather than reachable in normal operation —
// the receive counter only ever advances past the floor on acceptance —
// but it is the guard a future out-of-order-delivery variant would rely
// on, so it stays in place.
var ErrReplay = errors.New("peer: replayed or out-of-order message rejected")

// ErrCipherFailure covers AEAD seal/open failures: bad tag, truncated
// ciphertext, or any other authentication failure. A replayed ciphertext
// from an already-advanced receive counter surfaces here too, since its
// nonce no longer matches the counter the receiver is expecting.
var ErrCipherFailure = errors.New("peer: cipher operation failed")

// seqNonce builds a 12-byte ChaCha20-Poly1305 nonce from a sequence
// number: four zero bytes followed by the sequence number as
// big-endian uint64.
func seqNonce(seq uint64) [12]byte {
	var n [12]byte
	binary.BigEndian.PutUint64(n[4:], seq)
	return n
}

// seal encrypts plaintext under the session's sending key, using the
// current send sequence number as the nonce counter, then advances it.
// The counter is consumed even if the caller never manages to deliver
// the ciphertext — it is never retried under the same nonce.
func (c *cryptoContext) seal(plaintext []byte) []byte {
	n := seqNonce(c.sendSeq)
	out := c.sealing.Seal(nil, n[:], plaintext, nil)
	c.sendSeq++
	return out
}

// open decrypts a data-channel payload using the session's current
// receive counter as the nonce: the sequence number is never carried on
// the wire, since both ends derive it independently from a reliable,
// ordered channel.
//
// A payload of tagLen bytes or fewer is rejected: it cannot carry a
// non-empty plaintext.
//
// On success the receive counter becomes the new replay floor and is
// then advanced; on any failure — bad tag, too-short payload, or the
// floor check — neither counter moves. A single corrupted message
// therefore permanently desynchronizes the session rather than silently
// skipping ahead; a replayed earlier ciphertext fails to open under the
// current nonce and leaves the next genuine message openable.
func (c *cryptoContext) open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) <= tagLen {
		return nil, ErrCipherFailure
	}
	if c.recvSeq <= c.lastAcceptedRecv {
		return nil, ErrReplay
	}

	n := seqNonce(c.recvSeq)
	plaintext, err := c.opening.Open(nil, n[:], ciphertext, nil)
	if err != nil {
		return nil, ErrCipherFailure
	}

	c.lastAcceptedRecv = c.recvSeq
	c.recvSeq++
	return plaintext, nil
}
