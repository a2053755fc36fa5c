package peer

import (
	"bytes"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// hkdfInfo is the fixed HKDF info label for this protocol's key split.
const hkdfInfo = "ssc-chat"

// cryptoContext holds the derived directional ciphers and sequence state
// for one session. It is created exactly once, when the first 32-byte
// peer public key arrives over the data channel, and is wiped wholesale
// on session teardown.
type cryptoContext struct {
	sealing oneAEAD
	opening oneAEAD

	sendSeq           uint64
	recvSeq           uint64
	lastAcceptedRecv  uint64

	sas string

	// sendKey/recvKey are kept only so their backing bytes can be
	// overwritten on wipe; the AEADs above hold their own copies.
	sendKey [32]byte
	recvKey [32]byte
}

// oneAEAD is the minimal surface this package needs from an AEAD cipher,
// satisfied by chacha20poly1305's returned cipher.AEAD.
type oneAEAD interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

// wipe overwrites every sensitive field with zero. Called from
// Session.Disconnect and Session.destroy.
func (c *cryptoContext) wipe() {
	if c == nil {
		return
	}
	for i := range c.sendKey {
		c.sendKey[i] = 0
	}
	for i := range c.recvKey {
		c.recvKey[i] = 0
	}
	c.sendSeq = 0
	c.recvSeq = 0
	c.lastAcceptedRecv = 0
	c.sas = ""
}

// keypair is an ephemeral X25519 keypair. The private half is consumed
// (taken, not copied) exactly once by buildCryptoContext; a second call
// after that returns an error rather than silently reusing key material.
type keypair struct {
	priv *ecdh.PrivateKey
	pub  [32]byte
}

func newKeypair() (*keypair, error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	kp := &keypair{priv: priv}
	copy(kp.pub[:], priv.PublicKey().Bytes())
	return kp, nil
}

// take returns the private key and clears it from kp so it cannot be
// consumed twice.
func (kp *keypair) take() (*ecdh.PrivateKey, error) {
	if kp == nil || kp.priv == nil {
		return nil, errors.New("peer: private key already consumed")
	}
	priv := kp.priv
	kp.priv = nil
	return priv, nil
}

// buildCryptoContext runs the key-agreement and directional key-split
// protocol: X25519 ECDH, HKDF-SHA-256 over empty salt with info
// "ssc-chat" expanded to 64 bytes, split into
// two 32-byte halves, assigned to send/receive by lexicographic order of
// the two public keys, and a 12-hex-character SAS derived from the first
// half.
func buildCryptoContext(mine *keypair, peerPub [32]byte) (*cryptoContext, error) {
	myPriv, err := mine.take()
	if err != nil {
		return nil, err
	}

	peerKey, err := ecdh.X25519().NewPublicKey(peerPub[:])
	if err != nil {
		return nil, err
	}

	shared, err := myPriv.ECDH(peerKey)
	if err != nil {
		return nil, err
	}
	defer zero(shared)

	okm := make([]byte, 64)
	kdf := hkdf.New(sha256.New, shared, nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, okm); err != nil {
		return nil, err
	}
	defer zero(okm)

	k1 := okm[:32]
	k2 := okm[32:]

	var sendKeySlice, recvKeySlice []byte
	if bytes.Compare(mine.pub[:], peerPub[:]) < 0 {
		sendKeySlice, recvKeySlice = k1, k2
	} else {
		sendKeySlice, recvKeySlice = k2, k1
	}

	ctx := &cryptoContext{
		sendSeq:          1,
		recvSeq:          1,
		lastAcceptedRecv: 0,
	}
	copy(ctx.sendKey[:], sendKeySlice)
	copy(ctx.recvKey[:], recvKeySlice)

	sealing, err := chacha20poly1305.New(ctx.sendKey[:])
	if err != nil {
		return nil, err
	}
	opening, err := chacha20poly1305.New(ctx.recvKey[:])
	if err != nil {
		return nil, err
	}
	ctx.sealing = sealing
	ctx.opening = opening

	fp := sha256.Sum256(k1)
	ctx.sas = hex.EncodeToString(fp[:6])

	return ctx, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
