// Package signer produces compact secp256k1 ECDSA signatures, either from a
// raw private key or from a mnemonic, password and derivation path.
//
// Nonces are generated deterministically (RFC6979) and signatures are
// normalized to low S, so signing the same message with the same key always
// yields the same 64 bytes.
package signer

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"HDSIGN/internal/derive"
	"HDSIGN/internal/hdkey"
)

const (
	// SignatureSize is the length of a compact r || s signature.
	SignatureSize = 64

	// DigestSize is the length of the message digest that is signed.
	DigestSize = sha256.Size

	// compactSigSize includes the leading recovery byte produced by
	// ecdsa.SignCompact.
	compactSigSize = 1 + SignatureSize
)

var ErrSigningFailure = errors.New("signing failure")

// Sign hashes message with SHA-256 and signs the digest.
func Sign(privateKey, message []byte) ([]byte, error) {
	return SignDigest(privateKey, sha256.Sum256(message))
}

// SignDigest signs a 32-byte digest and returns r || s, each 32 bytes
// big-endian. The key must be a scalar in [1, n-1].
func SignDigest(privateKey []byte, digest [DigestSize]byte) ([]byte, error) {
	if len(privateKey) != hdkey.KeyLen {
		return nil, fmt.Errorf("%w: private key is %d bytes, want %d",
			ErrSigningFailure, len(privateKey), hdkey.KeyLen)
	}
	var k btcec.ModNScalar
	overflow := k.SetByteSlice(privateKey)
	invalid := overflow || k.IsZero()
	k.Zero()
	if invalid {
		return nil, fmt.Errorf("%w: private key out of range", ErrSigningFailure)
	}

	priv, _ := btcec.PrivKeyFromBytes(privateKey)
	defer priv.Zero()

	compact := ecdsa.SignCompact(priv, digest[:], true)
	if len(compact) != compactSigSize {
		return nil, fmt.Errorf("%w: unexpected signature length %d",
			ErrSigningFailure, len(compact))
	}

	sig := make([]byte, SignatureSize)
	copy(sig, compact[1:])
	return sig, nil
}

// SignWithPath derives the key at path from mnemonic and password and signs
// message with it. The first failing stage determines the returned error, so
// errors.Is distinguishes a bad path from a signing failure.
func SignWithPath(mnemonic, password, path string, message []byte) ([]byte, error) {
	key, err := derive.DeriveKey(mnemonic, password, path)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	sig, err := Sign(key.PrivateKey[:], message)
	if err != nil {
		return nil, err
	}
	log.Debugf("Signed %d byte message with key at %s", len(message), path)
	return sig, nil
}
