// Package hdkey implements BIP32 private key derivation over secp256k1.
//
// Only private derivation is supported: a master key is produced from a seed
// and every child is derived from its parent's private scalar and chain code.
// Public-only derivation and extended key serialization are not provided.
package hdkey

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"HDSIGN/internal/hdpath"
)

const (
	// KeyLen is the length of a private scalar and of a chain code.
	KeyLen = 32

	// childDataLen is the HMAC input length for both derivation branches:
	// 0x00 || ser256(k) || ser32(i) and serP(K) || ser32(i).
	childDataLen = 1 + KeyLen + 4
)

var masterHMACKey = []byte("Bitcoin seed")

var (
	// ErrInvalidMasterKey is returned when the seed hashes to a scalar that
	// is zero or not below the curve order. The seed is unusable.
	ErrInvalidMasterKey = errors.New("invalid master key")

	// ErrInvalidChildKey is returned when a derivation step yields an
	// unusable scalar. BIP32 callers skip to the next index.
	ErrInvalidChildKey = errors.New("invalid child key")

	// ErrEmptyPath is returned when DerivePath is given no indices.
	ErrEmptyPath = errors.New("empty derivation path")

	// ErrIndexExhausted is returned by ChildSkipInvalid when no valid child
	// remains in the hardened or normal half of the index space.
	ErrIndexExhausted = errors.New("child index range exhausted")
)

// ExtendedKey is a private scalar paired with its chain code. Values are
// never modified by derivation; each step returns a new key.
type ExtendedKey struct {
	PrivateKey [KeyLen]byte
	ChainCode  [KeyLen]byte
}

// IsRecoverable reports whether err only rules out the current child index.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrInvalidChildKey)
}

// NewMaster computes the master key for seed:
// I = HMAC-SHA512("Bitcoin seed", seed), k = I[:32], c = I[32:].
func NewMaster(seed []byte) (*ExtendedKey, error) {
	mac := hmac.New(sha512.New, masterHMACKey)
	mac.Write(seed)
	sum := mac.Sum(nil)
	defer zero(sum)

	k, ok := parseScalar(sum[:KeyLen])
	if !ok {
		return nil, ErrInvalidMasterKey
	}
	k.Zero()

	master := &ExtendedKey{}
	copy(master.PrivateKey[:], sum[:KeyLen])
	copy(master.ChainCode[:], sum[KeyLen:])
	return master, nil
}

// Child derives the child at index. Indices at or above
// hdpath.HardenedKeyStart use hardened derivation, which reads only the
// private scalar; the others commit to the compressed public key.
func (k *ExtendedKey) Child(index uint32) (*ExtendedKey, error) {
	parent, ok := parseScalar(k.PrivateKey[:])
	if !ok {
		return nil, fmt.Errorf("%w: parent scalar out of range", ErrInvalidChildKey)
	}
	defer parent.Zero()

	var data [childDataLen]byte
	defer zero(data[:])

	var n int
	if hdpath.Hardened(index) {
		data[0] = 0x00
		n = 1 + copy(data[1:], k.PrivateKey[:])
	} else {
		priv := secp256k1.NewPrivateKey(parent)
		n = copy(data[:], priv.PubKey().SerializeCompressed())
		priv.Zero()
	}
	if n != childDataLen-4 {
		return nil, fmt.Errorf("%w: unexpected serialized parent length %d",
			ErrInvalidChildKey, n)
	}
	binary.BigEndian.PutUint32(data[n:], index)

	mac := hmac.New(sha512.New, k.ChainCode[:])
	mac.Write(data[:])
	sum := mac.Sum(nil)
	defer zero(sum)

	childKey, ok := tweakAdd(parent, sum[:KeyLen])
	if !ok {
		log.Debugf("Child index %d produced an invalid scalar", index)
		return nil, fmt.Errorf("%w: index %d", ErrInvalidChildKey, index)
	}

	child := &ExtendedKey{PrivateKey: childKey}
	copy(child.ChainCode[:], sum[KeyLen:])
	zero(childKey[:])
	return child, nil
}

// DerivePath applies Child for every index of path in order, starting at
// master. The first failure aborts the walk.
func DerivePath(master *ExtendedKey, path hdpath.Path) (*ExtendedKey, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}

	current := master
	for depth, index := range path {
		child, err := current.Child(index)
		if current != master {
			current.Zero()
		}
		if err != nil {
			return nil, fmt.Errorf("derive %s at depth %d: %w",
				path[:depth+1], depth+1, err)
		}
		current = child
	}

	log.Tracef("Derived key at %v", path)
	return current, nil
}

// ChildSkipInvalid derives the first valid child at or after index, staying
// within the same half (hardened or normal) of the index space. The index
// actually used is returned with the key.
func ChildSkipInvalid(parent *ExtendedKey, index uint32) (*ExtendedKey, uint32, error) {
	hardened := hdpath.Hardened(index)
	for {
		child, err := parent.Child(index)
		if err == nil {
			return child, index, nil
		}
		if !IsRecoverable(err) {
			return nil, 0, err
		}

		next := index + 1
		if next < index || hdpath.Hardened(next) != hardened {
			return nil, 0, fmt.Errorf("%w: after %d", ErrIndexExhausted, index)
		}
		log.Infof("Skipping invalid child index %d", index)
		index = next
	}
}

// PublicKey returns the 33-byte compressed public key of k.
func (k *ExtendedKey) PublicKey() ([]byte, error) {
	s, ok := parseScalar(k.PrivateKey[:])
	if !ok {
		return nil, ErrInvalidChildKey
	}
	priv := secp256k1.NewPrivateKey(s)
	s.Zero()
	defer priv.Zero()
	return priv.PubKey().SerializeCompressed(), nil
}

// Zero clears the private scalar and chain code.
func (k *ExtendedKey) Zero() {
	zero(k.PrivateKey[:])
	zero(k.ChainCode[:])
}

// parseScalar interprets b as a big-endian scalar and accepts it only when it
// lies in [1, n-1].
func parseScalar(b []byte) (*secp256k1.ModNScalar, bool) {
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow || s.IsZero() {
		s.Zero()
		return nil, false
	}
	return &s, true
}

// tweakAdd returns (il + parent) mod n. It fails when il >= n or the sum is
// zero.
func tweakAdd(parent *secp256k1.ModNScalar, il []byte) ([KeyLen]byte, bool) {
	var t secp256k1.ModNScalar
	defer t.Zero()
	if overflow := t.SetByteSlice(il); overflow {
		return [KeyLen]byte{}, false
	}
	t.Add(parent)
	if t.IsZero() {
		return [KeyLen]byte{}, false
	}
	return t.Bytes(), true
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
