// Package address renders the public key of a derived secp256k1 key as a
// pay-to-pubkey-hash or Ethereum account address.
package address

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	//nolint
	"golang.org/x/crypto/ripemd160" //lint:ignore SA1019 HASH160 is defined over RIPEMD-160
	"golang.org/x/crypto/sha3"

	"HDSIGN/internal/base58"
)

const (
	// VersionMainNet is the P2PKH version byte on Bitcoin main net.
	VersionMainNet byte = 0x00

	// VersionTestNet is the P2PKH version byte on Bitcoin test networks.
	VersionTestNet byte = 0x6f

	// PubKeyLen is the length of a compressed public key.
	PubKeyLen = secp256k1.PubKeyBytesLenCompressed

	ethAddressLen = 20
)

var ErrInvalidPubKey = errors.New("invalid public key")

// Hash160 returns RIPEMD160(SHA256(b)).
func Hash160(b []byte) []byte {
	sum := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// P2PKH returns the base58check pay-to-pubkey-hash address of a compressed
// public key.
func P2PKH(pubKey []byte, version byte) (string, error) {
	if len(pubKey) != PubKeyLen {
		return "", fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPubKey,
			len(pubKey), PubKeyLen)
	}
	if _, err := secp256k1.ParsePubKey(pubKey); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPubKey, err)
	}
	return base58.CheckEncode(version, Hash160(pubKey)), nil
}

// Ethereum returns the EIP-55 checksummed account address for pubKey, which
// may be compressed or uncompressed.
func Ethereum(pubKey []byte) (string, error) {
	pub, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPubKey, err)
	}

	// Drop the 0x04 prefix and hash X || Y.
	raw := pub.SerializeUncompressed()[1:]
	addr := keccak256(raw)[32-ethAddressLen:]
	return "0x" + checksumHex(addr), nil
}

// checksumHex applies EIP-55: a hex letter is upper case when the matching
// nibble of keccak256(lowercase hex) is 8 or more.
func checksumHex(addr []byte) string {
	lower := []byte(hex.EncodeToString(addr))
	hash := keccak256(lower)
	for i, c := range lower {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			lower[i] = c - ('a' - 'A')
		}
	}
	return string(lower)
}

func keccak256(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	return h.Sum(nil)
}
