// Package pbkdf stretches a passphrase into binary key material with PBKDF2
// over HMAC-SHA512.
package pbkdf

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
)

const (
	// SaltPrefix is prepended to the optional passphrase to form the seed
	// salt.
	SaltPrefix = "mnemonic"

	// SeedIterations is the iteration count used for seed stretching.
	SeedIterations = 2048

	// SeedLen is the stretched seed length in bytes.
	SeedLen = 64

	blockLen = sha512.Size
)

var ErrInvalidParameters = errors.New("pbkdf: iterations and key length must be positive")

// Stretch derives keyLen bytes from password and salt:
//
//	T_i = U_1 ^ U_2 ^ ... ^ U_c
//	U_1 = HMAC(password, salt || BE32(i)), U_k = HMAC(password, U_{k-1})
//
// The output is T_1 || T_2 || ... truncated to keyLen.
func Stretch(password, salt []byte, iterations uint32, keyLen int) ([]byte, error) {
	if iterations == 0 || keyLen <= 0 {
		return nil, ErrInvalidParameters
	}

	prf := hmac.New(sha512.New, password)
	blocks := (keyLen + blockLen - 1) / blockLen

	out := make([]byte, 0, blocks*blockLen)
	var (
		ctr [4]byte
		u   = make([]byte, 0, blockLen)
		t   = make([]byte, blockLen)
	)
	for i := 1; i <= blocks; i++ {
		binary.BigEndian.PutUint32(ctr[:], uint32(i))

		prf.Reset()
		prf.Write(salt)
		prf.Write(ctr[:])
		u = prf.Sum(u[:0])
		copy(t, u)

		for c := uint32(2); c <= iterations; c++ {
			prf.Reset()
			prf.Write(u)
			u = prf.Sum(u[:0])
			for k := range t {
				t[k] ^= u[k]
			}
		}
		out = append(out, t...)
	}
	return out[:keyLen], nil
}
