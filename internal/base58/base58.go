package base58

import (
	"crypto/sha256"
	"errors"
	"fmt"

	mrtron "github.com/mr-tron/base58/base58"
)

// Alphabet is the Bitcoin base58 alphabet: no 0, O, I or l.
const Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

const checksumLen = 4

var (
	ErrInvalidCharacter = errors.New("base58: invalid character")
	ErrInvalidFormat    = errors.New("base58: invalid format")
	ErrChecksum         = errors.New("base58: checksum mismatch")
)

// Encode converts b to base58 text. Every leading zero byte becomes one '1'.
func Encode(b []byte) string {
	zeros := 0
	for zeros < len(b) && b[zeros] == 0 {
		zeros++
	}

	// log(256)/log(58) < 1.37, so 138 digits per 100 bytes always fit.
	digits := make([]byte, 0, (len(b)-zeros)*138/100+1)
	num := append([]byte(nil), b[zeros:]...)
	for len(num) > 0 {
		var rem int
		quotient := num[:0]
		for _, v := range num {
			acc := rem<<8 | int(v)
			q := acc / 58
			rem = acc % 58
			if len(quotient) > 0 || q != 0 {
				quotient = append(quotient, byte(q))
			}
		}
		digits = append(digits, Alphabet[rem])
		num = quotient
	}

	out := make([]byte, zeros+len(digits))
	for i := 0; i < zeros; i++ {
		out[i] = Alphabet[0]
	}
	for i, d := range digits {
		out[len(out)-1-i] = d
	}
	return string(out)
}

// Decode is the inverse of Encode. Empty input decodes to an empty slice.
func Decode(s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	out, err := mrtron.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCharacter, err)
	}
	return out, nil
}

// CheckEncode prepends version to payload, appends the first four bytes of
// double SHA-256 and encodes the result.
func CheckEncode(version byte, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+checksumLen)
	buf = append(buf, version)
	buf = append(buf, payload...)
	sum := checksum(buf)
	buf = append(buf, sum[:]...)
	return Encode(buf)
}

// CheckDecode reverses CheckEncode.
func CheckDecode(s string) (byte, []byte, error) {
	raw, err := Decode(s)
	if err != nil {
		return 0, nil, err
	}
	if len(raw) < 1+checksumLen {
		return 0, nil, ErrInvalidFormat
	}
	body := raw[:len(raw)-checksumLen]
	sum := checksum(body)
	got := raw[len(raw)-checksumLen:]
	for i := 0; i < checksumLen; i++ {
		if sum[i] != got[i] {
			return 0, nil, ErrChecksum
		}
	}
	return body[0], body[1:], nil
}

func checksum(b []byte) (out [checksumLen]byte) {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	copy(out[:], second[:checksumLen])
	return out
}
