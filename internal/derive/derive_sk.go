package derive

import (
	"errors"
	"fmt"

	"HDSIGN/internal/hdkey"
	"HDSIGN/internal/hdpath"
	"HDSIGN/internal/pbkdf"
)

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrInvalidSeed     = errors.New("invalid seed")
)

// Why(中文): 种子拉伸参数固定为 2048 次、64 字节，盐为 "mnemonic"+口令，与标准钱包逐字节一致。
// Why(English): Seed stretching is fixed at 2048 rounds and 64 bytes with salt "mnemonic"+password, byte-compatible with standard wallets.
func Seed(mnemonic, password string) ([]byte, error) {
	if mnemonic == "" {
		return nil, ErrInvalidMnemonic
	}
	seed, err := pbkdf.Stretch([]byte(mnemonic), []byte(pbkdf.SaltPrefix+password),
		pbkdf.SeedIterations, pbkdf.SeedLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	return seed, nil
}

// DeriveKey runs seed stretching, master key generation, path parsing and
// path derivation in that order and stops at the first failing stage.
func DeriveKey(mnemonic, password, path string) (*hdkey.ExtendedKey, error) {
	seed, err := Seed(mnemonic, password)
	if err != nil {
		return nil, err
	}
	master, err := hdkey.NewMaster(seed)
	zero(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	defer master.Zero()

	indices, err := hdpath.Parse(path)
	if err != nil {
		return nil, err
	}
	log.Debugf("Deriving key at %s", indices)

	return hdkey.DerivePath(master, indices)
}

// DeriveSK returns a copy of the 32-byte private key at path.
func DeriveSK(mnemonic, password, path string) ([]byte, error) {
	key, err := DeriveKey(mnemonic, password, path)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	sk := make([]byte, hdkey.KeyLen)
	copy(sk, key.PrivateKey[:])
	return sk, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
