package address

import (
	"encoding/hex"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"

	"HDSIGN/internal/derive"
	"HDSIGN/internal/hdkey"
)

func pubKeyOne(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	key[31] = 1
	return secp256k1.PrivKeyFromBytes(key).PubKey().SerializeCompressed()
}

func TestHash160(t *testing.T) {
	require.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6",
		hex.EncodeToString(Hash160(pubKeyOne(t))))
}

func TestP2PKH(t *testing.T) {
	addr, err := P2PKH(pubKeyOne(t), VersionMainNet)
	require.NoError(t, err)
	require.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", addr)

	addr, err = P2PKH(pubKeyOne(t), VersionTestNet)
	require.NoError(t, err)
	require.Equal(t, "mrCDrCybB6J1vRfbwM5hemdJz73FwDBC8r", addr)
}

func TestP2PKHInvalid(t *testing.T) {
	_, err := P2PKH(nil, VersionMainNet)
	require.ErrorIs(t, err, ErrInvalidPubKey)

	bad := pubKeyOne(t)
	bad[0] = 0x05
	_, err = P2PKH(bad, VersionMainNet)
	require.ErrorIs(t, err, ErrInvalidPubKey)
}

func TestEthereum(t *testing.T) {
	addr, err := Ethereum(pubKeyOne(t))
	require.NoError(t, err)
	require.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", addr)

	key := make([]byte, 32)
	key[31] = 1
	uncompressed := secp256k1.PrivKeyFromBytes(key).PubKey().SerializeUncompressed()
	addr2, err := Ethereum(uncompressed)
	require.NoError(t, err)
	require.Equal(t, addr, addr2)

	_, err = Ethereum([]byte{0x02})
	require.ErrorIs(t, err, ErrInvalidPubKey)
}

func TestChecksumHexAllCaps(t *testing.T) {
	// EIP-55 reference address with only upper case letters.
	raw, err := hex.DecodeString("52908400098527886e0f7030069857d2e4169ee7")
	require.NoError(t, err)
	require.Equal(t, "52908400098527886E0F7030069857D2E4169EE7", checksumHex(raw))

	raw, err = hex.DecodeString("de709f2102306220921060314715629080e2fb77")
	require.NoError(t, err)
	require.Equal(t, "de709f2102306220921060314715629080e2fb77", checksumHex(raw))
}

func TestDerivedKeyAddresses(t *testing.T) {
	key, err := derive.DeriveKey(
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
		"", "m/44'/60'/0'/0/0")
	require.NoError(t, err)
	pub, err := key.PublicKey()
	require.NoError(t, err)
	require.Len(t, pub, hdkey.KeyLen+1)

	addr, err := Ethereum(pub)
	require.NoError(t, err)
	require.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", addr)
}
