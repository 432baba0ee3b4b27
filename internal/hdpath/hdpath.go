package hdpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// HardenedKeyStart is the first hardened index (bit 31).
	HardenedKeyStart uint32 = 0x80000000

	// PurposeBIP44 is the unhardened purpose component of BIP44 paths.
	PurposeBIP44 uint32 = 44

	// CoinTypeBitcoin is the SLIP-44 coin type of Bitcoin.
	CoinTypeBitcoin uint32 = 0

	// CoinTypeEthereum is the SLIP-44 coin type of Ethereum.
	CoinTypeEthereum uint32 = 60

	hardenedMarker = '\''
)

var (
	// ErrInvalidPath is returned when path text does not follow m/i/j'/...
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidIndex is returned when a bare index is not a canonical
	// decimal below HardenedKeyStart.
	ErrInvalidIndex = errors.New("invalid index")
)

// Path is an ordered list of child indices applied left to right from the
// master key.
type Path []uint32

// Parse reads a path of the form m/44'/60'/0'/0/0. A trailing apostrophe
// marks a hardened component. The bare "m" is rejected.
func Parse(text string) (Path, error) {
	if len(text) == 0 || text[0] != 'm' {
		return nil, fmt.Errorf("%w: must start with m", ErrInvalidPath)
	}
	if len(text) < 2 || text[1] != '/' {
		return nil, fmt.Errorf("%w: expected / after m", ErrInvalidPath)
	}

	components := strings.Split(text[2:], "/")
	path := make(Path, 0, len(components))
	for _, c := range components {
		index, err := parseComponent(c)
		if err != nil {
			return nil, err
		}
		path = append(path, index)
	}
	return path, nil
}

func parseComponent(c string) (uint32, error) {
	if c == "" {
		return 0, fmt.Errorf("%w: empty component", ErrInvalidPath)
	}
	hardened := false
	digits := c
	if digits[len(digits)-1] == hardenedMarker {
		hardened = true
		digits = digits[:len(digits)-1]
	}
	if !isDigits(digits) {
		return 0, fmt.Errorf("%w: component %q is not a number", ErrInvalidPath, c)
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil || uint32(n) >= HardenedKeyStart {
		return 0, fmt.Errorf("%w: component %q out of range", ErrInvalidPath, c)
	}
	index := uint32(n)
	if hardened {
		index += HardenedKeyStart
	}
	return index, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String renders the path back into text form.
func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('m')
	for _, index := range p {
		b.WriteByte('/')
		if index >= HardenedKeyStart {
			b.WriteString(strconv.FormatUint(uint64(index-HardenedKeyStart), 10))
			b.WriteByte(hardenedMarker)
			continue
		}
		b.WriteString(strconv.FormatUint(uint64(index), 10))
	}
	return b.String()
}

// Hardened reports whether index carries the hardened flag.
func Hardened(index uint32) bool {
	return index >= HardenedKeyStart
}

// BIP44 builds m/44'/coinType'/account'/change/index.
func BIP44(coinType, account, change, index uint32) (Path, error) {
	for _, c := range []uint32{coinType, account, change, index} {
		if c >= HardenedKeyStart {
			return nil, fmt.Errorf("%w: component %d out of range", ErrInvalidPath, c)
		}
	}
	return Path{
		HardenedKeyStart + PurposeBIP44,
		HardenedKeyStart + coinType,
		HardenedKeyStart + account,
		change,
		index,
	}, nil
}

// Why(中文): 快捷索引只接受无前导零的十进制数，保证同一索引只有一种文本写法。
// Why(English): The index shortcut accepts canonical decimal only, so one index has exactly one spelling.
func ParseIndex(text string) (uint32, error) {
	if !isDigits(text) || (len(text) > 1 && text[0] == '0') {
		return 0, ErrInvalidIndex
	}
	n, err := strconv.ParseUint(text, 10, 32)
	if err != nil || uint32(n) >= HardenedKeyStart {
		return 0, ErrInvalidIndex
	}
	return uint32(n), nil
}
