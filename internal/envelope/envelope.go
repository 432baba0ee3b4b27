package envelope

import (
	"encoding/base64"
	"errors"
	"strings"

	"HDSIGN/internal/base58"
	"HDSIGN/internal/hdpath"
	"HDSIGN/internal/signer"
)

const (
	versionV1 = "hdsign:v1"
	curveV1   = "secp256k1"
	hashV1    = "sha256"

	lineWidth = 76
	pubKeyLen = 33
)

var ErrMalformed = errors.New("malformed envelope")

// Signed is the content of a parsed envelope.
type Signed struct {
	Path      string
	PubKey    []byte
	Signature []byte
}

// Why(中文): 签名区固定 76 列换行是格式稳定面的一部分，独立函数避免行宽漂移。
// Why(English): Fixed 76-char wrapping is part of format stability; one function keeps the width from drifting.
func wrapLines(raw string) []string {
	if raw == "" {
		return []string{""}
	}
	out := make([]string, 0, (len(raw)+lineWidth-1)/lineWidth)
	for i := 0; i < len(raw); i += lineWidth {
		end := i + lineWidth
		if end > len(raw) {
			end = len(raw)
		}
		out = append(out, raw[i:end])
	}
	return out
}

// BuildV1 serializes a signature together with the derivation path and the
// compressed public key that verifies it.
func BuildV1(path string, pubKey []byte, sig []byte) string {
	var b strings.Builder
	b.WriteString("<!--\n" + versionV1 + "\ncurve:" + curveV1 + "\nhash:" + hashV1 + "\npath:")
	b.WriteString(path)
	b.WriteString("\npubkey_b58:")
	b.WriteString(base58.Encode(pubKey))
	b.WriteString("\nsig_b64:\n")
	for _, line := range wrapLines(base64.RawStdEncoding.EncodeToString(sig)) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("-->\n")
	return b.String()
}

// Why(中文): 解析前先做字节级边界校验，拒绝注释块前后附加垃圾字节的歧义输入。
// Why(English): Byte-level boundary checks come first so input with bytes around the comment block is rejected.
func extractBody(raw string) (string, bool) {
	if len(raw) < len("<!--\n-->\n") {
		return "", false
	}
	if raw[:5] != "<!--\n" || raw[len(raw)-4:] != "-->\n" {
		return "", false
	}
	return raw[5 : len(raw)-4], true
}

func parseHeader(body string) (map[string]string, []string, bool) {
	lines := strings.Split(body, "\n")
	if len(lines) < 7 || lines[0] != versionV1 || lines[len(lines)-1] != "" {
		return nil, nil, false
	}
	out := map[string]string{}
	i := 1
	for ; i < len(lines)-1; i++ {
		line := lines[i]
		if line == "sig_b64:" {
			i++
			break
		}
		if line == "" || strings.ContainsAny(line, " \t") || strings.Count(line, ":") != 1 {
			return nil, nil, false
		}
		kv := strings.SplitN(line, ":", 2)
		if _, exists := out[kv[0]]; exists {
			return nil, nil, false
		}
		switch kv[0] {
		case "curve", "hash", "path", "pubkey_b58":
			out[kv[0]] = kv[1]
		default:
			return nil, nil, false
		}
	}
	if i >= len(lines)-1 {
		return nil, nil, false
	}
	return out, lines[i : len(lines)-1], true
}

// decodeSigLines joins the wrapped lines and decodes them once.
func decodeSigLines(lines []string) ([]byte, bool) {
	var b strings.Builder
	for _, line := range lines {
		if line == "" || len(line) > lineWidth {
			return nil, false
		}
		for i := 0; i < len(line); i++ {
			if !isB64Char(line[i]) {
				return nil, false
			}
		}
		b.WriteString(line)
	}
	out, err := base64.RawStdEncoding.DecodeString(b.String())
	if err != nil {
		return nil, false
	}
	return out, true
}

// isB64Char reports whether c is in the unpadded standard base64 alphabet.
// The decoder alone would silently drop '\r' and '\n'.
func isB64Char(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' ||
		c == '+' || c == '/'
}

// ParseV1 is the strict inverse of BuildV1.
func ParseV1(raw string) (*Signed, error) {
	body, ok := extractBody(raw)
	if !ok {
		return nil, ErrMalformed
	}
	h, sigLines, ok := parseHeader(body)
	if !ok {
		return nil, ErrMalformed
	}
	if h["curve"] != curveV1 || h["hash"] != hashV1 {
		return nil, ErrMalformed
	}
	if _, err := hdpath.Parse(h["path"]); err != nil {
		return nil, ErrMalformed
	}
	pub, err := base58.Decode(h["pubkey_b58"])
	if err != nil || len(pub) != pubKeyLen {
		return nil, ErrMalformed
	}
	sig, ok := decodeSigLines(sigLines)
	if !ok || len(sig) != signer.SignatureSize {
		return nil, ErrMalformed
	}
	return &Signed{Path: h["path"], PubKey: pub, Signature: sig}, nil
}
