package envelope

import (
	"bytes"
	"strings"
	"testing"

	"HDSIGN/internal/signer"
)

const fixturePath = "m/44'/60'/0'/0/0"

func fixturePubKey() []byte {
	pub := make([]byte, 33)
	pub[0] = 0x02
	for i := 1; i < len(pub); i++ {
		pub[i] = byte(i)
	}
	return pub
}

func fixtureSig() []byte {
	sig := make([]byte, signer.SignatureSize)
	for i := range sig {
		sig[i] = byte(0xa0 + i)
	}
	return sig
}

func TestWrapLines(t *testing.T) {
	got := wrapLines(strings.Repeat("a", 80))
	if len(got) != 2 || len(got[0]) != 76 || len(got[1]) != 4 {
		t.Fatalf("unexpected wrapped layout: %#v", got)
	}
	if got := wrapLines(""); len(got) != 1 || got[0] != "" {
		t.Fatalf("unexpected layout for empty input: %#v", got)
	}
}

// Why(中文): 先冻结 Builder 的输出骨架，Parser 才能基于稳定格式做严格解析。
// Why(English): Freeze the builder skeleton first so the parser enforces strict rules against a stable format.
func TestBuildV1Shape(t *testing.T) {
	got := BuildV1(fixturePath, fixturePubKey(), fixtureSig())
	if got[:5] != "<!--\n" || got[len(got)-4:] != "-->\n" {
		t.Fatalf("unexpected envelope boundary: %q", got)
	}
	if !strings.HasPrefix(got, "<!--\nhdsign:v1\ncurve:secp256k1\nhash:sha256\npath:"+fixturePath+"\npubkey_b58:") {
		t.Fatalf("unexpected header: %q", got)
	}
	lines := strings.Split(got, "\n")
	sigAt := -1
	for i, line := range lines {
		if line == "sig_b64:" {
			sigAt = i
		}
	}
	if sigAt < 0 || len(lines[sigAt+1]) != 76 || len(lines[sigAt+2]) != 10 {
		t.Fatalf("unexpected signature wrapping: %q", got)
	}
}

func TestParseV1RoundTrip(t *testing.T) {
	raw := BuildV1(fixturePath, fixturePubKey(), fixtureSig())
	got, err := ParseV1(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Path != fixturePath {
		t.Fatalf("unexpected path: %q", got.Path)
	}
	if !bytes.Equal(got.PubKey, fixturePubKey()) || !bytes.Equal(got.Signature, fixtureSig()) {
		t.Fatalf("round trip mismatch")
	}
}

func TestExtractBodyBoundary(t *testing.T) {
	raw := BuildV1(fixturePath, fixturePubKey(), fixtureSig())
	if body, ok := extractBody(raw); !ok || body == "" {
		t.Fatalf("expected valid envelope body extraction")
	}
	if _, ok := extractBody("x" + raw); ok {
		t.Fatalf("expected reject for prefixed bytes")
	}
	if _, ok := extractBody(raw + "x"); ok {
		t.Fatalf("expected reject for suffixed bytes")
	}
}

// Why(中文): 同时覆盖典型非法变体，确保 parser 只接受一种写法。
// Why(English): Cover the canonical invalid variants so the parser accepts exactly one spelling.
func TestParseV1Strict(t *testing.T) {
	raw := BuildV1(fixturePath, fixturePubKey(), fixtureSig())
	variants := map[string]string{
		"whitespace":     strings.Replace(raw, "hash:sha256", "hash: sha256", 1),
		"duplicate":      strings.Replace(raw, "\nsig_b64:\n", "\nhash:sha256\nsig_b64:\n", 1),
		"unknown field":  strings.Replace(raw, "\nsig_b64:\n", "\nnote:x\nsig_b64:\n", 1),
		"wrong curve":    strings.Replace(raw, "curve:secp256k1", "curve:p256", 1),
		"wrong hash":     strings.Replace(raw, "hash:sha256", "hash:sha512", 1),
		"wrong version":  strings.Replace(raw, "hdsign:v1", "hdsign:v2", 1),
		"bad path":       strings.Replace(raw, "path:"+fixturePath, "path:m/", 1),
		"missing path":   strings.Replace(raw, "path:"+fixturePath+"\n", "", 1),
		"padded b64":     strings.Replace(raw, "\n-->\n", "==\n-->\n", 1),
		"no sig":         "<!--\nhdsign:v1\ncurve:secp256k1\nhash:sha256\npath:m/0\npubkey_b58:x\nsig_b64:\n-->\n",
		"short sig":      BuildV1(fixturePath, fixturePubKey(), fixtureSig()[:63]),
		"short pubkey":   BuildV1(fixturePath, fixturePubKey()[:32], fixtureSig()),
		"empty":          "",
		"comment only":   "<!--\n-->\n",
		"crlf":           strings.ReplaceAll(raw, "\n", "\r\n"),
		"blank sig line": strings.Replace(raw, "\nsig_b64:\n", "\nsig_b64:\n\n", 1),
		"cr in sig":      strings.Replace(raw, "\n-->\n", "\r\n-->\n", 1),
		"url alphabet":   strings.Replace(raw, "sig_b64:\n", "sig_b64:\n-_", 1),
	}
	for name, in := range variants {
		if _, err := ParseV1(in); err != ErrMalformed {
			t.Fatalf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
}

// Why(中文): 解码器会静默跳过 \r，逐字符校验保证签名行只有一种合法写法。
// Why(English): The decoder silently skips \r, so per-character checks keep exactly one valid spelling of a signature line.
func TestDecodeSigLinesAlphabet(t *testing.T) {
	if _, ok := decodeSigLines([]string{"QUJD"}); !ok {
		t.Fatalf("expected valid line to decode")
	}
	for _, line := range []string{"QUJD\r", "QU\rJD", "QUJD\n", "QUJ-", "QUJ_", "QUJ=", "QU D", "QUJ\x00"} {
		if _, ok := decodeSigLines([]string{line}); ok {
			t.Fatalf("expected reject for %q", line)
		}
	}
}
