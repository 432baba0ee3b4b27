package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"HDSIGN/internal/base58"
	"HDSIGN/internal/cliconf"
	"HDSIGN/internal/derive"
	"HDSIGN/internal/envelope"
	"HDSIGN/internal/signer"
)

const cmdName = "hdsign-sign"

type config struct {
	cliconf.Common

	In     string `long:"in" description:"Message file to sign, - for stdin"`
	Out    string `long:"out" description:"Output file, - for stdout"`
	Format string `long:"format" choice:"hex" choice:"base58" choice:"envelope" description:"Signature output format"`
}

func defaultConfig() *config {
	return &config{
		Common: cliconf.DefaultCommon(),
		In:     "-",
		Out:    "-",
		Format: "hex",
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Getenv))
}

// Why(中文): 先冻结参数与退出码语义（0 成功 / 1 参数错误 / 2 处理错误），脚本化调用时可稳定判定失败类型。
// Why(English): Locking exit-code semantics (0 ok / 1 usage / 2 processing) keeps failure types stable for automation.
func run(args []string, getenv func(string) string) int {
	cfg := defaultConfig()
	parser := cliconf.NewParser(cmdName, cfg)
	if err := parser.Load(args); err != nil {
		if cliconf.IsHelp(err) {
			parser.WriteHelp(os.Stdout)
			return 0
		}
		return failUsage(err.Error())
	}
	if err := cliconf.SetupLogging(os.Stderr, cfg.DebugLevel); err != nil {
		return failUsage(err.Error())
	}

	mnemonic, password, err := cliconf.Secrets(&cfg.Common, getenv)
	switch {
	case errors.Is(err, cliconf.ErrUsage):
		return failUsage(err.Error())
	case err != nil:
		return failProcess("invalid mnemonic")
	}
	path, err := cliconf.ResolvePath(&cfg.Common)
	if err != nil {
		return failUsage(err.Error())
	}

	message, err := readInputBytes(cfg.In)
	if err != nil {
		return failProcess("read input failed")
	}

	key, err := derive.DeriveKey(mnemonic, password, path)
	if err != nil {
		return failProcess("derive key failed: " + err.Error())
	}
	defer key.Zero()

	sig, err := signer.Sign(key.PrivateKey[:], message)
	if err != nil {
		return failProcess("sign failed: " + err.Error())
	}

	out, err := formatSignature(cfg.Format, path, key.PublicKey, sig)
	if err != nil {
		return failProcess(err.Error())
	}
	if err := writeOutputBytes(cfg.Out, out); err != nil {
		return failProcess("write output failed")
	}
	return 0
}

// formatSignature renders sig in the requested format. The public key is
// only computed for the envelope format.
func formatSignature(format, path string, pubKey func() ([]byte, error), sig []byte) ([]byte, error) {
	switch format {
	case "hex":
		return []byte(hex.EncodeToString(sig) + "\n"), nil

	case "base58":
		return []byte(base58.Encode(sig) + "\n"), nil

	case "envelope":
		pub, err := pubKey()
		if err != nil {
			return nil, fmt.Errorf("public key failed: %w", err)
		}
		return []byte(envelope.BuildV1(path, pub, sig)), nil

	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// Why(中文): 参数类失败之前输出明确错误文本，避免仅靠退出码导致“看起来没报错”的误判。
// Why(English): Emit explicit usage errors before returning so failures are visible instead of relying on exit code alone.
func failUsage(msg string) int {
	_, _ = io.WriteString(os.Stderr, cmdName+": "+msg+"\n")
	return 1
}

func failProcess(msg string) int {
	_, _ = io.WriteString(os.Stderr, cmdName+": "+msg+"\n")
	return 2
}

// Why(中文): 把输入源选择逻辑集中化，确保文件与 stdin 两种路径遵循同一错误语义。
// Why(English): Centralize input source selection so file and stdin paths share identical error semantics.
func readInputBytes(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutputBytes(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
