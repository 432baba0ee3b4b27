package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"HDSIGN/internal/address"
	"HDSIGN/internal/cliconf"
	"HDSIGN/internal/derive"
)

const cmdName = "hdsign-addr"

type config struct {
	cliconf.Common

	Out     string `long:"out" description:"Output file, - for stdout"`
	TestNet bool   `long:"testnet" description:"Use the test network P2PKH version byte"`
}

func defaultConfig() *config {
	return &config{
		Common: cliconf.DefaultCommon(),
		Out:    "-",
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Getenv))
}

// Why(中文): addr 与 sign 共享同一参数失败语义，便于脚本化调用时稳定判定错误类型。
// Why(English): Keeping identical failure semantics across addr/sign provides stable automation behavior.
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

	key, err := derive.DeriveKey(mnemonic, password, path)
	if err != nil {
		return failProcess("derive key failed: " + err.Error())
	}
	pub, err := key.PublicKey()
	key.Zero()
	if err != nil {
		return failProcess("public key failed: " + err.Error())
	}

	version := address.VersionMainNet
	if cfg.TestNet {
		version = address.VersionTestNet
	}
	report, err := buildReport(path, pub, version)
	if err != nil {
		return failProcess(err.Error())
	}
	if err := writeOutputBytes(cfg.Out, []byte(report)); err != nil {
		return failProcess("write output failed")
	}
	return 0
}

// buildReport renders one key:value line per field in a fixed order.
func buildReport(path string, pub []byte, version byte) (string, error) {
	p2pkh, err := address.P2PKH(pub, version)
	if err != nil {
		return "", fmt.Errorf("p2pkh address failed: %w", err)
	}
	eth, err := address.Ethereum(pub)
	if err != nil {
		return "", fmt.Errorf("ethereum address failed: %w", err)
	}

	var b strings.Builder
	b.WriteString("path:" + path + "\n")
	b.WriteString("pubkey:" + hex.EncodeToString(pub) + "\n")
	b.WriteString("p2pkh:" + p2pkh + "\n")
	b.WriteString("ethereum:" + eth + "\n")
	return b.String(), nil
}

// Why(中文): 参数类失败打印明确 stderr 诊断，避免用户只看到退出码却误以为命令未报错。
// Why(English): Print explicit stderr diagnostics for usage failures so users don't mistake silent exit codes for success.
func failUsage(msg string) int {
	_, _ = io.WriteString(os.Stderr, cmdName+": "+msg+"\n")
	return 1
}

// Why(中文): 处理层失败也输出明确 stderr，避免派生失败只剩退出码导致排障成本上升。
// Why(English): Emit explicit stderr on processing failures so derivation errors are diagnosable without relying on exit code alone.
func failProcess(msg string) int {
	_, _ = io.WriteString(os.Stderr, cmdName+": "+msg+"\n")
	return 2
}

func writeOutputBytes(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
