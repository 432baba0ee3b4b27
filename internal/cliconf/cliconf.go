// Package cliconf holds the option handling shared by the hdsign commands.
//
// Options are loaded in three steps:
//  1. Pre-parse the command line to pick up an optional config file
//  2. Load the ini config file, if any
//  3. Parse the command line again so flags take precedence over the file
package cliconf

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"HDSIGN/internal/hdpath"
)

var (
	ErrUsage         = errors.New("usage error")
	ErrEmptyMnemonic = errors.New("mnemonic is empty")
)

// Common are the options every hdsign command accepts. Command option structs
// embed it.
type Common struct {
	ConfigFile  string `short:"C" long:"configfile" description:"Path to an ini file with option defaults"`
	MnemonicEnv string `long:"mnemonic-env" description:"Name of the environment variable holding the mnemonic (required)"`
	PasswordEnv string `long:"password-env" description:"Name of the environment variable holding the optional BIP39 password"`
	Path        string `long:"path" description:"Derivation path, e.g. m/44'/60'/0'/0/0"`
	Index       string `long:"index" description:"Shortcut for the Ethereum path m/44'/60'/0'/0/<index>"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical, off} or <subsystem>=<level>,..."`
}

func (c *Common) common() *Common { return c }

// Options is implemented by any struct that embeds Common.
type Options interface {
	common() *Common
}

// DefaultCommon returns the option defaults shared by all commands.
func DefaultCommon() Common {
	return Common{DebugLevel: "off"}
}

// Parser wraps the go-flags parser of one command.
type Parser struct {
	p   *flags.Parser
	cfg Options
}

// NewParser returns a parser for cfg. Defaults must already be set on cfg;
// struct default tags are not used so that ini values survive the second
// command line pass.
func NewParser(name string, cfg Options) *Parser {
	p := flags.NewNamedParser(name, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := p.AddGroup("Application Options", "", cfg); err != nil {
		// Only reachable with a malformed struct tag.
		panic(err)
	}
	return &Parser{p: p, cfg: cfg}
}

// Load fills the options from args and the optional config file. A help
// request is reported with IsHelp.
func (p *Parser) Load(args []string) error {
	rest, err := p.p.ParseArgs(args)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: unexpected arguments %v", ErrUsage, rest)
	}

	if cfg := p.cfg.common(); cfg.ConfigFile != "" {
		// Any ini error is fatal here, the file was named explicitly.
		if err := flags.NewIniParser(p.p).ParseFile(cfg.ConfigFile); err != nil {
			return fmt.Errorf("%w: config file: %v", ErrUsage, err)
		}
		if _, err := p.p.ParseArgs(args); err != nil {
			return err
		}
	}
	return nil
}

// WriteHelp writes the usage text of the command.
func (p *Parser) WriteHelp(w io.Writer) {
	p.p.WriteHelp(w)
}

// IsHelp reports whether err is a help request from Load.
func IsHelp(err error) bool {
	var ferr *flags.Error
	return errors.As(err, &ferr) && ferr.Type == flags.ErrHelp
}

// Why(中文): 把 --path 与 --index 的互斥和默认规则集中在一处，避免各命令对同一输入给出不同路径。
// Why(English): Keep the --path/--index exclusivity in one place so every command resolves the same input to the same path.
func ResolvePath(c *Common) (string, error) {
	switch {
	case c.Path != "" && c.Index != "":
		return "", fmt.Errorf("%w: --path and --index are mutually exclusive", ErrUsage)

	case c.Path != "":
		p, err := hdpath.Parse(c.Path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return p.String(), nil

	case c.Index != "":
		idx, err := hdpath.ParseIndex(c.Index)
		if err != nil {
			return "", fmt.Errorf("%w: invalid --index %q", ErrUsage, c.Index)
		}
		p, err := hdpath.BIP44(hdpath.CoinTypeEthereum, 0, 0, idx)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return p.String(), nil

	default:
		return "", fmt.Errorf("%w: one of --path or --index is required", ErrUsage)
	}
}

// Secrets reads the mnemonic and the password from the environment variables
// named in c. The mnemonic is canonicalized; the password is used verbatim.
func Secrets(c *Common, getenv func(string) string) (string, string, error) {
	if c.MnemonicEnv == "" {
		return "", "", fmt.Errorf("%w: --mnemonic-env is required", ErrUsage)
	}
	raw := getenv(c.MnemonicEnv)
	if raw == "" {
		return "", "", fmt.Errorf("%w: mnemonic env is empty: %s", ErrUsage, c.MnemonicEnv)
	}
	mnemonic, ok := CanonicalizeMnemonic(raw)
	if !ok {
		return "", "", ErrEmptyMnemonic
	}

	var password string
	if c.PasswordEnv != "" {
		password = getenv(c.PasswordEnv)
	}
	return mnemonic, password, nil
}

// Why(中文): 助记词规范化独立成纯函数，先把输入形态收敛为唯一表示，避免后续派生阶段出现“同义输入不同结果”。
// Why(English): Keep mnemonic canonicalization as a pure function so derivation sees one stable representation.
func CanonicalizeMnemonic(raw string) (string, bool) {
	parts := strings.Fields(raw)
	for i := range parts {
		parts[i] = strings.ToLower(parts[i])
	}
	out := strings.Join(parts, " ")
	return out, out != ""
}
