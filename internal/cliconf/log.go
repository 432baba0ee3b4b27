package cliconf

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/btcsuite/btclog"

	"HDSIGN/internal/derive"
	"HDSIGN/internal/hdkey"
	"HDSIGN/internal/signer"
)

// subsystems maps each subsystem code to the function that installs its
// logger.
var subsystems = map[string]func(btclog.Logger){
	hdkey.Subsystem:  hdkey.UseLogger,
	derive.Subsystem: derive.UseLogger,
	signer.Subsystem: signer.UseLogger,
}

// SupportedSubsystems returns the sorted subsystem codes accepted by
// --debuglevel.
func SupportedSubsystems() []string {
	out := make([]string, 0, len(subsystems))
	for name := range subsystems {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetupLogging creates one backend writing to w and hands a sub-logger to
// every library package. level is either a single level for all subsystems
// or a comma separated list of <subsystem>=<level> pairs, optionally led by
// a global level.
func SetupLogging(w io.Writer, level string) error {
	levels, err := parseDebugLevels(level)
	if err != nil {
		return err
	}

	backend := btclog.NewBackend(w)
	for name, use := range subsystems {
		logger := backend.Logger(name)
		logger.SetLevel(levels[name])
		use(logger)
	}
	return nil
}

func parseDebugLevels(level string) (map[string]btclog.Level, error) {
	out := make(map[string]btclog.Level, len(subsystems))
	for name := range subsystems {
		out[name] = btclog.LevelOff
	}
	if level == "" {
		return out, nil
	}

	// If the first entry has no =, treat it as the level for all
	// subsystems.
	pairs := strings.Split(level, ",")
	if !strings.Contains(pairs[0], "=") {
		lvl, ok := btclog.LevelFromString(pairs[0])
		if !ok {
			return nil, fmt.Errorf("%w: the specified debug level [%v] is invalid",
				ErrUsage, pairs[0])
		}
		for name := range out {
			out[name] = lvl
		}
		pairs = pairs[1:]
	}

	for _, pair := range pairs {
		fields := strings.Split(pair, "=")
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: the specified debug level has an "+
				"invalid format [%v] -- use format subsystem1=level1,"+
				"subsystem2=level2", ErrUsage, pair)
		}
		subsysID, logLevel := fields[0], fields[1]
		if _, exists := subsystems[subsysID]; !exists {
			return nil, fmt.Errorf("%w: the specified subsystem [%v] is "+
				"invalid -- supported subsystems are %v", ErrUsage,
				subsysID, SupportedSubsystems())
		}
		lvl, ok := btclog.LevelFromString(logLevel)
		if !ok {
			return nil, fmt.Errorf("%w: the specified debug level [%v] is invalid",
				ErrUsage, logLevel)
		}
		out[subsysID] = lvl
	}
	return out, nil
}
