package bootstrap

import (
	"github.com/spf13/viper"
)

// flagDef defines a command-line flag bound to a configuration key.
type (
	flagType interface {
		string | int | bool
	}

	flagDef[T flagType] struct {
		name         string
		viperKey     string
		defaultValue T
		description  string
	}
)

var (
	stringFlags = []flagDef[string]{
		{"eth-url", "eth-url", "http://localhost:7545", "JSON-RPC URL of the L1 node"},
		{"root-private-key", "root.private-key", "", "Private key of the funding account (default: unlocked node account)"},
		{"rollups-dir", "paths.rollups-dir", "../../rollups", "Directory the validator cluster is written to"},
		{"bridge-eth-dir", "paths.bridge-eth-dir", "../arb-bridge-eth", "arb-bridge-eth package directory"},
		{"tools-dir", "paths.tools-dir", ".", "Working directory of the deployment tools"},
		{"tool-runner", "tools.runner", "exec", "How deployment tools run (exec or docker)"},
		{"log-level", "log-level", "debug", "Log level (debug, info, warn, error)"},
	}

	intFlags = []flagDef[int]{
		{"root-account-index", "root.account-index", 0, "Index of the unlocked node account used as funder"},
	}

	boolFlags = []flagDef[bool]{
		{"light-scrypt", "keystore.light-scrypt", false, "Encrypt keystores with the light scrypt parameters"},
	}
)

func init() {
	CMD.Flags().BoolVar(&force, "force", false, "clear any existing state")
	CMD.Flags().IntVar(&validatorCount, "validatorcount", 1, "number of validators to deploy, not counting the sequencer")
	CMD.Flags().IntVar(&blocktime, "blocktime", 2, "expected length of time between blocks, in seconds")

	if err := declareFlags(stringFlags); err != nil {
		panic(err)
	}
	if err := declareFlags(intFlags); err != nil {
		panic(err)
	}
	if err := declareFlags(boolFlags); err != nil {
		panic(err)
	}
}

// declareFlags declares multiple flags and binds them to viper configuration keys.
func declareFlags[T flagType](flags []flagDef[T]) error {
	for _, flag := range flags {
		if err := declareFlag(flag.name, flag.viperKey, flag.defaultValue, flag.description); err != nil {
			return err
		}
	}
	return nil
}

// declareFlag declares a single flag and binds it to a viper configuration key.
// Unset flags do not override the config file.
func declareFlag[T flagType](flagName, viperKey string, defaultValue T, description string) error {
	var zero T
	switch any(zero).(type) {
	case string:
		CMD.Flags().String(flagName, any(defaultValue).(string), description)
	case int:
		CMD.Flags().Int(flagName, any(defaultValue).(int), description)
	case bool:
		CMD.Flags().Bool(flagName, any(defaultValue).(bool), description)
	}
	return viper.BindPFlag(viperKey, CMD.Flags().Lookup(flagName))
}
