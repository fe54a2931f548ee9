package configs

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

var Values Config

type (
	RunnerKind string

	Config struct {
		LogLevel            string        `mapstructure:"log-level"`
		EthURL              string        `mapstructure:"eth-url"`
		ReceiptPollInterval time.Duration `mapstructure:"receipt-poll-interval"`
		Root                Root          `mapstructure:"root"`
		Paths               Paths         `mapstructure:"paths"`
		Keystore            Keystore      `mapstructure:"keystore"`
		Tools               Tools         `mapstructure:"tools"`
	}

	// Root selects the pre-funded account. PrivateKey wins over AccountIndex when set.
	Root struct {
		PrivateKey   string `mapstructure:"private-key"`
		AccountIndex int    `mapstructure:"account-index"`
	}

	Paths struct {
		RollupsDir    string `mapstructure:"rollups-dir"`
		BridgeEthDir  string `mapstructure:"bridge-eth-dir"`
		AddressesFile string `mapstructure:"addresses-file"`
		ToolsDir      string `mapstructure:"tools-dir"`
	}

	Keystore struct {
		LightScrypt bool `mapstructure:"light-scrypt"`
	}

	Tools struct {
		Runner      RunnerKind `mapstructure:"runner"`
		CreateChain []string   `mapstructure:"create-chain"`
		Whitelist   []string   `mapstructure:"whitelist"`
		Docker      Docker     `mapstructure:"docker"`
	}

	Docker struct {
		Image        string `mapstructure:"image"`
		Dockerfile   string `mapstructure:"dockerfile"`
		BuildContext string `mapstructure:"build-context"`
		Workdir      string `mapstructure:"workdir"`
	}
)

const (
	RunnerKindExec   RunnerKind = "exec"
	RunnerKindDocker RunnerKind = "docker"
)

func (c *Config) Validate() error {
	var errs []error

	if c.EthURL == "" {
		errs = append(errs, errors.New("eth-url is required"))
	} else if u, err := url.Parse(c.EthURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("eth-url '%s' is not a valid URL", c.EthURL))
	}
	if c.ReceiptPollInterval < 0 {
		errs = append(errs, errors.New("receipt-poll-interval must not be negative"))
	}
	if c.Root.PrivateKey == "" && c.Root.AccountIndex < 0 {
		errs = append(errs, errors.New("root.account-index must not be negative"))
	}

	if c.Paths.RollupsDir == "" {
		errs = append(errs, errors.New("paths.rollups-dir is required"))
	}
	if c.Paths.BridgeEthDir == "" {
		errs = append(errs, errors.New("paths.bridge-eth-dir is required"))
	}
	if c.Paths.AddressesFile == "" {
		errs = append(errs, errors.New("paths.addresses-file is required"))
	}

	if len(c.Tools.CreateChain) == 0 {
		errs = append(errs, errors.New("tools.create-chain is required"))
	}
	if len(c.Tools.Whitelist) == 0 {
		errs = append(errs, errors.New("tools.whitelist is required"))
	}

	switch c.Tools.Runner {
	case RunnerKindExec:
	case RunnerKindDocker:
		if c.Tools.Docker.Image == "" {
			errs = append(errs, errors.New("tools.docker.image is required for the docker runner"))
		}
		if c.Tools.Docker.Workdir == "" {
			errs = append(errs, errors.New("tools.docker.workdir is required for the docker runner"))
		}
		if c.Tools.Docker.Dockerfile != "" && c.Tools.Docker.BuildContext == "" {
			errs = append(errs, errors.New("tools.docker.build-context is required when tools.docker.dockerfile is set"))
		}
		// Only paths.tools-dir is mounted; the deployment artifact is read back from bridge-eth-dir.
		if c.Paths.BridgeEthDir != "" && !within(c.Paths.ToolsDir, c.Paths.BridgeEthDir) {
			errs = append(errs, fmt.Errorf(
				"paths.bridge-eth-dir (%s) must be inside paths.tools-dir (%s) for the docker runner",
				c.Paths.BridgeEthDir, c.Paths.ToolsDir,
			))
		}
	default:
		errs = append(errs, fmt.Errorf("tools.runner must be either '%s' or '%s'", RunnerKindExec, RunnerKindDocker))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

// within reports whether path lies in dir, both resolved against the working directory.
func within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
