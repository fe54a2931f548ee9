package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/compose-network/validator-bootstrap/internal/errs"
	"github.com/compose-network/validator-bootstrap/internal/infra/filesystem"
	"github.com/compose-network/validator-bootstrap/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

// Network is the deployment network name passed to the tools.
const Network = "local_development"

const createChainTool = "create-chain"

type (
	// RollupArtifact is the result of a rollup deployment.
	RollupArtifact struct {
		RollupAddress common.Address
		InboxAddress  common.Address
	}

	rollupFile struct {
		RollupAddress string `json:"rollupAddress"`
		InboxAddress  string `json:"inboxAddress"`
	}

	// Deployer creates rollups with the create-chain tool and reads back its artifact.
	Deployer struct {
		runner       Runner
		command      []string
		bridgeEthDir string
		reader       filesystem.Reader
		logger       *slog.Logger
	}
)

func NewDeployer(runner Runner, command []string, bridgeEthDir string, reader filesystem.Reader) *Deployer {
	return &Deployer{
		runner:       runner,
		command:      command,
		bridgeEthDir: bridgeEthDir,
		reader:       reader,
		logger:       logger.Named("rollup_deployer"),
	}
}

// ArtifactPath is where the tool writes the deployed addresses.
func (d *Deployer) ArtifactPath() string {
	return filepath.Join(d.bridgeEthDir, fmt.Sprintf("rollup-%s.json", Network))
}

// CreateRollup deploys a rollup with sequencer as its sequencer and, when whitelist is not
// empty, the inbox restricted to whitelist.
func (d *Deployer) CreateRollup(ctx context.Context, sequencer common.Address, whitelist []common.Address) (RollupArtifact, error) {
	artifactPath := d.ArtifactPath()
	if err := os.Remove(artifactPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return RollupArtifact{}, errs.NewDeploymentError(createChainTool, "", fmt.Errorf("failed to remove stale artifact %s: %w", artifactPath, err))
	}

	argv := append([]string{}, d.command...)
	argv = append(argv, "--sequencer", sequencer.Hex())
	if len(whitelist) > 0 {
		argv = append(argv, "--whitelist", joinAddresses(whitelist))
	}
	argv = append(argv, "--network", Network)

	d.logger.
		With("sequencer", sequencer).
		With("whitelist_size", len(whitelist)).
		Info("creating rollup")

	output, err := d.runner.Run(ctx, argv)
	if err != nil {
		return RollupArtifact{}, errs.NewDeploymentError(createChainTool, output, err)
	}

	var file rollupFile
	if err := d.reader.ReadJSON(artifactPath, &file); err != nil {
		return RollupArtifact{}, errs.NewDeploymentError(createChainTool, output, err)
	}

	artifact, err := file.parse()
	if err != nil {
		return RollupArtifact{}, errs.NewDeploymentError(createChainTool, output, &errs.ParseError{What: artifactPath, Err: err})
	}

	d.logger.
		With("rollup", artifact.RollupAddress).
		With("inbox", artifact.InboxAddress).
		Info("rollup created")

	return artifact, nil
}

func (f rollupFile) parse() (RollupArtifact, error) {
	rollup, err := parseAddress("rollupAddress", f.RollupAddress)
	if err != nil {
		return RollupArtifact{}, err
	}
	inbox, err := parseAddress("inboxAddress", f.InboxAddress)
	if err != nil {
		return RollupArtifact{}, err
	}
	return RollupArtifact{RollupAddress: rollup, InboxAddress: inbox}, nil
}

func parseAddress(field, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s '%s' is not an address", field, value)
	}
	address := common.HexToAddress(value)
	if address == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%s is the zero address", field)
	}
	return address, nil
}

func joinAddresses(addresses []common.Address) string {
	parts := make([]string, len(addresses))
	for i, a := range addresses {
		parts[i] = a.Hex()
	}
	return strings.Join(parts, ",")
}
