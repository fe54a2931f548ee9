// Package state writes the validator cluster tree: directories, keystores, chain state and
// the shared cluster config.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/compose-network/validator-bootstrap/internal/errs"
	"github.com/compose-network/validator-bootstrap/internal/infra/filesystem"
	"github.com/compose-network/validator-bootstrap/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

const keystorePerm = 0o600

type (
	// ClusterConfig is the configuration shared by every validator of the cluster. Addresses
	// are EIP-55 checksummed hex strings.
	ClusterConfig struct {
		RollupAddress                 string `json:"rollup_address"`
		InboxAddress                  string `json:"inbox_address"`
		ValidatorUtilsAddress         string `json:"validator_utils_address"`
		ValidatorWalletFactoryAddress string `json:"validator_wallet_factory_address"`
		BridgeUtilsAddress            string `json:"bridge_utils_address"`
		EthURL                        string `json:"eth_url"`
		Password                      string `json:"password"`
		Blocktime                     int    `json:"blocktime"`
	}

	// ChainState is the validatorN/chainState.json document.
	ChainState struct {
		ValidatorWallet string `json:"validatorWallet"`
	}

	Writer struct {
		layout Layout
		writer filesystem.Writer
		logger *slog.Logger
	}
)

func NewWriter(layout Layout, writer filesystem.Writer) *Writer {
	return &Writer{
		layout: layout,
		writer: writer,
		logger: logger.Named("state_writer"),
	}
}

// Layout returns the paths the writer writes to.
func (w *Writer) Layout() Layout {
	return w.layout
}

// Prepare creates the rollups root when missing and makes sure the network directory does
// not exist: it is removed when force is set, otherwise StateExistsError is returned.
func (w *Writer) Prepare(force bool) error {
	if err := w.writer.MkdirAll(w.layout.Root); err != nil {
		return err
	}

	networkDir := w.layout.NetworkDir()
	_, err := os.Stat(networkDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("failed to stat %s: %w", networkDir, err)
	case !force:
		return &errs.StateExistsError{Path: networkDir}
	}

	w.logger.With("path", networkDir).Warn("removing existing state")
	if err := os.RemoveAll(networkDir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", networkDir, err)
	}

	return nil
}

// SetupValidatorStates creates the directories of count validators and writes the cluster
// config of the network.
func (w *Writer) SetupValidatorStates(count int, network string, config ClusterConfig) error {
	if network != w.layout.Network {
		w.layout = NewLayout(w.layout.Root, network)
	}

	for i := range count {
		if err := w.writer.MkdirAll(w.layout.ValidatorDir(i)); err != nil {
			return err
		}
	}

	if err := w.writer.WriteJSON(w.layout.ConfigPath(), config); err != nil {
		return fmt.Errorf("failed to write cluster config: %w", err)
	}

	w.logger.
		With("count", count).
		With("path", w.layout.NetworkDir()).
		Info("validator states set up")

	return nil
}

// WriteWallet stores the encrypted key of validator index as wallets/<address>.
func (w *Writer) WriteWallet(index int, address common.Address, encrypted []byte) (string, error) {
	if err := w.writer.MkdirAll(w.layout.WalletsDir(index)); err != nil {
		return "", &errs.KeystoreError{Path: w.layout.WalletsDir(index), Err: err}
	}

	path := w.layout.WalletPath(index, address)
	if err := w.writer.WriteBytes(path, encrypted, keystorePerm); err != nil {
		return "", &errs.KeystoreError{Path: path, Err: err}
	}

	w.logger.With("index", index).With("path", path).Debug("wallet written")

	return path, nil
}

// WriteChainState records the proxy wallet of validator index.
func (w *Writer) WriteChainState(index int, proxy common.Address) error {
	path := w.layout.ChainStatePath(index)
	if err := w.writer.WriteJSON(path, ChainState{ValidatorWallet: proxy.Hex()}); err != nil {
		return fmt.Errorf("failed to write chain state of validator %d: %w", index, err)
	}
	return nil
}
