package state

import (
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// NetworkLocal is the directory under the rollups root holding the demo cluster.
	NetworkLocal = "local"

	walletsDir     = "wallets"
	chainStateFile = "chainState.json"
	configFile     = "config.json"
)

// Layout resolves the paths of the on-disk cluster tree.
type Layout struct {
	Root    string
	Network string
}

// NewLayout creates the layout of the network directory below root.
func NewLayout(root, network string) Layout {
	return Layout{Root: root, Network: network}
}

// NetworkDir is <root>/<network>.
func (l Layout) NetworkDir() string {
	return filepath.Join(l.Root, l.Network)
}

// ConfigPath is the cluster config file.
func (l Layout) ConfigPath() string {
	return filepath.Join(l.NetworkDir(), configFile)
}

// ValidatorDir is <root>/<network>/validator<i>.
func (l Layout) ValidatorDir(index int) string {
	return filepath.Join(l.NetworkDir(), fmt.Sprintf("validator%d", index))
}

// WalletsDir is the keystore directory of validator index.
func (l Layout) WalletsDir(index int) string {
	return filepath.Join(l.ValidatorDir(index), walletsDir)
}

// WalletPath is the keystore file of validator index, named by its checksummed address.
func (l Layout) WalletPath(index int, address common.Address) string {
	return filepath.Join(l.WalletsDir(index), address.Hex())
}

// ChainStatePath is the chainState.json of validator index.
func (l Layout) ChainStatePath(index int) string {
	return filepath.Join(l.ValidatorDir(index), chainStateFile)
}
