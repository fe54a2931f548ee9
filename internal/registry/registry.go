// Package registry loads the addresses of the bridge contracts deployed on the L1 node.
package registry

import (
	"fmt"
	"path/filepath"

	"github.com/compose-network/validator-bootstrap/internal/errs"
	"github.com/compose-network/validator-bootstrap/internal/infra/filesystem"
	"github.com/ethereum/go-ethereum/common"
)

const (
	ContractValidatorUtils         = "ValidatorUtils"
	ContractValidatorWalletCreator = "ValidatorWalletCreator"
	ContractBridgeUtils            = "BridgeUtils"
)

type (
	// Addresses are the bridge contracts every validator cluster is configured with.
	Addresses struct {
		ValidatorUtils         common.Address
		ValidatorWalletCreator common.Address
		BridgeUtils            common.Address
	}

	document struct {
		Contracts map[string]struct {
			Address string `json:"address"`
		} `json:"contracts"`
	}
)

// Load reads <dir>/<file> with the layout {"contracts": {"<Name>": {"address": "0x…"}}}.
func Load(reader filesystem.Reader, dir, file string) (Addresses, error) {
	path := filepath.Join(dir, file)

	var doc document
	if err := reader.ReadJSON(path, &doc); err != nil {
		return Addresses{}, &errs.ParseError{What: "bridge addresses " + path, Err: err}
	}

	lookup := func(name string) (common.Address, error) {
		entry, ok := doc.Contracts[name]
		if !ok {
			return common.Address{}, &errs.ParseError{What: "bridge addresses " + path, Err: fmt.Errorf("contract %s is missing", name)}
		}
		if !common.IsHexAddress(entry.Address) || common.HexToAddress(entry.Address) == (common.Address{}) {
			return common.Address{}, &errs.ParseError{What: "bridge addresses " + path, Err: fmt.Errorf("contract %s has invalid address '%s'", name, entry.Address)}
		}
		return common.HexToAddress(entry.Address), nil
	}

	var (
		addresses Addresses
		err       error
	)
	if addresses.ValidatorUtils, err = lookup(ContractValidatorUtils); err != nil {
		return Addresses{}, err
	}
	if addresses.ValidatorWalletCreator, err = lookup(ContractValidatorWalletCreator); err != nil {
		return Addresses{}, err
	}
	if addresses.BridgeUtils, err = lookup(ContractBridgeUtils); err != nil {
		return Addresses{}, err
	}

	return addresses, nil
}
