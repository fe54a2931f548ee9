package output

import (
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

type (
	Model struct {
		EthURL     string      `yaml:"eth-url"`
		Rollup     Rollup      `yaml:"rollup"`
		Bridge     Bridge      `yaml:"bridge"`
		Validators []Validator `yaml:"validators"`
		Clients    []Client    `yaml:"clients"`
	}
	Rollup struct {
		Address common.Address `yaml:"address"`
		Inbox   common.Address `yaml:"inbox"`
	}
	Bridge struct {
		ValidatorUtils         common.Address `yaml:"validator-utils"`
		ValidatorWalletCreator common.Address `yaml:"validator-wallet-creator"`
		BridgeUtils            common.Address `yaml:"bridge-utils"`
	}
	Validator struct {
		Index    int             `yaml:"index"`
		Address  common.Address  `yaml:"address"`
		Role     string          `yaml:"role"`
		Keystore string          `yaml:"keystore"`
		Wallet   *common.Address `yaml:"wallet,omitempty"`
	}
	Client struct {
		Address common.Address     `yaml:"address"`
		Deposit SingleQuotedString `yaml:"deposit-wei"`
	}

	SingleQuotedString string
)

func (s SingleQuotedString) MarshalYAML() (any, error) {
	node := &yaml.Node{
		Kind:  yaml.ScalarNode,
		Style: yaml.SingleQuotedStyle,
		Value: string(s),
	}
	return node, nil
}
