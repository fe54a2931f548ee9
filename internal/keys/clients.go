package keys

import (
	"fmt"
	"strings"

	"github.com/compose-network/validator-bootstrap/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// demoClientKeys are the well known accounts funded and whitelisted on every demo rollup.
// They must never hold real value.
var demoClientKeys = []string{
	"0x979f020f6f6f71577c09db93ba944c89945f10fade64cfc7eb26137d5816fb76",
	"0xd26a199ae5b6bed1992439d1840f7cb400d0a55a0c9f796fa67d7c571fbb180e",
	"0xaf5c2984cb1e2f668ae3fd5bbfe0471f68417efd012493538dcd42692299155b",
	"0x9af1e691e3db692cc9cad4e87b6490e099eb291e3b434a0d3f014dfd2bb747cc",
	"0x27e926925fb5903ee038c894d9880f74d3dd6518e23ab5e5651de93327c7dffa",
}

// DemoClients returns fresh signers for the demo client accounts, in declaration order.
func DemoClients() ([]*chain.Signer, error) {
	signers := make([]*chain.Signer, 0, len(demoClientKeys))
	for i, hexKey := range demoClientKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse demo client key %d: %w", i, err)
		}
		signers = append(signers, chain.NewKeyedSigner(key, chain.RoleClient))
	}
	return signers, nil
}

// Addresses returns the addresses of signers, in order.
func Addresses(signers []*chain.Signer) []common.Address {
	addresses := make([]common.Address, len(signers))
	for i, s := range signers {
		addresses[i] = s.Address
	}
	return addresses
}
