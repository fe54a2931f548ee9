// Package wallets mints the on-chain validator proxy wallets.
package wallets

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/compose-network/validator-bootstrap/internal/chain"
	"github.com/compose-network/validator-bootstrap/internal/contracts"
	"github.com/compose-network/validator-bootstrap/internal/errs"
	"github.com/compose-network/validator-bootstrap/internal/keys"
	"github.com/compose-network/validator-bootstrap/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type (
	transactor interface {
		Send(ctx context.Context, signer *chain.Signer, to common.Address, value *big.Int, data []byte) (common.Hash, error)
		WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	}

	// Proxy is the wallet contract a non-sequencer validator stakes through.
	Proxy struct {
		ValidatorIndex int
		Address        common.Address
	}

	Provisioner struct {
		tx      transactor
		creator common.Address
		logger  *slog.Logger
	}
)

func NewProvisioner(tx transactor, creator common.Address) *Provisioner {
	return &Provisioner{
		tx:      tx,
		creator: creator,
		logger:  logger.Named("wallet_provisioner"),
	}
}

// Provision calls ValidatorWalletCreator.createWallet() as the validator and returns the
// wallet announced by the WalletCreated event of the receipt.
func (p *Provisioner) Provision(ctx context.Context, id keys.Identity) (Proxy, error) {
	if id.IsSequencer() {
		return Proxy{}, errs.NewConfigError("the sequencer does not get a validator wallet")
	}

	calldata, err := contracts.CreateWalletCalldata()
	if err != nil {
		return Proxy{}, err
	}

	hash, err := p.tx.Send(ctx, id.Signer, p.creator, nil, calldata)
	if err != nil {
		return Proxy{}, fmt.Errorf("failed to submit createWallet for validator %d: %w", id.Index, err)
	}

	receipt, err := p.tx.WaitForReceipt(ctx, hash)
	if err != nil {
		return Proxy{}, fmt.Errorf("createWallet for validator %d failed: %w", id.Index, err)
	}

	event, err := contracts.ParseWalletCreated(receipt, p.creator)
	if err != nil {
		return Proxy{}, fmt.Errorf("no wallet for validator %d: %w", id.Index, err)
	}

	p.logger.
		With("index", id.Index).
		With("validator", id.Address()).
		With("wallet", event.WalletAddress).
		Info("validator wallet created")

	return Proxy{ValidatorIndex: id.Index, Address: event.WalletAddress}, nil
}

// Addresses returns the proxy addresses in order.
func Addresses(proxies []Proxy) []common.Address {
	out := make([]common.Address, len(proxies))
	for i, p := range proxies {
		out[i] = p.Address
	}
	return out
}
