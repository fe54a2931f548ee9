// Package clients prepares the demo client accounts: funding from root and an initial inbox
// deposit.
package clients

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/compose-network/validator-bootstrap/internal/chain"
	"github.com/compose-network/validator-bootstrap/internal/contracts"
	"github.com/compose-network/validator-bootstrap/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

var (
	// ClientFunding is sent from root to each client: 100 ETH.
	ClientFunding = new(big.Int).Mul(big.NewInt(100), big.NewInt(params.Ether))
	// ClientDeposit is deposited by each client into the rollup inbox: 100 ETH.
	ClientDeposit = new(big.Int).Mul(big.NewInt(100), big.NewInt(params.Ether))
)

type (
	transactor interface {
		Send(ctx context.Context, signer *chain.Signer, to common.Address, value *big.Int, data []byte) (common.Hash, error)
		WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	}

	// Deposit is a confirmed inbox deposit of a client.
	Deposit struct {
		Client common.Address
		Amount *big.Int
	}

	Funder struct {
		tx     transactor
		logger *slog.Logger
	}
)

func NewFunder(tx transactor) *Funder {
	return &Funder{tx: tx, logger: logger.Named("client_funder")}
}

// Fund processes clients one at a time: root transfers ClientFunding to the client, then
// the client calls inbox.depositEth(0) with ClientDeposit. Every step waits for its receipt.
func (f *Funder) Fund(ctx context.Context, root *chain.Signer, inbox common.Address, clients []*chain.Signer) ([]Deposit, error) {
	calldata, err := contracts.DepositEthCalldata(big.NewInt(0))
	if err != nil {
		return nil, err
	}

	deposits := make([]Deposit, 0, len(clients))
	for i, client := range clients {
		if err := f.transact(ctx, root, client.Address, ClientFunding, nil); err != nil {
			return nil, fmt.Errorf("failed to fund client %d (%s): %w", i, client.Address, err)
		}

		if err := f.transact(ctx, client, inbox, ClientDeposit, calldata); err != nil {
			return nil, fmt.Errorf("failed to deposit for client %d (%s): %w", i, client.Address, err)
		}

		f.logger.
			With("client", client.Address).
			With("amount", ClientDeposit).
			Info("client funded and deposited")

		deposits = append(deposits, Deposit{Client: client.Address, Amount: new(big.Int).Set(ClientDeposit)})
	}

	return deposits, nil
}

func (f *Funder) transact(ctx context.Context, signer *chain.Signer, to common.Address, value *big.Int, data []byte) error {
	hash, err := f.tx.Send(ctx, signer, to, value, data)
	if err != nil {
		return err
	}
	_, err = f.tx.WaitForReceipt(ctx, hash)
	return err
}
