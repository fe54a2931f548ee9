package clients_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/compose-network/validator-bootstrap/internal/chain"
	"github.com/compose-network/validator-bootstrap/internal/chain/chaintest"
	"github.com/compose-network/validator-bootstrap/internal/clients"
	"github.com/compose-network/validator-bootstrap/internal/contracts"
	"github.com/compose-network/validator-bootstrap/internal/keys"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var inbox = common.HexToAddress("0x00000000000000000000000000000000000000b2")

func TestFundOrderAndAmounts(t *testing.T) {
	recorder := chaintest.NewRecorder()
	rootKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	root := chain.NewKeyedSigner(rootKey, chain.RoleRoot)

	demo, err := keys.DemoClients()
	require.NoError(t, err)

	deposits, err := clients.NewFunder(recorder).Fund(context.Background(), root, inbox, demo)
	require.NoError(t, err)
	require.Len(t, deposits, len(demo))

	calldata, err := contracts.DepositEthCalldata(big.NewInt(0))
	require.NoError(t, err)

	sent := recorder.Sent()
	require.Len(t, sent, 2*len(demo))
	for i, client := range demo {
		funding, deposit := sent[2*i], sent[2*i+1]

		require.Equal(t, root.Address, funding.From)
		require.Equal(t, client.Address, funding.To)
		require.Zero(t, funding.Value.Cmp(clients.ClientFunding))
		require.Empty(t, funding.Data)

		require.Equal(t, client.Address, deposit.From)
		require.Equal(t, chain.RoleClient, deposit.Role)
		require.Equal(t, inbox, deposit.To)
		require.Zero(t, deposit.Value.Cmp(clients.ClientDeposit))
		require.Equal(t, calldata, deposit.Data)

		require.Equal(t, client.Address, deposits[i].Client)
		require.Zero(t, deposits[i].Amount.Cmp(clients.ClientDeposit))
	}

	// Every transaction is confirmed before the next one is sent.
	waited := recorder.Waited()
	require.Len(t, waited, len(sent))
	for i := range sent {
		require.Equal(t, sent[i].Hash, waited[i])
	}
}

func TestFundAmounts(t *testing.T) {
	hundred := new(big.Int).Mul(big.NewInt(100), big.NewInt(1_000_000_000_000_000_000))
	require.Zero(t, clients.ClientFunding.Cmp(hundred))
	require.Zero(t, clients.ClientDeposit.Cmp(hundred))
}

func TestFundStopsAtFirstFailure(t *testing.T) {
	recorder := chaintest.NewRecorder()
	recorder.ReceiptErr = func(tx chaintest.SentTx) error {
		if tx.To == inbox {
			return errors.New("reverted")
		}
		return nil
	}
	rootKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	demo, err := keys.DemoClients()
	require.NoError(t, err)

	_, err = clients.NewFunder(recorder).Fund(context.Background(), chain.NewKeyedSigner(rootKey, chain.RoleRoot), inbox, demo)
	require.ErrorContains(t, err, "failed to deposit for client 0")
	require.Len(t, recorder.Sent(), 2)
}

func TestFundOnSimulatedChain(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sim := chaintest.NewSimulated(t)
	client := chain.NewClient(sim.Backend.Client(), nil, 10*time.Millisecond)
	root := chain.NewKeyedSigner(sim.RootKey, chain.RoleRoot)

	demo, err := keys.DemoClients()
	require.NoError(t, err)

	// The deposit moves the whole funding, so gas is paid from a separate allowance.
	gasMoney := big.NewInt(1_000_000_000_000_000_000)
	for _, c := range demo[:2] {
		hash, err := client.Send(ctx, root, c.Address, gasMoney, nil)
		require.NoError(t, err)
		_, err = client.WaitForReceipt(ctx, hash)
		require.NoError(t, err)
	}

	// A plain account accepts the value, so the inbox is stood in for by an EOA.
	sink := common.HexToAddress("0x00000000000000000000000000000000000000b3")
	_, err = clients.NewFunder(client).Fund(ctx, root, sink, demo[:2])
	require.NoError(t, err)

	balance, err := client.BalanceAt(ctx, sink)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(new(big.Int).Mul(clients.ClientDeposit, big.NewInt(2))))

	for _, c := range demo[:2] {
		balance, err := client.BalanceAt(ctx, c.Address)
		require.NoError(t, err)
		require.Equal(t, -1, balance.Cmp(gasMoney), "gas is paid from the allowance")
		require.Equal(t, 1, balance.Sign())
	}
}
