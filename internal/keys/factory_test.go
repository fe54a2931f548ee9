package keys_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/compose-network/validator-bootstrap/internal/chain"
	"github.com/compose-network/validator-bootstrap/internal/chain/chaintest"
	"github.com/compose-network/validator-bootstrap/internal/keys"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func newRoot(t *testing.T) *chain.Signer {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return chain.NewKeyedSigner(key, chain.RoleRoot)
}

func TestGenerateFundsEveryValidatorFromRoot(t *testing.T) {
	recorder := chaintest.NewRecorder()
	factory := keys.NewFactory(recorder, keys.NewEncryptor(keys.Passphrase, true))
	root := newRoot(t)

	identities, err := factory.Generate(context.Background(), root, 3)
	require.NoError(t, err)
	require.Len(t, identities, 3)

	sent := recorder.Sent()
	require.Len(t, sent, 3)
	seen := make(map[common.Address]bool)
	for i, id := range identities {
		require.Equal(t, i, id.Index)
		require.Equal(t, i == 0, id.IsSequencer())
		require.Equal(t, chain.RoleValidator, id.Signer.Role)
		require.NotNil(t, id.Signer.PrivateKey())
		require.False(t, seen[id.Address()], "duplicate validator address")
		seen[id.Address()] = true

		require.Equal(t, root.Address, sent[i].From)
		require.Equal(t, id.Address(), sent[i].To)
		require.Zero(t, sent[i].Value.Cmp(keys.ValidatorFunding))
		require.Empty(t, sent[i].Data)

		key, err := keystore.DecryptKey(id.Encrypted, keys.Passphrase)
		require.NoError(t, err)
		require.Equal(t, id.Address(), key.Address)
	}

	require.ElementsMatch(t, []common.Hash{sent[0].Hash, sent[1].Hash, sent[2].Hash}, recorder.Waited())
}

func TestGenerateAbortsOnFailedReceipt(t *testing.T) {
	recorder := chaintest.NewRecorder()
	var failing common.Address
	recorder.ReceiptErr = func(tx chaintest.SentTx) error {
		if tx.To == failing {
			return errors.New("reverted")
		}
		return nil
	}
	recorder.SendErr = func(tx chaintest.SentTx) error {
		if failing == (common.Address{}) {
			failing = tx.To
		}
		return nil
	}

	factory := keys.NewFactory(recorder, keys.NewEncryptor(keys.Passphrase, true))
	_, err := factory.Generate(context.Background(), newRoot(t), 2)
	require.ErrorContains(t, err, "funding of validator 0 failed")
}

func TestGenerateAbortsOnFailedSubmission(t *testing.T) {
	recorder := chaintest.NewRecorder()
	recorder.SendErr = func(chaintest.SentTx) error { return errors.New("insufficient funds") }

	factory := keys.NewFactory(recorder, keys.NewEncryptor(keys.Passphrase, true))
	_, err := factory.Generate(context.Background(), newRoot(t), 2)
	require.ErrorContains(t, err, "failed to fund validator 0")
	require.Empty(t, recorder.Waited())
}

func TestGenerateOnSimulatedChain(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sim := chaintest.NewSimulated(t)
	client := chain.NewClient(sim.Backend.Client(), nil, 10*time.Millisecond)
	root := chain.NewKeyedSigner(sim.RootKey, chain.RoleRoot)

	factory := keys.NewFactory(client, keys.NewEncryptor(keys.Passphrase, true))
	identities, err := factory.Generate(ctx, root, 4)
	require.NoError(t, err)
	require.Len(t, identities, 4)

	for _, id := range identities {
		balance, err := client.BalanceAt(ctx, id.Address())
		require.NoError(t, err)
		require.Zero(t, balance.Cmp(keys.ValidatorFunding), "validator %d has %s", id.Index, balance)
	}
}
