package chaintest

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
)

// Simulated is an in-process chain with a pre-funded root key. Blocks are committed in the
// background until the test ends.
type Simulated struct {
	Backend *simulated.Backend
	RootKey *ecdsa.PrivateKey
}

// NewSimulated starts a simulated chain funding the root key with 10_000 ETH.
func NewSimulated(t testing.TB) *Simulated {
	t.Helper()

	rootKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	balance := new(big.Int).Mul(big.NewInt(10_000), big.NewInt(params.Ether))
	backend := simulated.NewBackend(types.GenesisAlloc{
		crypto.PubkeyToAddress(rootKey.PublicKey): {Balance: balance},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				backend.Commit()
			case <-ctx.Done():
				return
			}
		}
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		_ = backend.Close()
	})

	return &Simulated{Backend: backend, RootKey: rootKey}
}

// RootAddress returns the address of the funded root key.
func (s *Simulated) RootAddress() common.Address {
	return crypto.PubkeyToAddress(s.RootKey.PublicKey)
}
