// Package chaintest provides chain doubles for tests: a recording transactor and a simulated
// backend with automatic block production.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/compose-network/validator-bootstrap/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

type (
	// SentTx is a transaction recorded by the Recorder.
	SentTx struct {
		Hash  common.Hash
		From  common.Address
		Role  chain.Role
		To    common.Address
		Value *big.Int
		Data  []byte
	}

	// Recorder records every submitted transaction and answers receipt requests with
	// successful receipts. It is safe for concurrent use.
	Recorder struct {
		// Logs, when set, returns the logs attached to the receipt of tx.
		Logs func(tx SentTx) []*types.Log
		// SendErr, when set, fails the submission of matching transactions.
		SendErr func(tx SentTx) error
		// ReceiptErr, when set, fails the receipt wait of matching transactions.
		ReceiptErr func(tx SentTx) error

		mu     sync.Mutex
		sent   []SentTx
		byHash map[common.Hash]int
		waited []common.Hash
	}
)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{byHash: make(map[common.Hash]int)}
}

// Send records the transaction and returns a synthetic hash.
func (r *Recorder) Send(_ context.Context, signer *chain.Signer, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value == nil {
		value = new(big.Int)
	}
	tx := SentTx{
		From:  signer.Address,
		Role:  signer.Role,
		To:    to,
		Value: new(big.Int).Set(value),
		Data:  common.CopyBytes(data),
	}
	tx.Hash = crypto.Keccak256Hash([]byte(fmt.Sprintf("%d", len(r.sent))), tx.From.Bytes(), tx.To.Bytes())

	if r.SendErr != nil {
		if err := r.SendErr(tx); err != nil {
			return common.Hash{}, err
		}
	}

	r.byHash[tx.Hash] = len(r.sent)
	r.sent = append(r.sent, tx)

	return tx.Hash, nil
}

// WaitForReceipt returns a successful receipt for a previously sent transaction.
func (r *Recorder) WaitForReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	r.mu.Lock()
	idx, ok := r.byHash[hash]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("unknown transaction %s", hash)
	}
	tx := r.sent[idx]
	r.waited = append(r.waited, hash)
	r.mu.Unlock()

	if r.ReceiptErr != nil {
		if err := r.ReceiptErr(tx); err != nil {
			return nil, err
		}
	}

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      hash,
		BlockNumber: big.NewInt(int64(idx + 1)),
	}
	if r.Logs != nil {
		receipt.Logs = r.Logs(tx)
	}

	return receipt, nil
}

// Sent returns a copy of every recorded transaction in submission order.
func (r *Recorder) Sent() []SentTx {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]SentTx(nil), r.sent...)
}

// SentTo returns the recorded transactions addressed to to.
func (r *Recorder) SentTo(to common.Address) []SentTx {
	var out []SentTx
	for _, tx := range r.Sent() {
		if tx.To == to {
			out = append(out, tx)
		}
	}
	return out
}

// Waited returns the hashes whose receipts were requested.
func (r *Recorder) Waited() []common.Hash {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]common.Hash(nil), r.waited...)
}
