package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/compose-network/validator-bootstrap/internal/chain"
	"github.com/compose-network/validator-bootstrap/internal/chain/chaintest"
	"github.com/compose-network/validator-bootstrap/internal/clients"
	"github.com/compose-network/validator-bootstrap/internal/contracts"
	"github.com/compose-network/validator-bootstrap/internal/errs"
	fsjson "github.com/compose-network/validator-bootstrap/internal/infra/filesystem/json"
	"github.com/compose-network/validator-bootstrap/internal/keys"
	"github.com/compose-network/validator-bootstrap/internal/output"
	"github.com/compose-network/validator-bootstrap/internal/registry"
	"github.com/compose-network/validator-bootstrap/internal/state"
	"github.com/compose-network/validator-bootstrap/internal/tools"
	"github.com/compose-network/validator-bootstrap/internal/tools/toolstest"
	"github.com/compose-network/validator-bootstrap/internal/wallets"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

const ethURL = "http://localhost:7545"

var (
	createChainCmd = []string{"yarn", "workspace", "arb-bridge-eth", "hardhat", "create-chain"}
	whitelistCmd   = []string{"yarn", "workspace", "arb-bridge-eth", "hardhat", "whitelist-validators"}

	rollupAddress = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	inboxAddress  = common.HexToAddress("0x00000000000000000000000000000000000000b2")

	bridge = registry.Addresses{
		ValidatorUtils:         common.HexToAddress("0x0000000000000000000000000000000000000011"),
		ValidatorWalletCreator: common.HexToAddress("0x0000000000000000000000000000000000000022"),
		BridgeUtils:            common.HexToAddress("0x0000000000000000000000000000000000000033"),
	}
)

type harness struct {
	service     *Service
	recorder    *chaintest.Recorder
	runner      *toolstest.Runner
	root        *chain.Signer
	demoClients []*chain.Signer
	rollupsDir  string
	layout      state.Layout
}

// walletFor derives the proxy the fake creator mints for user.
func walletFor(user common.Address) common.Address {
	return common.BytesToAddress(crypto.Keccak256(append([]byte("wallet"), user.Bytes()...)))
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	bridgeEthDir := filepath.Join(dir, "arb-bridge-eth")
	rollupsDir := filepath.Join(dir, "rollups")
	require.NoError(t, os.MkdirAll(bridgeEthDir, 0o755))

	recorder := chaintest.NewRecorder()
	recorder.Logs = func(tx chaintest.SentTx) []*types.Log {
		if tx.To != bridge.ValidatorWalletCreator {
			return nil
		}
		// Proxy deployment logs precede the creator's event.
		upgraded := &types.Log{
			Address: walletFor(tx.From),
			Topics:  []common.Hash{crypto.Keccak256Hash([]byte("Upgraded(address)"))},
		}
		created, err := contracts.WalletCreatedLog(bridge.ValidatorWalletCreator, walletFor(tx.From), tx.From, common.HexToAddress("0xad"))
		if err != nil {
			panic(err)
		}
		return []*types.Log{upgraded, created}
	}

	runner := &toolstest.Runner{Handler: func(argv []string) (string, error) {
		if slices.Contains(argv, "create-chain") {
			content := `{"rollupAddress": "` + rollupAddress.Hex() + `", "inboxAddress": "` + inboxAddress.Hex() + `"}`
			return "rollup created", os.WriteFile(filepath.Join(bridgeEthDir, "rollup-local_development.json"), []byte(content), 0o644)
		}
		return "whitelisted", nil
	}}

	rootKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	root := chain.NewKeyedSigner(rootKey, chain.RoleRoot)

	demoClients, err := keys.DemoClients()
	require.NoError(t, err)

	layout := state.NewLayout(rollupsDir, state.NetworkLocal)
	reader, writer := fsjson.NewReader(), fsjson.NewWriter()

	service := NewService(root, ethURL, bridge, demoClients, Components{
		Keys:      keys.NewFactory(recorder, keys.NewEncryptor(keys.Passphrase, true)),
		Deployer:  tools.NewDeployer(runner, createChainCmd, bridgeEthDir, reader),
		Wallets:   wallets.NewProvisioner(recorder, bridge.ValidatorWalletCreator),
		Registrar: tools.NewRegistrar(runner, whitelistCmd),
		Funder:    clients.NewFunder(recorder),
		State:     state.NewWriter(layout, writer),
		Summary:   output.NewGenerator(layout.NetworkDir(), writer),
	})

	return &harness{
		service:     service,
		recorder:    recorder,
		runner:      runner,
		root:        root,
		demoClients: demoClients,
		rollupsDir:  rollupsDir,
		layout:      layout,
	}
}

func (h *harness) createChainCalls() [][]string {
	var out [][]string
	for _, call := range h.runner.Calls() {
		if slices.Contains(call, "create-chain") {
			out = append(out, call)
		}
	}
	return out
}

func (h *harness) whitelistCalls() [][]string {
	var out [][]string
	for _, call := range h.runner.Calls() {
		if slices.Contains(call, "whitelist-validators") {
			out = append(out, call)
		}
	}
	return out
}

func joinHex(addresses []common.Address) string {
	parts := make([]string, len(addresses))
	for i, a := range addresses {
		parts[i] = a.Hex()
	}
	return strings.Join(parts, ",")
}

func dirNames(t *testing.T, path string) []string {
	t.Helper()
	entries, err := os.ReadDir(path)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestRunThreeValidators(t *testing.T) {
	h := newHarness(t)

	run, err := h.service.Run(context.Background(), Params{Count: 3, Blocktime: 2})
	require.NoError(t, err)
	require.Len(t, run.Validators, 3)

	// Arity.
	require.Equal(t, []string{"validator0", "validator1", "validator2"}, dirNames(t, h.layout.NetworkDir()))

	// Sequencer designation and client whitelist.
	deploys := h.createChainCalls()
	require.Len(t, deploys, 1)
	sequencer, ok := toolstest.Flag(deploys[0], "--sequencer")
	require.True(t, ok)
	require.Equal(t, run.Validators[0].Address().Hex(), sequencer)
	whitelist, ok := toolstest.Flag(deploys[0], "--whitelist")
	require.True(t, ok)
	require.Equal(t, joinHex(keys.Addresses(h.demoClients)), whitelist)

	// One keystore per validator, named by its address and decryptable with the passphrase.
	for _, id := range run.Validators {
		files, err := os.ReadDir(h.layout.WalletsDir(id.Index))
		require.NoError(t, err)
		require.Len(t, files, 1)
		require.Equal(t, id.Address().Hex(), files[0].Name())

		blob, err := os.ReadFile(h.layout.WalletPath(id.Index, id.Address()))
		require.NoError(t, err)
		key, err := keystore.DecryptKey(blob, keys.Passphrase)
		require.NoError(t, err)
		require.Equal(t, id.Address(), key.Address)
	}

	// Proxy cardinality: one createWallet from each non-sequencer.
	creations := h.recorder.SentTo(bridge.ValidatorWalletCreator)
	require.Len(t, creations, 2)
	require.Equal(t, run.Validators[1].Address(), creations[0].From)
	require.Equal(t, run.Validators[2].Address(), creations[1].From)

	// Chain state correspondence.
	require.NoFileExists(t, h.layout.ChainStatePath(0))
	var proxies []common.Address
	for _, id := range run.Validators[1:] {
		raw, err := os.ReadFile(h.layout.ChainStatePath(id.Index))
		require.NoError(t, err)
		var chainState state.ChainState
		require.NoError(t, json.Unmarshal(raw, &chainState))
		require.Equal(t, walletFor(id.Address()).Hex(), chainState.ValidatorWallet)
		proxies = append(proxies, common.HexToAddress(chainState.ValidatorWallet))
	}

	// Whitelist registration in index order.
	registrations := h.whitelistCalls()
	require.Len(t, registrations, 1)
	require.Equal(t, append(append([]string{}, whitelistCmd...), rollupAddress.Hex(), joinHex(proxies)), registrations[0])

	// Cluster config.
	var config state.ClusterConfig
	raw, err := os.ReadFile(h.layout.ConfigPath())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &config))
	require.Equal(t, state.ClusterConfig{
		RollupAddress:                 rollupAddress.Hex(),
		InboxAddress:                  inboxAddress.Hex(),
		ValidatorUtilsAddress:         bridge.ValidatorUtils.Hex(),
		ValidatorWalletFactoryAddress: bridge.ValidatorWalletCreator.Hex(),
		BridgeUtilsAddress:            bridge.BridgeUtils.Hex(),
		EthURL:                        ethURL,
		Password:                      "pass",
		Blocktime:                     2,
	}, config)

	require.FileExists(t, filepath.Join(h.layout.NetworkDir(), output.FileName))
}

func TestRunFundingAmountsAndClientOrder(t *testing.T) {
	h := newHarness(t)

	run, err := h.service.Run(context.Background(), Params{Count: 2, Blocktime: 2})
	require.NoError(t, err)

	sent := h.recorder.Sent()

	// Validators are funded first, 5 ETH each.
	for i, id := range run.Validators {
		require.Equal(t, h.root.Address, sent[i].From)
		require.Equal(t, id.Address(), sent[i].To)
		require.Zero(t, sent[i].Value.Cmp(keys.ValidatorFunding))
	}

	// Clients come last: funding then deposit, client by client.
	tail := sent[len(sent)-2*len(h.demoClients):]
	for i, client := range h.demoClients {
		funding, deposit := tail[2*i], tail[2*i+1]
		require.Equal(t, h.root.Address, funding.From)
		require.Equal(t, client.Address, funding.To)
		require.Zero(t, funding.Value.Cmp(clients.ClientFunding))

		require.Equal(t, client.Address, deposit.From)
		require.Equal(t, inboxAddress, deposit.To)
		require.Zero(t, deposit.Value.Cmp(clients.ClientDeposit))
	}
	require.Len(t, run.Deposits, len(h.demoClients))
}

func TestRunRejectsSingleValidator(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.Run(context.Background(), Params{Count: 1, Blocktime: 2})
	require.ErrorIs(t, err, errs.ErrConfig)
	require.EqualError(t, err, "must create at least 1 validator")

	require.Empty(t, h.recorder.Sent())
	require.Empty(t, h.runner.Calls())
	require.NoDirExists(t, h.rollupsDir)
}

func TestRunRejectsNonPositiveBlocktime(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.Run(context.Background(), Params{Count: 2, Blocktime: 0})
	require.ErrorIs(t, err, errs.ErrConfig)
	require.Empty(t, h.recorder.Sent())
}

func TestRunExistingStateWithoutForce(t *testing.T) {
	h := newHarness(t)
	marker := filepath.Join(h.layout.ValidatorDir(0), "marker")
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0o755))
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o644))

	_, err := h.service.Run(context.Background(), Params{Count: 2, Blocktime: 2})
	require.ErrorIs(t, err, errs.ErrStateExists)

	require.Empty(t, h.createChainCalls())
	require.Empty(t, h.recorder.Sent())
	require.FileExists(t, marker)
}

func TestRunExistingStateWithForce(t *testing.T) {
	h := newHarness(t)
	stale := filepath.Join(h.layout.ValidatorDir(7), "chainState.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("{}"), 0o644))

	_, err := h.service.Run(context.Background(), Params{Count: 2, Blocktime: 2, Force: true})
	require.NoError(t, err)

	require.NoFileExists(t, stale)
	require.Equal(t, []string{"validator0", "validator1"}, dirNames(t, h.layout.NetworkDir()))
}

func TestRunStopsOnDeploymentFailure(t *testing.T) {
	h := newHarness(t)
	h.runner.Handler = func([]string) (string, error) {
		return "HH108: Cannot connect to the network", errors.New("exit status 1")
	}

	_, err := h.service.Run(context.Background(), Params{Count: 3, Blocktime: 2})
	require.ErrorIs(t, err, errs.ErrDeployment)
	require.ErrorContains(t, err, "HH108")

	require.Empty(t, h.recorder.SentTo(bridge.ValidatorWalletCreator))
	require.Empty(t, h.whitelistCalls())
	require.NoFileExists(t, h.layout.ConfigPath())
}

func TestRunStopsOnMissingWalletEvent(t *testing.T) {
	h := newHarness(t)
	h.recorder.Logs = nil

	_, err := h.service.Run(context.Background(), Params{Count: 2, Blocktime: 2})
	require.ErrorIs(t, err, errs.ErrParse)

	require.Empty(t, h.whitelistCalls())
	require.NoFileExists(t, h.layout.ChainStatePath(1))
}

func TestRunStopsOnWhitelistFailure(t *testing.T) {
	h := newHarness(t)
	deploy := h.runner.Handler
	h.runner.Handler = func(argv []string) (string, error) {
		if slices.Contains(argv, "whitelist-validators") {
			return "", errors.New("exit status 1")
		}
		return deploy(argv)
	}

	_, err := h.service.Run(context.Background(), Params{Count: 2, Blocktime: 2})
	require.ErrorIs(t, err, errs.ErrWhitelist)

	for _, client := range h.demoClients {
		require.Empty(t, h.recorder.SentTo(client.Address))
	}
}
