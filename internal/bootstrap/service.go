package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/compose-network/validator-bootstrap/internal/chain"
	"github.com/compose-network/validator-bootstrap/internal/clients"
	"github.com/compose-network/validator-bootstrap/internal/errs"
	"github.com/compose-network/validator-bootstrap/internal/keys"
	"github.com/compose-network/validator-bootstrap/internal/logger"
	"github.com/compose-network/validator-bootstrap/internal/output"
	"github.com/compose-network/validator-bootstrap/internal/registry"
	"github.com/compose-network/validator-bootstrap/internal/state"
	"github.com/compose-network/validator-bootstrap/internal/tools"
	"github.com/compose-network/validator-bootstrap/internal/wallets"
	"github.com/ethereum/go-ethereum/common"
)

/*
Service provisions a local validator cluster in one pass:
  - prepares the output tree (refusing or wiping an existing one)
  - generates and funds the validator keys
  - deploys the rollup with validator 0 as sequencer and the demo clients whitelisted
  - writes keystores, cluster config and the proxy wallet of every other validator
  - whitelists the proxy wallets and funds the demo clients
*/
type (
	keyFactory interface {
		Generate(ctx context.Context, root *chain.Signer, count int) ([]keys.Identity, error)
	}
	rollupDeployer interface {
		CreateRollup(ctx context.Context, sequencer common.Address, whitelist []common.Address) (tools.RollupArtifact, error)
	}
	walletProvisioner interface {
		Provision(ctx context.Context, id keys.Identity) (wallets.Proxy, error)
	}
	whitelistRegistrar interface {
		Register(ctx context.Context, rollup common.Address, proxies []common.Address) error
	}
	clientFunder interface {
		Fund(ctx context.Context, root *chain.Signer, inbox common.Address, clients []*chain.Signer) ([]clients.Deposit, error)
	}
	stateWriter interface {
		Prepare(force bool) error
		SetupValidatorStates(count int, network string, config state.ClusterConfig) error
		WriteWallet(index int, address common.Address, encrypted []byte) (string, error)
		WriteChainState(index int, proxy common.Address) error
	}
	summaryGenerator interface {
		Generate(ctx context.Context, run output.Run) error
	}

	// Components are the collaborators of the Service.
	Components struct {
		Keys      keyFactory
		Deployer  rollupDeployer
		Wallets   walletProvisioner
		Registrar whitelistRegistrar
		Funder    clientFunder
		State     stateWriter
		Summary   summaryGenerator
	}

	// Params of a run. Count includes the sequencer.
	Params struct {
		Count     int
		Blocktime int
		Force     bool
	}

	Service struct {
		root    *chain.Signer
		ethURL  string
		bridge  registry.Addresses
		clients []*chain.Signer
		c       Components
		logger  *slog.Logger
	}
)

func NewService(root *chain.Signer, ethURL string, bridge registry.Addresses, demoClients []*chain.Signer, components Components) *Service {
	return &Service{
		root:    root,
		ethURL:  ethURL,
		bridge:  bridge,
		clients: demoClients,
		c:       components,
		logger:  logger.Named("bootstrap"),
	}
}

// Run executes the whole bootstrap. Any failure aborts the run and leaves whatever was
// written so far in place.
func (s *Service) Run(ctx context.Context, p Params) (output.Run, error) {
	var run output.Run

	if p.Count < 2 {
		return run, errs.NewConfigError("must create at least 1 validator")
	}
	if p.Blocktime < 1 {
		return run, errs.NewConfigError("blocktime must be at least 1 second, got %d", p.Blocktime)
	}

	if err := s.c.State.Prepare(p.Force); err != nil {
		return run, err
	}

	s.logger.With("count", p.Count).Info("creating validator identities")
	identities, err := s.c.Keys.Generate(ctx, s.root, p.Count)
	if err != nil {
		return run, fmt.Errorf("failed to create validator identities: %w", err)
	}

	artifact, err := s.c.Deployer.CreateRollup(ctx, identities[0].Address(), keys.Addresses(s.clients))
	if err != nil {
		return run, err
	}
	s.logger.With("rollup", artifact.RollupAddress).Info("created rollup")

	config := state.ClusterConfig{
		RollupAddress:                 artifact.RollupAddress.Hex(),
		InboxAddress:                  artifact.InboxAddress.Hex(),
		ValidatorUtilsAddress:         s.bridge.ValidatorUtils.Hex(),
		ValidatorWalletFactoryAddress: s.bridge.ValidatorWalletCreator.Hex(),
		BridgeUtilsAddress:            s.bridge.BridgeUtils.Hex(),
		EthURL:                        s.ethURL,
		Password:                      keys.Passphrase,
		Blocktime:                     p.Blocktime,
	}
	if err := s.c.State.SetupValidatorStates(p.Count, state.NetworkLocal, config); err != nil {
		return run, err
	}

	keystores := make(map[int]string, len(identities))
	proxies := make([]wallets.Proxy, 0, len(identities)-1)
	for _, id := range identities {
		path, err := s.c.State.WriteWallet(id.Index, id.Address(), id.Encrypted)
		if err != nil {
			return run, err
		}
		keystores[id.Index] = path

		if id.IsSequencer() {
			continue
		}

		proxy, err := s.c.Wallets.Provision(ctx, id)
		if err != nil {
			return run, err
		}
		if err := s.c.State.WriteChainState(id.Index, proxy.Address); err != nil {
			return run, err
		}
		proxies = append(proxies, proxy)
	}

	if err := s.c.Registrar.Register(ctx, artifact.RollupAddress, wallets.Addresses(proxies)); err != nil {
		return run, err
	}

	deposits, err := s.c.Funder.Fund(ctx, s.root, artifact.InboxAddress, s.clients)
	if err != nil {
		return run, err
	}

	run = output.Run{
		EthURL:     s.ethURL,
		Rollup:     artifact,
		Bridge:     s.bridge,
		Validators: identities,
		Keystores:  keystores,
		Proxies:    proxies,
		Deposits:   deposits,
	}
	if err := s.c.Summary.Generate(ctx, run); err != nil {
		return run, err
	}

	s.logger.
		With("rollup", artifact.RollupAddress).
		With("validators", len(identities)).
		With("clients", len(deposits)).
		Info("validator cluster bootstrapped")

	return run, nil
}
