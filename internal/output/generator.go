// Package output writes a summary of a bootstrap run next to the cluster it describes.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/compose-network/validator-bootstrap/internal/clients"
	"github.com/compose-network/validator-bootstrap/internal/infra/filesystem"
	"github.com/compose-network/validator-bootstrap/internal/keys"
	"github.com/compose-network/validator-bootstrap/internal/logger"
	"github.com/compose-network/validator-bootstrap/internal/registry"
	"github.com/compose-network/validator-bootstrap/internal/tools"
	"github.com/compose-network/validator-bootstrap/internal/wallets"
	"gopkg.in/yaml.v3"
)

const (
	FileName = "output.yaml"

	roleSequencer = "sequencer"
	roleValidator = "validator"
)

type (
	// Run is everything a finished bootstrap produced.
	Run struct {
		EthURL     string
		Rollup     tools.RollupArtifact
		Bridge     registry.Addresses
		Validators []keys.Identity
		// Keystores maps validator index to its keystore file.
		Keystores map[int]string
		Proxies   []wallets.Proxy
		Deposits  []clients.Deposit
	}

	Generator struct {
		dir    string
		writer filesystem.Writer
		logger *slog.Logger
	}
)

func NewGenerator(dir string, writer filesystem.Writer) *Generator {
	return &Generator{dir: dir, writer: writer, logger: logger.Named("output_generator")}
}

// Path is the summary file location.
func (g *Generator) Path() string {
	return filepath.Join(g.dir, FileName)
}

func (g *Generator) Generate(_ context.Context, run Run) error {
	data, err := yaml.Marshal(buildModel(run))
	if err != nil {
		return fmt.Errorf("could not marshal output model. Err: '%w'", err)
	}

	if err := g.writer.WriteBytes(g.Path(), data, 0o644); err != nil {
		return fmt.Errorf("could not write output file. Err: '%w'", err)
	}

	g.logger.With("path", g.Path()).Info("run summary written")

	return nil
}

func buildModel(run Run) *Model {
	proxies := make(map[int]wallets.Proxy, len(run.Proxies))
	for _, p := range run.Proxies {
		proxies[p.ValidatorIndex] = p
	}

	model := &Model{
		EthURL: run.EthURL,
		Rollup: Rollup{
			Address: run.Rollup.RollupAddress,
			Inbox:   run.Rollup.InboxAddress,
		},
		Bridge: Bridge{
			ValidatorUtils:         run.Bridge.ValidatorUtils,
			ValidatorWalletCreator: run.Bridge.ValidatorWalletCreator,
			BridgeUtils:            run.Bridge.BridgeUtils,
		},
		Validators: make([]Validator, 0, len(run.Validators)),
		Clients:    make([]Client, 0, len(run.Deposits)),
	}

	for _, id := range run.Validators {
		validator := Validator{
			Index:    id.Index,
			Address:  id.Address(),
			Role:     roleValidator,
			Keystore: run.Keystores[id.Index],
		}
		if id.IsSequencer() {
			validator.Role = roleSequencer
		}
		if proxy, ok := proxies[id.Index]; ok {
			wallet := proxy.Address
			validator.Wallet = &wallet
		}
		model.Validators = append(model.Validators, validator)
	}

	for _, d := range run.Deposits {
		model.Clients = append(model.Clients, Client{
			Address: d.Client,
			Deposit: SingleQuotedString(d.Amount.String()),
		})
	}

	return model
}
