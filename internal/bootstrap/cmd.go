package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/compose-network/validator-bootstrap/configs"
	"github.com/compose-network/validator-bootstrap/internal/chain"
	"github.com/compose-network/validator-bootstrap/internal/clients"
	"github.com/compose-network/validator-bootstrap/internal/infra/docker"
	"github.com/compose-network/validator-bootstrap/internal/infra/filesystem/json"
	"github.com/compose-network/validator-bootstrap/internal/keys"
	"github.com/compose-network/validator-bootstrap/internal/output"
	"github.com/compose-network/validator-bootstrap/internal/registry"
	"github.com/compose-network/validator-bootstrap/internal/state"
	"github.com/compose-network/validator-bootstrap/internal/tools"
	"github.com/compose-network/validator-bootstrap/internal/wallets"
	"github.com/spf13/cobra"
)

var (
	force          bool
	validatorCount int
	blocktime      int
)

var CMD = &cobra.Command{
	Use:   "init",
	Short: "Initialize validators for a new local rollup chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.Info("starting init command. Validating config",
			slog.String("eth_url", configs.Values.EthURL),
			slog.String("rollups_dir", configs.Values.Paths.RollupsDir),
			slog.String("tool_runner", string(configs.Values.Tools.Runner)),
		)

		if err := configs.Values.Validate(); err != nil {
			return err
		}

		params := Params{
			Count:     validatorCount + 1,
			Blocktime: blocktime,
			Force:     force,
		}

		if err := start(cmd.Context(), configs.Values, params); err != nil {
			return fmt.Errorf("error occurred bootstrapping validators: %w", err)
		}

		return nil
	},
}

func start(ctx context.Context, cfg configs.Config, params Params) error {
	client, err := chain.Dial(ctx, cfg.EthURL, cfg.ReceiptPollInterval)
	if err != nil {
		return err
	}
	defer client.Close()

	root, err := client.RootSigner(ctx, cfg.Root.PrivateKey, cfg.Root.AccountIndex)
	if err != nil {
		return err
	}

	reader := json.NewReader()
	writer := json.NewWriter()

	bridge, err := registry.Load(reader, cfg.Paths.BridgeEthDir, cfg.Paths.AddressesFile)
	if err != nil {
		return err
	}

	demoClients, err := keys.DemoClients()
	if err != nil {
		return err
	}

	runner, closeRunner, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer closeRunner()

	layout := state.NewLayout(cfg.Paths.RollupsDir, state.NetworkLocal)
	service := NewService(root, cfg.EthURL, bridge, demoClients, Components{
		Keys:      keys.NewFactory(client, keys.NewEncryptor(keys.Passphrase, cfg.Keystore.LightScrypt)),
		Deployer:  tools.NewDeployer(runner, cfg.Tools.CreateChain, cfg.Paths.BridgeEthDir, reader),
		Wallets:   wallets.NewProvisioner(client, bridge.ValidatorWalletCreator),
		Registrar: tools.NewRegistrar(runner, cfg.Tools.Whitelist),
		Funder:    clients.NewFunder(client),
		State:     state.NewWriter(layout, writer),
		Summary:   output.NewGenerator(layout.NetworkDir(), writer),
	})

	_, err = service.Run(ctx, params)
	return err
}

func newRunner(cfg configs.Config) (tools.Runner, func(), error) {
	if cfg.Tools.Runner != configs.RunnerKindDocker {
		return tools.NewExecRunner(cfg.Paths.ToolsDir), func() {}, nil
	}

	dockerClient, err := docker.New()
	if err != nil {
		return nil, nil, err
	}

	runner, err := tools.NewDockerRunner(dockerClient, tools.DockerImage{
		Name:         cfg.Tools.Docker.Image,
		Dockerfile:   cfg.Tools.Docker.Dockerfile,
		BuildContext: cfg.Tools.Docker.BuildContext,
		Workdir:      cfg.Tools.Docker.Workdir,
	}, cfg.Paths.ToolsDir)
	if err != nil {
		_ = dockerClient.Close()
		return nil, nil, err
	}

	return runner, func() { _ = dockerClient.Close() }, nil
}
