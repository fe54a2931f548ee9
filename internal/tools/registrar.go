package tools

import (
	"context"
	"log/slog"

	"github.com/compose-network/validator-bootstrap/internal/errs"
	"github.com/compose-network/validator-bootstrap/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

const whitelistTool = "whitelist-validators"

// Registrar whitelists validator proxy wallets on a rollup.
type Registrar struct {
	runner  Runner
	command []string
	logger  *slog.Logger
}

func NewRegistrar(runner Runner, command []string) *Registrar {
	return &Registrar{
		runner:  runner,
		command: command,
		logger:  logger.Named("whitelist_registrar"),
	}
}

// Register whitelists proxies, in the given order, on rollup.
func (r *Registrar) Register(ctx context.Context, rollup common.Address, proxies []common.Address) error {
	argv := append([]string{}, r.command...)
	argv = append(argv, rollup.Hex(), joinAddresses(proxies))

	r.logger.
		With("rollup", rollup).
		With("validators", len(proxies)).
		Info("whitelisting validators")

	output, err := r.runner.Run(ctx, argv)
	if err != nil {
		return errs.NewWhitelistError(whitelistTool, output, err)
	}

	return nil
}
