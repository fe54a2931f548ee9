package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelMatching(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"config", NewConfigError("must create at least %d validator", 1), ErrConfig},
		{"state exists", &StateExistsError{Path: "rollups/local"}, ErrStateExists},
		{"rpc", &RPCError{Op: "send transaction", Err: errors.New("nonce too low")}, ErrRPC},
		{"deployment", NewDeploymentError("create-chain", "boom", errors.New("exit status 1")), ErrDeployment},
		{"whitelist", NewWhitelistError("whitelist-validators", "", errors.New("exit status 2")), ErrWhitelist},
		{"keystore", &KeystoreError{Path: "wallets/0xabc", Err: errors.New("disk full")}, ErrKeystore},
		{"parse", &ParseError{What: "artifact", Err: errors.New("bad json")}, ErrParse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("step failed: %w", tc.err)
			require.ErrorIs(t, wrapped, tc.sentinel)
			for _, other := range cases {
				if other.sentinel != tc.sentinel {
					require.NotErrorIs(t, wrapped, other.sentinel)
				}
			}
		})
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := NewConfigError("must create at least 1 validator")
	require.EqualError(t, err, "must create at least 1 validator")
}

func TestDeploymentErrorCarriesOutputAndCause(t *testing.T) {
	cause := &ParseError{What: "rollup-local_development.json", Err: errors.New("missing rollupAddress")}
	err := NewDeploymentError("create-chain", "Deploying rollup...", cause)

	require.Contains(t, err.Error(), "Deploying rollup...")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "rollup-local_development.json", parseErr.What)
	require.ErrorIs(t, err, ErrParse)
	require.ErrorIs(t, err, ErrDeployment)
}

func TestStateExistsErrorMessage(t *testing.T) {
	err := &StateExistsError{Path: "/tmp/rollups/local"}
	require.Contains(t, err.Error(), "/tmp/rollups/local already exists")
	require.Contains(t, err.Error(), "--force")
}
