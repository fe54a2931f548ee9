package docker

import (
	"strings"
	"testing"

	"github.com/compose-network/validator-bootstrap/internal/logger"
	"github.com/stretchr/testify/require"
)

func TestBinds(t *testing.T) {
	require.Nil(t, binds(nil))
	require.Equal(t,
		[]string{"/a:/workspace", "/b:/cache"},
		binds(map[string]string{"/b": "/cache", "/a": "/workspace"}),
	)
}

func TestProgressError(t *testing.T) {
	require.Empty(t, progressError(`{"status":"Downloading"}`))
	require.Empty(t, progressError("not json"))
	require.Equal(t, "manifest unknown", progressError(`{"error":"manifest unknown"}`))
	require.Equal(t, "no space left", progressError(`{"errorDetail":{"message":"no space left"}}`))
}

func TestDrainProgressKeepsLastError(t *testing.T) {
	c := &Client{logger: logger.Named("docker_client_test")}

	stream := strings.Join([]string{
		`{"stream":"Step 1/2"}`,
		`{"error":"first"}`,
		`{"error":"second"}`,
	}, "\n")
	require.EqualError(t, c.drainProgress(strings.NewReader(stream), "build"), "build failed: second")
	require.NoError(t, c.drainProgress(strings.NewReader(`{"stream":"done"}`), "build"))
}

func TestExitError(t *testing.T) {
	require.EqualError(t, &ExitError{Code: 3}, "container exited with code 3")
}

func TestHostPath(t *testing.T) {
	t.Setenv(HostProjectPathEnv, "")
	got, err := HostPath("/srv/tools")
	require.NoError(t, err)
	require.Equal(t, "/srv/tools", got)

	t.Setenv(HostProjectPathEnv, "/home/dev/project")

	got, err = HostPath("/workspace/packages/arb-bridge-eth")
	require.NoError(t, err)
	require.Equal(t, "/home/dev/project/packages/arb-bridge-eth", got)

	got, err = HostPath("/workspace")
	require.NoError(t, err)
	require.Equal(t, "/home/dev/project", got)

	got, err = HostPath("/tmp/other")
	require.NoError(t, err)
	require.Equal(t, "/tmp/other", got)
}
