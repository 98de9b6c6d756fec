package actions

import (
	"testing"
	"webup/standby/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeComposePrefersNative(t *testing.T) {
	// both flavors answer; native must win
	runner := &fakeRunner{}
	runner.stub("docker compose version", "Docker Compose version v2.24.5")
	runner.stub("docker-compose version --short", "2.24.5")

	flavor, err := ProbeCompose(testExecutor(runner, testTarget("/root/.ssh/standby")))
	require.NoError(t, err)
	assert.Equal(t, domain.ComposeNative, flavor)
	assert.False(t, runner.ran("docker-compose version"))
}

func TestProbeComposeStandaloneFallback(t *testing.T) {
	runner := &fakeRunner{}
	runner.fail("docker compose version", &domain.ExitStatusError{Code: 125})
	runner.stub("docker-compose version --short", "v2.24.5")

	flavor, err := ProbeCompose(testExecutor(runner, testTarget("/root/.ssh/standby")))
	require.NoError(t, err)
	assert.Equal(t, domain.ComposeStandalone, flavor)
}

func TestProbeComposeRejectsOldStandalone(t *testing.T) {
	runner := &fakeRunner{}
	runner.fail("docker compose version", &domain.ExitStatusError{Code: 125})
	runner.stub("docker-compose version --short", "1.29.2")

	_, err := ProbeCompose(testExecutor(runner, testTarget("/root/.ssh/standby")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1.29.2")
}

func TestProbeComposeNoneAvailable(t *testing.T) {
	runner := &fakeRunner{}
	runner.fail("docker compose version", &domain.ExitStatusError{Code: 125})
	runner.fail("docker-compose version --short", &domain.ExitStatusError{Code: 127})

	_, err := ProbeCompose(testExecutor(runner, testTarget("/root/.ssh/standby")))
	assert.Error(t, err)
}

func TestProbeArchitectures(t *testing.T) {
	runner := &fakeRunner{}
	runner.stub("deploy@standby.test uname -m", "aarch64")
	runner.stub("uname -m", "x86_64")

	local, remoteArch, err := ProbeArchitectures(runner, testExecutor(runner, testTarget("/root/.ssh/standby")))
	require.NoError(t, err)
	assert.Equal(t, "x86_64", local)
	assert.Equal(t, "aarch64", remoteArch)
}

func TestProbeArchitecturesMismatchIsNotAnError(t *testing.T) {
	runner := &fakeRunner{}
	runner.stub("deploy@standby.test uname -m", "aarch64")
	runner.stub("uname -m", "x86_64")

	_, _, err := ProbeArchitectures(runner, testExecutor(runner, testTarget("/root/.ssh/standby")))
	assert.NoError(t, err)
}
