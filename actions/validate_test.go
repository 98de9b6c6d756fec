package actions

import (
	"fmt"
	"testing"
	"webup/standby/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validate(runner *fakeRunner, target domain.RemoteTarget, mode domain.TransferMode) error {
	return ValidateEnvironment(target, mode, runner, testExecutor(runner, target))
}

func TestValidateAcceptsSoundEnvironment(t *testing.T) {
	stubLookPath(t)
	runner := &fakeRunner{}

	err := validate(runner, testTarget(writeTestKey(t, 0600)), domain.ModeSync)
	require.NoError(t, err)

	// the remote side was actually probed
	assert.True(t, runner.ran("deploy@standby.test rsync --version"))
	assert.True(t, runner.ran("deploy@standby.test grep --help"))
	assert.True(t, runner.ran("deploy@standby.test command -v docker"))
	assert.True(t, runner.ran("deploy@standby.test command -v tar"))
	assert.True(t, runner.ran("deploy@standby.test command -v grep"))
}

func TestValidateRejectsOpenKeyPermissionsBeforeAnyRemoteCall(t *testing.T) {
	stubLookPath(t)
	runner := &fakeRunner{}

	for _, perm := range []uint32{0400, 0640, 0644, 0660, 0700} {
		err := validate(runner, testTarget(writeTestKey(t, perm)), domain.ModeSync)
		assert.Error(t, err, fmt.Sprintf("permissions %04o must be rejected", perm))
	}

	assert.False(t, runner.ran("ssh"), "no remote call may happen after a local check failed")
}

func TestValidateRejectsMissingKey(t *testing.T) {
	stubLookPath(t)
	runner := &fakeRunner{}

	assert.Error(t, validate(runner, testTarget(""), domain.ModeSync))
	assert.Error(t, validate(runner, testTarget("/nonexistent/key"), domain.ModeSync))
	assert.False(t, runner.ran("ssh"))
}

func TestValidateRejectsPassphraseProtectedKey(t *testing.T) {
	stubLookPath(t)
	runner := &fakeRunner{}

	err := validate(runner, testTarget(writeEncryptedTestKey(t)), domain.ModeSync)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passphrase")
	assert.False(t, runner.ran("ssh"))
}

func TestValidateRejectsPortOutOfRange(t *testing.T) {
	stubLookPath(t)
	runner := &fakeRunner{}
	key := writeTestKey(t, 0600)

	for _, port := range []int{-1, 65536, 100000} {
		target := testTarget(key)
		target.Port = port
		assert.Error(t, validate(runner, target, domain.ModeSync), fmt.Sprintf("port %d must be rejected", port))
	}

	assert.False(t, runner.ran("ssh"))
}

func TestValidateRejectsMissingLocalTool(t *testing.T) {
	previous := lookPath
	lookPath = func(tool string) (string, error) {
		if tool == "rsync" {
			return "", fmt.Errorf("not found")
		}
		return "/usr/bin/" + tool, nil
	}
	t.Cleanup(func() { lookPath = previous })

	runner := &fakeRunner{}
	err := validate(runner, testTarget(writeTestKey(t, 0600)), domain.ModeSync)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rsync")
	assert.False(t, runner.ran("ssh"))
}

func TestValidateRequiresScpInArchiveMode(t *testing.T) {
	previous := lookPath
	lookPath = func(tool string) (string, error) {
		if tool == "scp" {
			return "", fmt.Errorf("not found")
		}
		return "/usr/bin/" + tool, nil
	}
	t.Cleanup(func() { lookPath = previous })

	runner := &fakeRunner{}
	key := writeTestKey(t, 0600)

	assert.Error(t, validate(runner, testTarget(key), domain.ModeArchive))
	assert.NoError(t, validate(runner, testTarget(key), domain.ModeSync))
}

func TestValidateRejectsBusyBoxGrepLocally(t *testing.T) {
	stubLookPath(t)
	runner := &fakeRunner{}
	runner.stub("deploy@standby.test grep --help", "usage: grep [OPTION]...")
	runner.stub("grep --help", "BusyBox v1.36.1 multi-call binary")

	err := validate(runner, testTarget(writeTestKey(t, 0600)), domain.ModeSync)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BusyBox")
	assert.False(t, runner.ran("ssh"))
}

func TestValidateRejectsBusyBoxGrepRemotely(t *testing.T) {
	stubLookPath(t)
	runner := &fakeRunner{}
	runner.stub("deploy@standby.test grep --help", "BusyBox v1.36.1 multi-call binary")

	err := validate(runner, testTarget(writeTestKey(t, 0600)), domain.ModeSync)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "standby.test")
}

func TestValidateRejectsRemoteWithoutGrep(t *testing.T) {
	stubLookPath(t)
	runner := &fakeRunner{}
	runner.fail("deploy@standby.test grep --help", &domain.ExitStatusError{Code: 127})

	err := validate(runner, testTarget(writeTestKey(t, 0600)), domain.ModeSync)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grep")
}

func TestValidateRejectsMissingRemoteTool(t *testing.T) {
	stubLookPath(t)
	runner := &fakeRunner{}
	runner.fail("command -v grep", &domain.ExitStatusError{Code: 1})

	err := validate(runner, testTarget(writeTestKey(t, 0600)), domain.ModeSync)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grep")
}

func TestValidateRejectsUnreachableRemote(t *testing.T) {
	stubLookPath(t)
	runner := &fakeRunner{}
	runner.fail("rsync --version", &domain.ExitStatusError{Code: 255})

	err := validate(runner, testTarget(writeTestKey(t, 0600)), domain.ModeSync)
	assert.Error(t, err)
}
