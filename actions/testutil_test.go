package actions

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"webup/standby/domain"
	"webup/standby/remote"

	"github.com/stretchr/testify/require"
)

// fakeRunner scripts external tools for the tests: rules are matched in
// registration order against the rendered command line, first substring
// match wins, anything unmatched succeeds silently. Register the most
// specific patterns first.
type rule struct {
	match  string
	output string
	err    error
}

type fakeRunner struct {
	rules    []rule
	commands []string
}

func (r *fakeRunner) stub(match string, output string) {
	r.rules = append(r.rules, rule{match: match, output: output})
}

func (r *fakeRunner) fail(match string, err error) {
	r.rules = append(r.rules, rule{match: match, err: err})
}

func (r *fakeRunner) exec(c domain.Command) (string, error) {
	s := c.String()
	r.commands = append(r.commands, s)
	for _, rule := range r.rules {
		if strings.Contains(s, rule.match) {
			return rule.output, rule.err
		}
	}
	return "", nil
}

func (r *fakeRunner) Run(c domain.Command) error {
	_, err := r.exec(c)
	return err
}

func (r *fakeRunner) Output(c domain.Command) (string, error) {
	return r.exec(c)
}

func (r *fakeRunner) ran(match string) bool {
	for _, c := range r.commands {
		if strings.Contains(c, match) {
			return true
		}
	}
	return false
}

func (r *fakeRunner) count(match string) int {
	n := 0
	for _, c := range r.commands {
		if strings.Contains(c, match) {
			n++
		}
	}
	return n
}

// writeTestKey drops a parseable private key with the given permissions
// and returns its path.
func writeTestKey(t *testing.T, perm uint32) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	path := filepath.Join(t.TempDir(), "standby_key")
	require.NoError(t, ioutil.WriteFile(path, pem.EncodeToMemory(block), 0600))

	// WriteFile applies the umask; enforce the requested bits explicitly
	require.NoError(t, chmod(path, perm))
	return path
}

// writeEncryptedTestKey drops a passphrase-protected key.
func writeEncryptedTestKey(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	block, err := x509.EncryptPEMBlock(rand.Reader, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key), []byte("passphrase"), x509.PEMCipherAES256)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "standby_key")
	require.NoError(t, ioutil.WriteFile(path, pem.EncodeToMemory(block), 0600))
	require.NoError(t, chmod(path, 0600))
	return path
}

func chmod(path string, perm uint32) error {
	return os.Chmod(path, os.FileMode(perm))
}

// stubLookPath makes every tool resolvable for the duration of the test.
func stubLookPath(t *testing.T) {
	t.Helper()
	previous := lookPath
	lookPath = func(tool string) (string, error) { return "/usr/bin/" + tool, nil }
	t.Cleanup(func() { lookPath = previous })
}

func testTarget(keyPath string) domain.RemoteTarget {
	return domain.RemoteTarget{Host: "standby.test", Port: 22, User: "deploy", KeyPath: keyPath}
}

func testExecutor(runner domain.Runner, target domain.RemoteTarget) remote.Executor {
	return remote.Executor{Target: target, Runner: runner}
}

func testContext(runner *fakeRunner) *domain.RunContext {
	return &domain.RunContext{
		Project:    "mail",
		BaseDir:    "/opt/mail",
		Target:     testTarget("/root/.ssh/standby"),
		Mode:       domain.ModeSync,
		Flavor:     domain.ComposeNative,
		LocalArch:  "x86_64",
		RemoteArch: "x86_64",
		DBRoot:     "rootpw",
		RedisPass:  "cachepw",
		Database:   domain.DatabaseConfig{Image: "mariadb:10.5", Host: "mysql", UID: 999, GID: 999},
		Rules:      domain.VolumeRules{Database: "mysql-vol-1", Filter: "rspamd-vol-1", Cache: "redis-vol-1"},

		UpdateScript: "update.sh",
	}
}
