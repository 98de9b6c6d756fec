package actions

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"strings"
	"webup/standby/domain"
	"webup/standby/remote"

	"golang.org/x/crypto/ssh"
)

// keyPermMask is the only permission set accepted for the private key:
// owner read/write, nothing else.
const keyPermMask = os.FileMode(0600)

var lookPath = exec.LookPath

// ValidateEnvironment certifies every local and remote precondition before
// the run mutates anything. Each failed check aborts the entire run; no
// remote command is issued until all local checks pass.
func ValidateEnvironment(target domain.RemoteTarget, mode domain.TransferMode, runner domain.Runner, rexec remote.Executor) error {

	if err := validateKey(target.KeyPath); err != nil {
		return err
	}

	if target.Port < 0 || target.Port > 65535 {
		return fmt.Errorf("remote port %d is out of range [0, 65535]", target.Port)
	}

	tools := []string{"ssh", "docker", "grep", "tar", "rsync"}
	if mode == domain.ModeArchive {
		tools = append(tools, "scp")
	}
	for _, tool := range tools {
		if _, err := lookPath(tool); err != nil {
			return fmt.Errorf("required tool '%s' is not available on this host", tool)
		}
	}

	if err := validateGrep("", runner, rexec); err != nil {
		return err
	}

	// local environment certified; the remote host may now be probed

	if _, err := rexec.Output("rsync", "--version"); err != nil {
		return fmt.Errorf("the remote host does not offer a usable rsync: %s", err)
	}

	if err := validateGrep(target.Host, runner, rexec); err != nil {
		return err
	}

	for _, tool := range []string{"docker", "tar", "grep"} {
		if _, err := rexec.Output("command", "-v", tool); err != nil {
			return fmt.Errorf("required tool '%s' is not available on '%s'", tool, target.Host)
		}
	}

	return nil
}

func validateKey(keyPath string) error {

	if keyPath == "" {
		return fmt.Errorf("no private key configured for the remote host")
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		return fmt.Errorf("unable to read the private key '%s': %s", keyPath, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("the private key '%s' is empty", keyPath)
	}
	if perm := info.Mode().Perm(); perm != keyPermMask {
		return fmt.Errorf("the private key '%s' has permissions %04o, expected %04o", keyPath, perm, keyPermMask)
	}

	content, err := ioutil.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("unable to read the private key '%s': %s", keyPath, err)
	}
	if _, err := ssh.ParsePrivateKey(content); err != nil {
		if _, missing := err.(*ssh.PassphraseMissingError); missing {
			return fmt.Errorf("the private key '%s' is passphrase protected; the channel runs in batch mode and needs an unencrypted deploy key", keyPath)
		}
		return fmt.Errorf("the private key '%s' is not a usable key: %s", keyPath, err)
	}

	return nil
}

// validateGrep rejects minimal/BusyBox grep variants: they lack the
// extended-regex and case-insensitivity options later stages rely on.
// An empty host means the local side.
func validateGrep(host string, runner domain.Runner, rexec remote.Executor) error {

	var banner string
	var err error
	where := "this host"
	if host == "" {
		banner, err = runner.Output(domain.NewCommand([]string{"grep", "--help"}))
	} else {
		banner, err = rexec.Output("grep", "--help")
		where = fmt.Sprintf("'%s'", host)
	}

	// BusyBox grep exits non-zero on --help, so inspect the banner before
	// the status
	if strings.Contains(banner, "BusyBox") {
		return fmt.Errorf("the grep on %s is a BusyBox variant and cannot be used", where)
	}
	if err != nil {
		return fmt.Errorf("unable to run grep on %s: %s", where, err)
	}

	return nil
}
