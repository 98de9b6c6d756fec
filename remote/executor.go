package remote

import (
	"fmt"
	"strconv"
	"strings"
	"webup/standby/domain"

	"github.com/fatih/color"
)

// Executor runs commands on the standby host over the authenticated
// channel. It is the single primitive every component uses for remote
// actions; privilege escalation is a caller-level retry, not a property
// of the channel.
type Executor struct {
	Target domain.RemoteTarget
	Runner domain.Runner
}

var sshOptions = []string{
	"-o", "BatchMode=yes",
	"-o", "StrictHostKeyChecking=accept-new",
}

func (e Executor) command(elevate bool, args []string) domain.Command {
	list := []string{"ssh", "-i", e.Target.KeyPath, "-p", strconv.Itoa(e.Target.Port)}
	list = append(list, sshOptions...)
	list = append(list, e.Target.Addr())
	if elevate {
		list = append(list, "sudo")
	}
	list = append(list, args...)
	return domain.NewCommand(list)
}

// Run executes the command on the remote host, streaming output.
func (e Executor) Run(args ...string) error {
	return e.Runner.Run(e.command(false, args))
}

// Output executes the command remotely and returns its combined output.
func (e Executor) Output(args ...string) (string, error) {
	return e.Runner.Output(e.command(false, args))
}

// RunElevated retries a failed command once with remote privilege
// escalation, returning the first success or the escalated attempt's
// error. Standby hosts often run a restricted deployment account, so a
// plain failure is not yet a failure.
func (e Executor) RunElevated(args ...string) error {
	err := e.Runner.Run(e.command(false, args))
	if err == nil {
		return nil
	}

	fmt.Printf(" %s retrying with elevated privileges: %s\n", color.YellowString("⚠"), strings.Join(args, " "))
	return e.Runner.Run(e.command(true, args))
}

// CopyFile copies a local file to the given remote path.
func (e Executor) CopyFile(localPath string, remotePath string) error {
	list := []string{"scp", "-i", e.Target.KeyPath, "-P", strconv.Itoa(e.Target.Port)}
	list = append(list, sshOptions...)
	list = append(list, localPath, fmt.Sprintf("%s:%s", e.Target.Addr(), remotePath))
	return e.Runner.Run(domain.NewCommand(list))
}

// RemoteShell is the channel invocation handed to the sync tool's -e flag.
func (e Executor) RemoteShell() string {
	parts := append([]string{"ssh", "-i", e.Target.KeyPath, "-p", strconv.Itoa(e.Target.Port)}, sshOptions...)
	return strings.Join(parts, " ")
}

// Dest renders a remote path in the user@host:path form.
func (e Executor) Dest(path string) string {
	return fmt.Sprintf("%s:%s", e.Target.Addr(), path)
}
