package domain

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

type CommandArgs []string

// Command is a local process invocation, always built as an argument
// vector. The name is never passed through a shell.
type Command struct {
	Name string
	Args []string
}

func NewCommand(list []string) Command {
	name := list[0]
	args := []string{}
	if len(list) > 1 {
		args = list[1:]
	}
	return Command{Name: name, Args: args}
}

func (c Command) String() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", c.Name, strings.Join(c.Args, " ")))
}

// ExitStatusError reports a command that ran and exited non-zero. Callers
// that care about specific result codes (the sync tool's "vanished files"
// code) inspect it through ExitStatus.
type ExitStatusError struct {
	Code int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// ExitStatus returns the exit code carried by err, or -1 when err does not
// carry one. A nil err is status 0.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*ExitStatusError); ok {
		return exitErr.Code
	}
	return -1
}

// Runner executes commands. The engine only ever talks to processes
// through this interface so tests can script every external tool.
type Runner interface {
	// Run executes the command, streaming its output to the terminal.
	Run(c Command) error
	// Output executes the command and returns its combined output, trimmed.
	Output(c Command) (string, error)
}

// LocalRunner is the production Runner, backed by os/exec.
type LocalRunner struct{}

func (LocalRunner) Run(c Command) error {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	return translateExitError(cmd.Run())
}

func (LocalRunner) Output(c Command) (string, error) {
	cmd := exec.Command(c.Name, c.Args...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), translateExitError(err)
}

func translateExitError(err error) error {
	if err == nil {
		return nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return &ExitStatusError{Code: exitErr.ExitCode()}
	}
	return err
}
