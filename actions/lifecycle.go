package actions

import (
	"fmt"
	"path"
	"webup/standby/domain"
	"webup/standby/remote"
)

// LifecycleController brings the standby's container runtime into a state
// where it can run the replicated stack. It never starts the application:
// a cold standby is activated by separate tooling.
type LifecycleController struct {
	Remote   remote.Executor
	Transfer TransferEngine
}

// SyncBaseDirectory mirrors the compose project directory to the identical
// path on the standby, so the manifest and its config land before any
// container exists to reference them.
func (l LifecycleController) SyncBaseDirectory(rc *domain.RunContext, report *RunReport) error {
	if err := l.Transfer.prepareDestination(rc.BaseDir); err != nil {
		return err
	}
	return l.Transfer.Mirror(rc.BaseDir, rc.BaseDir, report)
}

// ProvisionStack creates the remote containers and networks without
// starting them, so the named volumes referenced by the manifest exist
// before the volume transfers target them.
func (l LifecycleController) ProvisionStack(rc *domain.RunContext) error {
	args := rc.Flavor.Args(rc.BaseDir, "create")
	if err := l.Remote.Run(args...); err != nil {
		return fmt.Errorf("unable to provision the remote stack: %s", err)
	}
	return nil
}

// RestartDaemon restarts the remote container runtime so it discovers the
// newly populated volumes. Mandatory: without it the standby cannot see
// the replicated data.
func (l LifecycleController) RestartDaemon() error {
	if err := l.Remote.RunElevated("systemctl", "restart", "docker"); err != nil {
		return fmt.Errorf("unable to restart the remote container runtime: %s", err)
	}
	return nil
}

// PullImages refreshes the remote images. The standby can still start on
// cached images, so callers treat a failure as a warning.
func (l LifecycleController) PullImages(rc *domain.RunContext) error {
	args := rc.Flavor.Args(rc.BaseDir, "pull", "--quiet")
	if err := l.Remote.Run(args...); err != nil {
		return fmt.Errorf("unable to pull the remote images: %s", err)
	}
	return nil
}

// RunUpdate invokes the stack's own update/cleanup procedure, forced and
// with garbage collection. Its behavior belongs to the application.
func (l LifecycleController) RunUpdate(rc *domain.RunContext) error {
	script := path.Join(rc.BaseDir, rc.UpdateScript)
	if err := l.Remote.RunElevated(script, "--gc", "--force"); err != nil {
		return fmt.Errorf("the remote update procedure failed: %s", err)
	}
	return nil
}
