package actions

import (
	"fmt"
	"webup/standby/domain"
	"webup/standby/remote"

	"github.com/fatih/color"
)

// RunReport is what one replication pass can say about itself beyond
// success/failure: volumes moved, volumes deliberately skipped, and
// everything that degraded the result without aborting it.
type RunReport struct {
	Transferred []string
	Skipped     []string
	Warnings    []string
}

// Degraded reports whether the standby may be stale or incomplete even
// though the run finished: skipped volumes or failed non-critical stages.
func (r RunReport) Degraded() bool {
	return len(r.Skipped) > 0 || len(r.Warnings) > 0
}

// stage is one step of the replication pipeline. The fatal flag is the
// whole failure policy: a fatal stage aborts the run, anything else
// degrades it.
type stage struct {
	name  string
	fatal bool
	run   func() error
}

// ReplicateActionHandler handles 'standby replicate': one full, discrete,
// idempotent replication pass to the standby host.
func ReplicateActionHandler(conf domain.Config, runner domain.Runner) (RunReport, error) {

	report := RunReport{}

	rexec := remote.Executor{Target: conf.Target, Runner: runner}
	engine := TransferEngine{Runner: runner, Remote: rexec, Mode: conf.Mode}
	lifecycle := LifecycleController{Remote: rexec, Transfer: engine}

	// resolved by the probe stage, read by everything after it
	var rc *domain.RunContext

	stages := []stage{
		{"environment validation", true, func() error {
			return ValidateEnvironment(conf.Target, conf.Mode, runner, rexec)
		}},
		{"capability probe", true, func() error {
			flavor, err := ProbeCompose(rexec)
			if err != nil {
				return err
			}
			localArch, remoteArch, err := ProbeArchitectures(runner, rexec)
			if err != nil {
				return err
			}
			rc = &domain.RunContext{
				Project:      conf.Project,
				BaseDir:      conf.BaseDir,
				Target:       conf.Target,
				Mode:         conf.Mode,
				Flavor:       flavor,
				LocalArch:    localArch,
				RemoteArch:   remoteArch,
				DBRoot:       conf.DBRoot,
				RedisPass:    conf.RedisPass,
				Database:     conf.Database,
				Rules:        conf.Rules,
				UpdateScript: conf.UpdateScript,
			}
			return nil
		}},
		{"base directory sync", true, func() error {
			return lifecycle.SyncBaseDirectory(rc, &report)
		}},
		{"remote stack provisioning", false, func() error {
			return lifecycle.ProvisionStack(rc)
		}},
		{"volume replication", true, func() error {
			return replicateVolumes(rc, runner, engine, &report)
		}},
		{"remote daemon restart", true, func() error {
			return lifecycle.RestartDaemon()
		}},
		{"image pull", false, func() error {
			return lifecycle.PullImages(rc)
		}},
		{"remote update", false, func() error {
			return lifecycle.RunUpdate(rc)
		}},
	}

	for _, s := range stages {
		fmt.Printf("\n %s %s...\n", color.YellowString("▶"), s.name)

		err := s.run()
		if err == nil {
			continue
		}

		if s.fatal {
			return report, fmt.Errorf("%s failed: %s", s.name, err)
		}

		warning := fmt.Sprintf("%s failed: %s", s.name, err)
		fmt.Printf(" %s %s\n", color.YellowString("⚠"), warning)
		report.Warnings = append(report.Warnings, warning)
	}

	return report, nil
}

// replicateVolumes processes the catalog strictly one volume at a time so
// an abort never leaves several volumes half-updated at once.
func replicateVolumes(rc *domain.RunContext, runner domain.Runner, engine TransferEngine, report *RunReport) error {

	volumes, err := CollectVolumes(runner, rc.Project, rc.Rules)
	if err != nil {
		return err
	}

	for _, vol := range volumes {
		strategy := StrategyFor(vol, runner)

		src, skip, cleanup, err := strategy.Stage(rc, vol, report)
		if err != nil {
			return fmt.Errorf("unable to stage '%s': %s", vol.Name, err)
		}
		if skip {
			report.Skipped = append(report.Skipped, vol.Name)
			continue
		}

		err = engine.Transfer(src, vol.Mountpoint, report)
		cleanup()
		if err != nil {
			return fmt.Errorf("unable to transfer '%s': %s", vol.Name, err)
		}

		report.Transferred = append(report.Transferred, vol.Name)
		fmt.Printf(" %s '%s' replicated\n", color.GreenString("✓"), vol.Name)
	}

	return nil
}
