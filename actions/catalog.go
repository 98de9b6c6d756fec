package actions

import (
	"fmt"
	"strings"
	"time"
	"webup/standby/domain"
	"webup/standby/utils"

	"github.com/fatih/color"
)

// CollectVolumes enumerates the project's named volumes from the live
// container runtime, classified and ordered with the database volume
// first so the consistent snapshot happens before everything else.
func CollectVolumes(runner domain.Runner, project string, rules domain.VolumeRules) ([]domain.VolumeDescriptor, error) {

	names, err := utils.ProjectVolumes(runner, project)
	if err != nil {
		return nil, err
	}

	var volumes []domain.VolumeDescriptor
	for _, name := range names {
		mountpoint, err := utils.VolumeMountpoint(runner, name)
		if err != nil {
			return nil, err
		}

		kind, tag := Classify(name, rules)
		descriptor := domain.VolumeDescriptor{Name: name, Kind: kind, Tag: tag, Mountpoint: mountpoint}

		if kind == domain.DatabaseVolume {
			volumes = append([]domain.VolumeDescriptor{descriptor}, volumes...)
		} else {
			volumes = append(volumes, descriptor)
		}
	}

	return volumes, nil
}

// Classify resolves a volume name into its closed kind, by the configured
// name substrings.
func Classify(name string, rules domain.VolumeRules) (domain.VolumeKind, string) {
	if strings.Contains(name, rules.Database) {
		return domain.DatabaseVolume, ""
	}
	if strings.Contains(name, rules.Filter) {
		return domain.AppSpecificVolume, "filter"
	}
	if strings.Contains(name, rules.Cache) {
		return domain.AppSpecificVolume, "cache"
	}
	return domain.GenericVolume, ""
}

// BackupStrategy prepares one volume's contents for transfer. Stage
// returns the directory to transfer, whether the volume is skipped
// entirely, and a cleanup for any staging state it created.
type BackupStrategy interface {
	Stage(rc *domain.RunContext, vol domain.VolumeDescriptor, report *RunReport) (src string, skip bool, cleanup func(), err error)
}

// StrategyFor is the closed kind → strategy dispatch.
func StrategyFor(vol domain.VolumeDescriptor, runner domain.Runner) BackupStrategy {
	switch vol.Kind {
	case domain.DatabaseVolume:
		return databaseStrategy{engine: SnapshotEngine{Runner: runner}}
	case domain.AppSpecificVolume:
		if vol.Tag == "filter" {
			return filterStrategy{}
		}
		return cacheStrategy{runner: runner}
	}
	return genericStrategy{}
}

// short pause after an architecture skip so the warning is seen on
// interactive runs; tests zero it
var archSkipPause = 3 * time.Second

func noCleanup() {}

// genericStrategy hands the live mountpoint over as-is.
type genericStrategy struct{}

func (genericStrategy) Stage(rc *domain.RunContext, vol domain.VolumeDescriptor, report *RunReport) (string, bool, func(), error) {
	return vol.Mountpoint, false, noCleanup, nil
}

// filterStrategy gates the content filter's volume on architecture
// equality: its contents are compiled for the local CPU and the standby
// regenerates them itself.
type filterStrategy struct{}

func (filterStrategy) Stage(rc *domain.RunContext, vol domain.VolumeDescriptor, report *RunReport) (string, bool, func(), error) {
	if !rc.ArchMatch() {
		fmt.Printf(" %s skipping '%s': local architecture is %s but the standby is %s\n",
			color.YellowString("⚠"), vol.Name, rc.LocalArch, rc.RemoteArch)
		time.Sleep(archSkipPause)
		return "", true, noCleanup, nil
	}
	return vol.Mountpoint, false, noCleanup, nil
}

// cacheStrategy asks the in-memory cache service to persist its state
// before its volume is copied. A failed save degrades the run but the
// on-disk state still transfers.
type cacheStrategy struct {
	runner domain.Runner
}

func (s cacheStrategy) Stage(rc *domain.RunContext, vol domain.VolumeDescriptor, report *RunReport) (string, bool, func(), error) {

	containerID, err := utils.ContainerID(s.runner, fmt.Sprintf("%s[-_]redis", rc.Project))
	if err == nil && containerID != "" {
		args := []string{"docker", "exec", "-i", containerID, "redis-cli"}
		if rc.RedisPass != "" {
			args = append(args, "-a", rc.RedisPass, "--no-auth-warning")
		}
		args = append(args, "save")
		err = s.runner.Run(domain.NewCommand(args))
	}

	if err != nil || containerID == "" {
		warning := fmt.Sprintf("unable to save the cache state before transferring '%s'", vol.Name)
		fmt.Printf(" %s %s\n", color.YellowString("⚠"), warning)
		report.Warnings = append(report.Warnings, warning)
	}

	return vol.Mountpoint, false, noCleanup, nil
}

// databaseStrategy stages a consistent snapshot instead of the live
// mountpoint; the raw database files are never copied while the engine
// writes to them.
type databaseStrategy struct {
	engine SnapshotEngine
}

func (s databaseStrategy) Stage(rc *domain.RunContext, vol domain.VolumeDescriptor, report *RunReport) (string, bool, func(), error) {
	staging, cleanup, err := s.engine.Capture(rc, vol)
	if err != nil {
		return "", false, noCleanup, err
	}
	return staging, false, cleanup, nil
}
