package utils

import (
	"fmt"
	"strings"
	"webup/standby/domain"
)

// ProjectVolumes lists the names of the volumes belonging to the project,
// as currently known to the local container runtime.
func ProjectVolumes(runner domain.Runner, project string) ([]string, error) {
	cmd := domain.NewCommand([]string{"docker", "volume", "ls", "-qf", fmt.Sprintf("name=^%s_", project)})
	output, err := runner.Output(cmd)
	if err != nil {
		return nil, fmt.Errorf("unable to list the project volumes: %s", err)
	}
	return splitLines(output), nil
}

// VolumeMountpoint resolves the host-side path backing a named volume.
func VolumeMountpoint(runner domain.Runner, volume string) (string, error) {
	cmd := domain.NewCommand([]string{"docker", "volume", "inspect", "--format", "{{ .Mountpoint }}", volume})
	mountpoint, err := runner.Output(cmd)
	if err != nil {
		return "", fmt.Errorf("unable to inspect the volume '%s': %s", volume, err)
	}
	return mountpoint, nil
}

// ProjectNetworks lists the networks belonging to the project.
func ProjectNetworks(runner domain.Runner, project string) ([]string, error) {
	cmd := domain.NewCommand([]string{"docker", "network", "ls", "--format", "{{ .Name }}", "-f", fmt.Sprintf("name=^%s_", project)})
	output, err := runner.Output(cmd)
	if err != nil {
		return nil, fmt.Errorf("unable to list the project networks: %s", err)
	}
	return splitLines(output), nil
}

// ContainerID returns the id of the first running container whose name
// matches the filter, or an empty string when none is running.
func ContainerID(runner domain.Runner, nameFilter string) (string, error) {
	cmd := domain.NewCommand([]string{"docker", "ps", "-qf", fmt.Sprintf("name=%s", nameFilter)})
	output, err := runner.Output(cmd)
	if err != nil {
		return "", err
	}
	lines := splitLines(output)
	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], nil
}

// LocalArch returns the machine-architecture identifier of this host.
func LocalArch(runner domain.Runner) (string, error) {
	return runner.Output(domain.NewCommand([]string{"uname", "-m"}))
}

func splitLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
