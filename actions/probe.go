package actions

import (
	"fmt"
	"strings"
	"webup/standby/domain"
	"webup/standby/remote"
	"webup/standby/utils"
)

// ProbeCompose resolves the orchestration tool flavor on the remote host,
// once per run. The native subcommand wins when both flavors are present;
// the standalone binary is only accepted on major version 2.
func ProbeCompose(rexec remote.Executor) (domain.ComposeFlavor, error) {

	if _, err := rexec.Output("docker", "compose", "version"); err == nil {
		return domain.ComposeNative, nil
	}

	version, err := rexec.Output("docker-compose", "version", "--short")
	if err == nil {
		version = strings.TrimPrefix(version, "v")
		if strings.HasPrefix(version, "2") {
			return domain.ComposeStandalone, nil
		}
		return domain.ComposeNone, fmt.Errorf("the remote docker-compose reports version '%s', major version 2 is required", version)
	}

	return domain.ComposeNone, fmt.Errorf("no usable orchestration tool found on the remote host")
}

// ProbeArchitectures queries the machine-architecture identifier on both
// sides. A mismatch is recorded, never an error: it only gates
// architecture-specific volumes later.
func ProbeArchitectures(runner domain.Runner, rexec remote.Executor) (string, string, error) {

	local, err := utils.LocalArch(runner)
	if err != nil {
		return "", "", fmt.Errorf("unable to resolve the local architecture: %s", err)
	}

	remoteArch, err := rexec.Output("uname", "-m")
	if err != nil {
		return "", "", fmt.Errorf("unable to resolve the remote architecture: %s", err)
	}

	return local, remoteArch, nil
}
