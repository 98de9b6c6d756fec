package domain

import (
	"fmt"
	"strings"
)

// RemoteTarget identifies the standby host and the credentials used to
// reach it. Built once from configuration, immutable for the run.
type RemoteTarget struct {
	Host    string
	Port    int
	User    string
	KeyPath string
}

func (t RemoteTarget) Addr() string {
	return fmt.Sprintf("%s@%s", t.User, t.Host)
}

// ComposeFlavor is the orchestration tool available on the remote host.
type ComposeFlavor int

const (
	ComposeNone ComposeFlavor = iota
	ComposeNative
	ComposeStandalone
)

func (f ComposeFlavor) String() string {
	switch f {
	case ComposeNative:
		return "docker compose"
	case ComposeStandalone:
		return "docker-compose"
	}
	return "none"
}

// Args builds the orchestration command for the given project directory.
func (f ComposeFlavor) Args(projectDir string, args ...string) []string {
	var base []string
	switch f {
	case ComposeNative:
		base = []string{"docker", "compose", "--project-directory", projectDir}
	case ComposeStandalone:
		base = []string{"docker-compose", "--project-directory", projectDir}
	}
	return append(base, args...)
}

// TransferMode selects the transport used to move volume contents.
type TransferMode int

const (
	ModeArchive TransferMode = iota
	ModeSync
)

func (m TransferMode) String() string {
	if m == ModeSync {
		return "sync"
	}
	return "archive"
}

func ParseTransferMode(s string) (TransferMode, error) {
	switch s {
	case "archive":
		return ModeArchive, nil
	case "sync", "":
		return ModeSync, nil
	}
	return ModeSync, fmt.Errorf("unknown transfer mode '%s' (expected 'archive' or 'sync')", s)
}

// VolumeKind is the closed classification driving the backup strategy.
type VolumeKind int

const (
	GenericVolume VolumeKind = iota
	DatabaseVolume
	AppSpecificVolume
)

func (k VolumeKind) String() string {
	switch k {
	case DatabaseVolume:
		return "database"
	case AppSpecificVolume:
		return "app-specific"
	}
	return "generic"
}

// VolumeDescriptor is one named volume of the project as currently known
// to the local container runtime. Discovered fresh each run, never stored.
type VolumeDescriptor struct {
	Name       string
	Kind       VolumeKind
	Tag        string // set for AppSpecificVolume: "filter" or "cache"
	Mountpoint string
}

// DatabaseConfig describes how the consistent snapshot is taken.
type DatabaseConfig struct {
	Image   string // image providing the hot-backup tool
	Host    string // db service hostname on the compose network
	Network string // compose network name; empty means <project>_default
	UID     int    // ownership expected by the db engine on the standby
	GID     int
}

// VolumeRules holds the name substrings classifying project volumes.
type VolumeRules struct {
	Database string
	Filter   string
	Cache    string
}

// RunContext carries everything resolved before the pipeline starts:
// configuration, manifest values and probe results. It is built once and
// passed along; nothing mutates it afterwards.
type RunContext struct {
	Project      string
	BaseDir      string
	Target       RemoteTarget
	Mode         TransferMode
	Flavor       ComposeFlavor
	LocalArch    string
	RemoteArch   string
	DBRoot       string
	RedisPass    string
	Database     DatabaseConfig
	Rules        VolumeRules
	UpdateScript string
}

func (rc *RunContext) ArchMatch() bool {
	return rc.LocalArch == rc.RemoteArch
}

func (rc *RunContext) DatabaseNetwork() string {
	if rc.Database.Network != "" {
		return rc.Database.Network
	}
	return rc.Project + "_default"
}

// SanitizeProjectName strips every character that is not safe to embed in
// name filters and remote command lines.
func SanitizeProjectName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
