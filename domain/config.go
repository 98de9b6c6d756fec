package domain

// Config is the fully resolved configuration of one replication run:
// the tool's own settings merged with the values read from the
// externally-owned deployment manifest.
type Config struct {
	Target       RemoteTarget
	Mode         TransferMode
	Project      string
	BaseDir      string
	DBRoot       string
	RedisPass    string
	Database     DatabaseConfig
	Rules        VolumeRules
	UpdateScript string
}
