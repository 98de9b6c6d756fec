package config

type RemoteSpec struct {
	Host string `yaml:"host"`
	Port *int   `yaml:"port"`
	User string `yaml:"user"`
	Key  string `yaml:"key"`
}

type TransferSpec struct {
	Mode string `yaml:"mode"`
}

type DatabaseSpec struct {
	Image   string `yaml:"image"`
	Host    string `yaml:"host"`
	Network string `yaml:"network"`
	UID     *int   `yaml:"uid"`
	GID     *int   `yaml:"gid"`
}

type VolumesSpec struct {
	Database string `yaml:"database"`
	Filter   string `yaml:"filter"`
	Cache    string `yaml:"cache"`
}

type spec struct {
	Remote       RemoteSpec   `yaml:"remote"`
	Transfer     TransferSpec `yaml:"transfer"`
	Manifest     string       `yaml:"manifest"`
	UpdateScript string       `yaml:"update_script"`
	Database     DatabaseSpec `yaml:"database"`
	Volumes      VolumesSpec  `yaml:"volumes"`
}
