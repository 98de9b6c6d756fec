package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"webup/standby/domain"

	"gopkg.in/yaml.v2"
)

const (
	defaultFilename = "standby.yml"

	defaultManifest     = ".env"
	defaultUpdateScript = "update.sh"
	defaultPort         = 22
	defaultDBImage      = "mariadb:10.5"
	defaultDBHost       = "mysql"
	defaultDBUID        = 999
	defaultDBGID        = 999

	defaultDatabaseRule = "mysql-vol-1"
	defaultFilterRule   = "rspamd-vol-1"
	defaultCacheRule    = "redis-vol-1"
)

var loadedConfig *domain.Config

// Check parses the config file and the deployment manifest once. Any later
// call returns the cached result.
func Check() error {

	if loadedConfig == nil {
		config, err := parseConfigFile(defaultFilename)
		if err != nil {
			return err
		}
		loadedConfig = &config
	}

	if _, err := os.Stat("docker-compose.yml"); os.IsNotExist(err) {
		fmt.Println("Unable to find a Docker Compose file in the current directory")
		return err
	}

	return nil
}

func Get() domain.Config {
	return *loadedConfig
}

func parseConfigFile(filename string) (domain.Config, error) {

	config := domain.Config{}

	configFile, err := ioutil.ReadFile(filename)
	if err != nil {
		fmt.Printf("Unable to find a config file '%s' in the current directory\n", filename)
		return config, err
	}

	var parsed spec
	err = yaml.Unmarshal(configFile, &parsed)
	if err != nil {
		fmt.Printf("Unable to parse the config file. Check '%s' syntax.\n", filename)
		fmt.Println(err)
		return config, err
	}

	baseDir, err := os.Getwd()
	if err != nil {
		return config, err
	}

	return buildConfig(parsed, baseDir)
}

func buildConfig(parsed spec, baseDir string) (domain.Config, error) {

	config := domain.Config{BaseDir: baseDir}

	// remote target, with env overrides for automation
	target := domain.RemoteTarget{
		Host:    override("STANDBY_REMOTE_HOST", parsed.Remote.Host),
		User:    override("STANDBY_REMOTE_USER", parsed.Remote.User),
		KeyPath: override("STANDBY_REMOTE_KEY", parsed.Remote.Key),
		Port:    defaultPort,
	}
	if parsed.Remote.Port != nil {
		target.Port = *parsed.Remote.Port
	}
	if env := os.Getenv("STANDBY_REMOTE_PORT"); env != "" {
		port, err := strconv.Atoi(env)
		if err != nil {
			return config, fmt.Errorf("STANDBY_REMOTE_PORT must be numeric, got '%s'", env)
		}
		target.Port = port
	}
	if target.Host == "" {
		return config, fmt.Errorf("no remote host configured")
	}
	if target.User == "" {
		return config, fmt.Errorf("no remote user configured")
	}
	config.Target = target

	// transfer mode
	mode, err := domain.ParseTransferMode(override("STANDBY_TRANSFER_MODE", parsed.Transfer.Mode))
	if err != nil {
		return config, err
	}
	config.Mode = mode

	// deployment manifest (externally owned)
	manifestPath := parsed.Manifest
	if manifestPath == "" {
		manifestPath = defaultManifest
	}
	manifest, err := ParseManifest(manifestPath)
	if err != nil {
		return config, err
	}

	project := domain.SanitizeProjectName(manifest["COMPOSE_PROJECT_NAME"])
	if project == "" {
		return config, fmt.Errorf("the manifest '%s' does not define COMPOSE_PROJECT_NAME", manifestPath)
	}
	config.Project = project
	config.DBRoot = manifest["DBROOT"]
	config.RedisPass = manifest["REDISPASS"]

	// database snapshot settings
	db := domain.DatabaseConfig{
		Image:   parsed.Database.Image,
		Host:    parsed.Database.Host,
		Network: parsed.Database.Network,
		UID:     defaultDBUID,
		GID:     defaultDBGID,
	}
	if db.Image == "" {
		db.Image = defaultDBImage
	}
	if db.Host == "" {
		db.Host = defaultDBHost
	}
	if parsed.Database.UID != nil {
		db.UID = *parsed.Database.UID
	}
	if parsed.Database.GID != nil {
		db.GID = *parsed.Database.GID
	}
	config.Database = db

	// volume classification rules
	rules := domain.VolumeRules{
		Database: parsed.Volumes.Database,
		Filter:   parsed.Volumes.Filter,
		Cache:    parsed.Volumes.Cache,
	}
	if rules.Database == "" {
		rules.Database = defaultDatabaseRule
	}
	if rules.Filter == "" {
		rules.Filter = defaultFilterRule
	}
	if rules.Cache == "" {
		rules.Cache = defaultCacheRule
	}
	config.Rules = rules

	config.UpdateScript = parsed.UpdateScript
	if config.UpdateScript == "" {
		config.UpdateScript = defaultUpdateScript
	}

	return config, nil
}

func override(envKey string, value string) string {
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return value
}

// ParseManifest reads an env-format deployment manifest (KEY=VALUE lines,
// '#' comments, optional quoting). The manifest belongs to the application
// deployment; only a handful of keys are consumed here.
func ParseManifest(path string) (map[string]string, error) {

	content, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read the deployment manifest '%s': %s", path, err)
	}

	values := map[string]string{}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items := strings.SplitN(line, "=", 2)
		if len(items) != 2 {
			continue
		}
		key := strings.TrimSpace(items[0])
		value := strings.TrimSpace(items[1])
		value = strings.Trim(value, `"'`)
		values[key] = value
	}

	return values, nil
}
