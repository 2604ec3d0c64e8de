package config

import "os"

// Config holds server configuration.
type Config struct {
	Port           string
	LogLevel       string
	DataDir        string
	StorageType    string
	DefaultCluster string
	ProfilesDir    string
}

// Load loads configuration from environment variables.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	storageType := os.Getenv("TRACE_STORAGE_TYPE")
	if storageType == "" {
		storageType = "fs"
	}

	cluster := os.Getenv("DEFAULT_CLUSTER")
	if cluster == "" {
		cluster = "devnet"
	}

	return &Config{
		Port:           port,
		LogLevel:       logLevel,
		DataDir:        dataDir,
		StorageType:    storageType,
		DefaultCluster: cluster,
		ProfilesDir:    os.Getenv("CLUSTER_PROFILES_DIR"),
	}
}
