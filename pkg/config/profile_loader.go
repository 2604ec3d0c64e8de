package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/slotscribe/slotscribe/pkg/trace"
)

// ClusterProfile is a per-cluster deployment profile: which RPC endpoint to
// use, how hard to throttle it, and whether agents may anchor there.
type ClusterProfile struct {
	Name       string          `yaml:"name" json:"name"`
	Cluster    string          `yaml:"cluster" json:"cluster"`
	RPC        RPCConfig       `yaml:"rpc" json:"rpc"`
	Anchoring  AnchoringConfig `yaml:"anchoring" json:"anchoring"`
	Commitment string          `yaml:"commitment,omitempty" json:"commitment,omitempty"`
}

// RPCConfig controls the JSON-RPC endpoint and its client-side throttle.
type RPCConfig struct {
	URL              string  `yaml:"url" json:"url"`
	RequestsPerSec   float64 `yaml:"requests_per_sec,omitempty" json:"requests_per_sec,omitempty"`
	Burst            int     `yaml:"burst,omitempty" json:"burst,omitempty"`
	TimeoutSeconds   int     `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	FallbackEndpoint string  `yaml:"fallback_endpoint,omitempty" json:"fallback_endpoint,omitempty"`
}

// AnchoringConfig gates commitment submission per cluster.
type AnchoringConfig struct {
	Enabled             bool `yaml:"enabled" json:"enabled"`
	ConfirmTimeoutSecs  int  `yaml:"confirm_timeout_secs,omitempty" json:"confirm_timeout_secs,omitempty"`
	PollIntervalSeconds int  `yaml:"poll_interval_secs,omitempty" json:"poll_interval_secs,omitempty"`
}

// LoadProfile loads a cluster profile YAML by cluster name.
// It searches the profiles directory for profile_<cluster>.yaml.
func LoadProfile(profilesDir, cluster string) (*ClusterProfile, error) {
	cluster = strings.ToLower(cluster)
	if _, err := trace.ParseCluster(cluster); err != nil {
		return nil, err
	}
	path := filepath.Join(profilesDir, fmt.Sprintf("profile_%s.yaml", cluster))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", cluster, err)
	}

	var profile ClusterProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", cluster, err)
	}

	if profile.Cluster == "" {
		profile.Cluster = cluster
	}

	return &profile, nil
}

// LoadAllProfiles loads all profile_*.yaml files from the profiles directory.
func LoadAllProfiles(profilesDir string) (map[string]*ClusterProfile, error) {
	matches, err := filepath.Glob(filepath.Join(profilesDir, "profile_*.yaml"))
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*ClusterProfile, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var profile ClusterProfile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		if profile.Cluster == "" {
			// Extract cluster from filename: profile_devnet.yaml -> devnet
			base := filepath.Base(path)
			profile.Cluster = strings.TrimSuffix(strings.TrimPrefix(base, "profile_"), ".yaml")
		}

		profiles[profile.Cluster] = &profile
	}

	return profiles, nil
}

// RPCURL returns the profile's endpoint, or "" to fall back to the cluster
// default.
func (p *ClusterProfile) RPCURL() string {
	return p.RPC.URL
}
