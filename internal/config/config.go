// If you are AI: This file defines the configuration structure for
// synctv-core. It uses strict YAML decoding and explicit defaults.

package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete server configuration.
// All fields must have explicit defaults or be required.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Cluster ClusterConfig `yaml:"cluster"`
}

// ServerConfig defines HTTP/RTMP/RPC server listen ports.
type ServerConfig struct {
	HealthPort int `yaml:"health_port"` // Port for health/readiness endpoints
	HTTPPort   int `yaml:"http_port"`   // Port for HTTP-FLV, WS-FLV, API, chat
	RTMPPort   int `yaml:"rtmp_port"`   // Port for RTMP ingest
	RPCPort    int `yaml:"rpc_port"`    // Port for the inter-node gRPC relay
}

// ClusterConfig defines this node's identity and the shared-state backend
// every other node coordinates through.
type ClusterConfig struct {
	NodeID   string `yaml:"node_id,omitempty"`   // Defaults to a generated identity
	RPCAddr  string `yaml:"rpc_addr,omitempty"`  // Advertised host:port for the relay RPC; defaults from rpc_port
	RedisURL string `yaml:"redis_url,omitempty"` // e.g. redis://localhost:6379/0; empty means single-node in-memory mode

	RegistryTTL       time.Duration `yaml:"registry_ttl,omitempty"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval,omitempty"`

	GopMaxCount     int `yaml:"gop_max_count,omitempty"`
	GopMaxCacheBytes int `yaml:"gop_max_cache_bytes,omitempty"`

	HubQueueDepth int           `yaml:"hub_queue_depth,omitempty"`
	DedupWindow   time.Duration `yaml:"dedup_window,omitempty"`

	PullIdleTimeout time.Duration `yaml:"pull_idle_timeout,omitempty"`

	ChatRateLimitPerSec float64 `yaml:"chat_rate_limit_per_sec,omitempty"`
	ChatRateLimitBurst  float64 `yaml:"chat_rate_limit_burst,omitempty"`

	L1CacheCapacity int           `yaml:"l1_cache_capacity,omitempty"`
	L2CacheTTL      time.Duration `yaml:"l2_cache_ttl,omitempty"`
}

// Load reads configuration from a YAML file.
// Returns an error if the file cannot be read or decoded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields

	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// setDefaults applies explicit default values to unset fields.
func (c *Config) setDefaults() {
	if c.Server.HealthPort == 0 {
		c.Server.HealthPort = 8080
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8081
	}
	if c.Server.RTMPPort == 0 {
		c.Server.RTMPPort = 1935
	}
	if c.Server.RPCPort == 0 {
		c.Server.RPCPort = 9090
	}

	if c.Cluster.RegistryTTL == 0 {
		c.Cluster.RegistryTTL = 300 * time.Second
	}
	if c.Cluster.HeartbeatInterval == 0 {
		c.Cluster.HeartbeatInterval = 60 * time.Second
	}
	if c.Cluster.GopMaxCount == 0 {
		c.Cluster.GopMaxCount = 3
	}
	if c.Cluster.GopMaxCacheBytes == 0 {
		c.Cluster.GopMaxCacheBytes = 16 * 1024 * 1024
	}
	if c.Cluster.HubQueueDepth == 0 {
		c.Cluster.HubQueueDepth = 1000
	}
	if c.Cluster.DedupWindow == 0 {
		c.Cluster.DedupWindow = 30 * time.Second
	}
	if c.Cluster.PullIdleTimeout == 0 {
		c.Cluster.PullIdleTimeout = 300 * time.Second
	}
	if c.Cluster.ChatRateLimitPerSec == 0 {
		c.Cluster.ChatRateLimitPerSec = 5
	}
	if c.Cluster.ChatRateLimitBurst == 0 {
		c.Cluster.ChatRateLimitBurst = 10
	}
	if c.Cluster.L1CacheCapacity == 0 {
		c.Cluster.L1CacheCapacity = 10000
	}
	if c.Cluster.L2CacheTTL == 0 {
		c.Cluster.L2CacheTTL = 5 * time.Minute
	}
}
