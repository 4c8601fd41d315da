// If you are AI: This file validates configuration values and returns descriptive errors.

package config

import (
	"fmt"
)

// Validate checks that all configuration values are within acceptable ranges.
// Returns an error describing the first validation failure found.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Cluster.Validate(); err != nil {
		return fmt.Errorf("cluster config: %w", err)
	}
	return nil
}

// Validate checks cluster configuration values.
func (c *ClusterConfig) Validate() error {
	if c.RegistryTTL <= 0 {
		return fmt.Errorf("registry_ttl must be positive, got %s", c.RegistryTTL)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive, got %s", c.HeartbeatInterval)
	}
	if c.HeartbeatInterval >= c.RegistryTTL {
		return fmt.Errorf("heartbeat_interval (%s) must be shorter than registry_ttl (%s)", c.HeartbeatInterval, c.RegistryTTL)
	}
	if c.GopMaxCount <= 0 {
		return fmt.Errorf("gop_max_count must be positive, got %d", c.GopMaxCount)
	}
	if c.GopMaxCacheBytes <= 0 {
		return fmt.Errorf("gop_max_cache_bytes must be positive, got %d", c.GopMaxCacheBytes)
	}
	if c.HubQueueDepth <= 0 {
		return fmt.Errorf("hub_queue_depth must be positive, got %d", c.HubQueueDepth)
	}
	if c.ChatRateLimitPerSec <= 0 {
		return fmt.Errorf("chat_rate_limit_per_sec must be positive, got %f", c.ChatRateLimitPerSec)
	}
	return nil
}

// Validate checks server configuration values.
func (s *ServerConfig) Validate() error {
	if s.HealthPort <= 0 || s.HealthPort > 65535 {
		return fmt.Errorf("health_port must be between 1 and 65535, got %d", s.HealthPort)
	}
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535, got %d", s.HTTPPort)
	}
	if s.RTMPPort <= 0 || s.RTMPPort > 65535 {
		return fmt.Errorf("rtmp_port must be between 1 and 65535, got %d", s.RTMPPort)
	}
	if s.RPCPort <= 0 || s.RPCPort > 65535 {
		return fmt.Errorf("rpc_port must be between 1 and 65535, got %d", s.RPCPort)
	}
	ports := map[string]int{"health_port": s.HealthPort, "http_port": s.HTTPPort, "rtmp_port": s.RTMPPort, "rpc_port": s.RPCPort}
	seen := make(map[int]string, len(ports))
	for name, port := range ports {
		if other, ok := seen[port]; ok {
			return fmt.Errorf("%s and %s must be different, both are %d", other, name, port)
		}
		seen[port] = name
	}
	return nil
}
