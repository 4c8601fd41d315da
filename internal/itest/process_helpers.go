// If you are AI: This file provides helper functions for starting and managing server processes in tests.

package itest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// StartServer starts the synctv-core server as a subprocess on a free port.
// Returns the process, the port it's listening on, and any error.
func StartServer(ctx context.Context, configPath string) (*exec.Cmd, int, error) {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return nil, 0, fmt.Errorf("find free port: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	binPath, err := findBinary()
	if err != nil {
		return nil, 0, fmt.Errorf("find binary: %w", err)
	}

	tempConfig, err := createTempConfig(configPath, port)
	if err != nil {
		return nil, 0, fmt.Errorf("create temp config: %w", err)
	}

	cmd := exec.CommandContext(ctx, binPath, "--config", tempConfig)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, 0, fmt.Errorf("start server: %w", err)
	}

	return cmd, port, nil
}

// WaitForHealth waits for the health endpoint to become available.
// Returns an error if the endpoint is not available within the timeout.
func WaitForHealth(port int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("http://localhost:%d/healthz", port)

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("health endpoint not available after %v", timeout)
}

// findBinary locates the synctv-core binary in the project directory.
func findBinary() (string, error) {
	candidates := []string{
		"bin/synctv-core",
		"synctv-core",
		filepath.Join(os.Getenv("GOPATH"), "bin", "synctv-core"),
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("synctv-core binary not found")
}

// createTempConfig creates a temporary config file with the specified port.
func createTempConfig(baseConfigPath string, port int) (string, error) {
	data, err := os.ReadFile(baseConfigPath)
	if err != nil {
		return "", fmt.Errorf("read base config: %w", err)
	}

	tmpFile, err := os.CreateTemp("", "synctv-core-test-*.yaml")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer tmpFile.Close()

	// NOTE: naive append rather than a full YAML merge: it adds a second
	// top-level server section. The config loader rejects a duplicated
	// mapping key, so the result loads only if the base config has no
	// server section of its own.
	configContent := string(data)
	configContent = fmt.Sprintf("%s\nserver:\n  health_port: %d\n", configContent, port)

	if _, err := tmpFile.WriteString(configContent); err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("write temp config: %w", err)
	}

	return tmpFile.Name(), nil
}

// findFreePort finds a free TCP port.
func findFreePort(t *testing.T) int {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	return port
}

// buildBinary builds the synctv-core binary into dir and returns its path.
func buildBinary(dir string) (string, error) {
	binPath := filepath.Join(dir, "synctv-core")
	cmd := exec.Command("go", "build", "-o", binPath, "../../cmd/synctv-core")
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("build binary: %w\n%s", err, out)
	}
	return binPath, nil
}

// writeConfig writes a minimal server-section config with the given ports,
// including the rpc_port and a unique node_id/rpc_addr pair so multiple
// instances in the same test binary never collide on the relay fabric.
func writeConfig(path string, healthPort, httpPort, rtmpPort, rpcPort int, nodeID string) error {
	content := fmt.Sprintf(`server:
  health_port: %d
  http_port: %d
  rtmp_port: %d
  rpc_port: %d
cluster:
  node_id: %s
  rpc_addr: 127.0.0.1:%d
`, healthPort, httpPort, rtmpPort, rpcPort, nodeID, rpcPort)
	return os.WriteFile(path, []byte(content), 0644)
}
