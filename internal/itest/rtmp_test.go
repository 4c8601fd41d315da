// If you are AI: This file contains integration tests for RTMP ingest.
// Tests verify that RTMP publishers can connect and publish media into the
// stream registry under the room/media key convention.

package itest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestRTMPPublish(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available, skipping RTMP publish test")
	}

	binPath, err := buildBinary(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to build binary: %v", err)
	}

	healthPort := findFreePort(t)
	httpPort := findFreePort(t)
	rtmpPort := findFreePort(t)
	rpcPort := findFreePort(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := writeConfig(configPath, healthPort, httpPort, rtmpPort, rpcPort, "itest-rtmp"); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, binPath, "--config", configPath)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer func() {
		cmd.Process.Signal(syscall.SIGINT)
		cmd.Wait()
	}()

	if err := WaitForHealth(healthPort, 5*time.Second); err != nil {
		t.Fatalf("Health endpoint not available: %v", err)
	}
	time.Sleep(500 * time.Millisecond)

	testVideoPath := filepath.Join(t.TempDir(), "test.mp4")
	createVideoCmd := exec.Command("ffmpeg",
		"-f", "lavfi",
		"-i", "testsrc=duration=1:size=320x240:rate=1",
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-t", "1",
		"-y",
		testVideoPath,
	)
	createVideoCmd.Stderr = os.Stderr
	if err := createVideoCmd.Run(); err != nil {
		t.Skipf("Failed to create test video (ffmpeg may not support lavfi): %v", err)
	}

	// ffmpeg splits the RTMP URL path at the first "/" into app and stream
	// key; everything after that first slash, including further slashes,
	// becomes the publish command's stream name argument. So "live" is the
	// (unused) app and "room1/media1" arrives intact as the room/media key.
	rtmpURL := rtmpURLFor(rtmpPort, "room1", "media1")
	publishCmd := exec.Command("ffmpeg",
		"-re",
		"-i", testVideoPath,
		"-c", "copy",
		"-f", "flv",
		rtmpURL,
	)
	publishCmd.Stderr = os.Stderr

	publishErrChan := make(chan error, 1)
	go func() {
		publishErrChan <- publishCmd.Run()
	}()

	time.Sleep(2 * time.Second)

	select {
	case err := <-publishErrChan:
		if err != nil {
			t.Logf("Publish command exited: %v", err)
		}
	default:
		time.Sleep(1 * time.Second)
		publishCmd.Process.Signal(syscall.SIGTERM)
		<-publishErrChan
	}
}

// rtmpURLFor builds an RTMP publish URL whose stream name is the
// room/media key the server expects.
func rtmpURLFor(port int, room, media string) string {
	return fmt.Sprintf("rtmp://localhost:%d/live/%s/%s", port, room, media)
}
