// If you are AI: This file contains integration tests for WebSocket-FLV output.
// Tests verify that clients can consume streams via WebSocket-FLV.

package itest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWSFLVPlayback(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available, skipping WebSocket-FLV test")
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
	if err := writeConfig(configPath, healthPort, httpPort, rtmpPort, rpcPort, "itest-wsflv"); err != nil {
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
		"-i", "testsrc=duration=2:size=320x240:rate=1",
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-t", "2",
		"-y",
		testVideoPath,
	)
	createVideoCmd.Stderr = os.Stderr
	if err := createVideoCmd.Run(); err != nil {
		t.Skipf("Failed to create test video (ffmpeg may not support lavfi): %v", err)
	}

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
			t.Skipf("RTMP publish failed (prerequisite for WebSocket-FLV test): %v", err)
		}
	default:
	}

	wsURL := fmt.Sprintf("ws://localhost:%d/ws/room1/media1", httpPort)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("Expected status 101, got %d", resp.StatusCode)
	}

	messageType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read first message: %v", err)
	}
	if messageType != websocket.BinaryMessage {
		t.Errorf("Expected binary message, got %d", messageType)
	}
	if len(data) < 9 {
		t.Error("Response too short for FLV header")
	}
	if !bytes.HasPrefix(data, []byte("FLV")) {
		t.Errorf("Response does not start with FLV signature, got: %v", data[:3])
	}

	for i := 0; i < 3; i++ {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.BinaryMessage {
			t.Errorf("Expected binary message, got %d", messageType)
		}
		if len(data) == 0 {
			t.Error("Received empty frame")
		}
	}

	publishCmd.Process.Signal(syscall.SIGTERM)
	<-publishErrChan
	conn.Close()
}
