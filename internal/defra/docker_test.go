package defra

import (
	"context"
	"testing"
	"time"

	"github.com/jackzampolin/folio/internal/testutil"
)

func TestDockerConfig_Defaults(t *testing.T) {
	var cfg DockerConfig
	cfg.applyDefaults()

	if cfg.ContainerName != DefaultContainerName {
		t.Errorf("ContainerName = %q", cfg.ContainerName)
	}
	if cfg.Image != DefaultImage {
		t.Errorf("Image = %q", cfg.Image)
	}
	if cfg.HostPort != DefaultPort {
		t.Errorf("HostPort = %q", cfg.HostPort)
	}
	if cfg.ReadyTimeout != DefaultReadyTimeout {
		t.Errorf("ReadyTimeout = %v", cfg.ReadyTimeout)
	}
}

func TestContainerStatus(t *testing.T) {
	tests := map[string]ContainerStatus{
		"running":    StatusRunning,
		"exited":     StatusStopped,
		"dead":       StatusStopped,
		"created":    StatusStarting,
		"restarting": StatusStarting,
		"paused":     ContainerStatus("paused"),
	}
	for state, want := range tests {
		if got := containerStatus(state); got != want {
			t.Errorf("containerStatus(%q) = %q, want %q", state, got, want)
		}
	}
}

func TestDockerManager_Integration(t *testing.T) {
	testutil.RequireDocker(t)

	m, err := NewDockerManager(DockerConfig{
		ContainerName: testutil.ContainerName(t),
		HostPort:      testutil.FreePort(t),
		DataPath:      t.TempDir(),
		Labels:        testutil.Labels(),
	})
	if err != nil {
		t.Fatalf("NewDockerManager() error = %v", err)
	}
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	t.Cleanup(func() { _ = m.Remove(context.Background()) })

	if status, err := m.Status(ctx); err != nil || status != StatusNotFound {
		t.Fatalf("Status() = %q, %v before start", status, err)
	}
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if status, _ := m.Status(ctx); status != StatusRunning {
		t.Errorf("Status() = %q after start", status)
	}
	if err := m.Start(ctx); err != nil {
		t.Errorf("second Start() error = %v", err)
	}
	if err := NewClient(m.URL()).HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if status, _ := m.Status(ctx); status != StatusStopped {
		t.Errorf("Status() = %q after stop", status)
	}
}
