package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// CleanupLabel marks containers created by tests.
const CleanupLabel = "folio-test"

// RequireDocker skips the test in short mode or when no Docker daemon
// answers. Containers carrying CleanupLabel are removed when the test ends.
func RequireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping docker test in short mode")
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("docker client unavailable: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		t.Skipf("docker is not running: %v", err)
	}

	t.Cleanup(func() {
		defer cli.Close()
		if err := removeLabeled(cli, CleanupLabel+"="+t.Name()); err != nil {
			t.Logf("container cleanup: %v", err)
		}
	})
}

// ContainerName returns a unique container name for t.
func ContainerName(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("folio-test-%s-%s", sanitizeName(t.Name()), randString(4))
}

// Labels returns the cleanup labels for containers started by the current
// test binary.
func Labels() map[string]string {
	return map[string]string{CleanupLabel: "true"}
}

// CleanupAllTestContainers removes every container carrying CleanupLabel.
func CleanupAllTestContainers() error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("failed to create docker client: %w", err)
	}
	defer cli.Close()
	return removeLabeled(cli, CleanupLabel)
}

func removeLabeled(cli *client.Client, label string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", label)),
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}
	for _, c := range containers {
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
			return fmt.Errorf("failed to remove container %s: %w", c.ID[:12], err)
		}
	}
	return nil
}

func randString(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// sanitizeName converts a test name to a valid container name component.
func sanitizeName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name) && len(out) < 30; i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		case c == '/' || c == '_' || c == '-':
			out = append(out, '-')
		}
	}
	return string(out)
}
