package defra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

const (
	DefaultImage         = "sourcenetwork/defradb:latest"
	DefaultContainerName = "folio-defra"
	DefaultPort          = "9181"
	DefaultReadyTimeout  = 30 * time.Second
	ContainerPort        = "9181/tcp"
	DataDir              = "/data"
	Label                = "folio.defra"
)

// ErrContainerNotFound is returned by operations that need an existing container.
var ErrContainerNotFound = errors.New("defra container not found")

// ContainerStatus is the state of the DefraDB container.
type ContainerStatus string

const (
	StatusRunning  ContainerStatus = "running"
	StatusStopped  ContainerStatus = "stopped"
	StatusNotFound ContainerStatus = "not_found"
	StatusStarting ContainerStatus = "starting"
)

// DockerConfig configures a DockerManager.
type DockerConfig struct {
	ContainerName string
	Image         string
	// DataPath is the host directory mounted at /data (<home>/data/defra).
	DataPath     string
	HostPort     string
	ReadyTimeout time.Duration
	// Labels are added to the container; tests use them for cleanup.
	Labels map[string]string
}

func (c *DockerConfig) applyDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = DefaultContainerName
	}
	if c.Image == "" {
		c.Image = DefaultImage
	}
	if c.HostPort == "" {
		c.HostPort = DefaultPort
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = DefaultReadyTimeout
	}
}

// DockerManager runs DefraDB in a local Docker container.
type DockerManager struct {
	cli    *client.Client
	cfg    DockerConfig
	labels map[string]string
}

// NewDockerManager connects to the Docker daemon from the environment.
func NewDockerManager(cfg DockerConfig) (*DockerManager, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	cfg.applyDefaults()

	labels := map[string]string{Label: "true"}
	maps.Copy(labels, cfg.Labels)

	return &DockerManager{cli: cli, cfg: cfg, labels: labels}, nil
}

// Close closes the Docker client.
func (m *DockerManager) Close() error {
	return m.cli.Close()
}

// URL returns the DefraDB API URL on the host.
func (m *DockerManager) URL() string {
	return "http://localhost:" + m.cfg.HostPort
}

// ContainerName returns the managed container's name.
func (m *DockerManager) ContainerName() string {
	return m.cfg.ContainerName
}

// Start starts the container, creating it first if needed, and waits until
// the node answers health checks. Starting a running container is a no-op.
func (m *DockerManager) Start(ctx context.Context) error {
	if _, err := m.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker is not running: %w", err)
	}

	status, id, err := m.inspect(ctx)
	if err != nil {
		return err
	}
	switch status {
	case StatusRunning:
		return nil
	case StatusStopped:
		if err := m.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
			return fmt.Errorf("failed to start existing container: %w", err)
		}
	case StatusNotFound:
		if err := m.create(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("container in unexpected state: %s", status)
	}
	return m.WaitReady(ctx)
}

// Stop stops the container if it exists.
func (m *DockerManager) Stop(ctx context.Context) error {
	status, id, err := m.inspect(ctx)
	if err != nil || status == StatusNotFound {
		return err
	}
	timeout := 10
	if err := m.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}

// Remove force-removes the container and its anonymous volumes. Data under
// DataPath is kept.
func (m *DockerManager) Remove(ctx context.Context) error {
	status, id, err := m.inspect(ctx)
	if err != nil || status == StatusNotFound {
		return err
	}
	if err := m.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// Status returns the container's state.
func (m *DockerManager) Status(ctx context.Context) (ContainerStatus, error) {
	status, _, err := m.inspect(ctx)
	return status, err
}

// Logs returns the last tail lines of container output.
func (m *DockerManager) Logs(ctx context.Context, tail string) (string, error) {
	status, id, err := m.inspect(ctx)
	if err != nil {
		return "", err
	}
	if status == StatusNotFound {
		return "", ErrContainerNotFound
	}

	logs, err := m.cli.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true, Tail: tail})
	if err != nil {
		return "", fmt.Errorf("failed to get logs: %w", err)
	}
	defer logs.Close()

	out, err := io.ReadAll(logs)
	if err != nil {
		return "", fmt.Errorf("failed to read logs: %w", err)
	}
	return string(out), nil
}

// WaitReady polls the health endpoint once a second until it answers or
// the ready timeout passes.
func (m *DockerManager) WaitReady(ctx context.Context) error {
	return WaitHealthy(ctx, NewClient(m.URL()), m.cfg.ReadyTimeout)
}

// WaitHealthy polls c's health check once a second for up to timeout.
func WaitHealthy(ctx context.Context, c *Client, timeout time.Duration) error {
	attempts := max(uint(timeout/time.Second), 1)
	return retry.Do(
		func() error { return c.HealthCheck(ctx) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

func (m *DockerManager) create(ctx context.Context) error {
	if err := m.ensureImage(ctx); err != nil {
		return err
	}

	cfg := &container.Config{
		Image: m.cfg.Image,
		Cmd: []string{
			"start",
			"--no-keyring",
			"--url", "0.0.0.0:9181",
			"--store", "badger",
			"--rootdir", DataDir,
		},
		Labels:       m.labels,
		ExposedPorts: nat.PortSet{ContainerPort: struct{}{}},
	}
	hostCfg := &container.HostConfig{
		PortBindings: nat.PortMap{
			ContainerPort: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: m.cfg.HostPort}},
		},
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
	}
	if m.cfg.DataPath != "" {
		hostCfg.Mounts = []mount.Mount{{Type: mount.TypeBind, Source: m.cfg.DataPath, Target: DataDir}}
	}

	resp, err := m.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, m.cfg.ContainerName)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = m.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return fmt.Errorf("failed to start container: %w", err)
	}
	return nil
}

func (m *DockerManager) inspect(ctx context.Context) (ContainerStatus, string, error) {
	args := filters.NewArgs(filters.Arg("name", "^/"+m.cfg.ContainerName+"$"))
	containers, err := m.cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return "", "", fmt.Errorf("failed to list containers: %w", err)
	}
	if len(containers) == 0 {
		return StatusNotFound, "", nil
	}
	return containerStatus(containers[0].State), containers[0].ID, nil
}

func containerStatus(state string) ContainerStatus {
	switch state {
	case "running":
		return StatusRunning
	case "exited", "dead":
		return StatusStopped
	case "created", "restarting":
		return StatusStarting
	default:
		return ContainerStatus(state)
	}
}

func (m *DockerManager) ensureImage(ctx context.Context) error {
	if _, err := m.cli.ImageInspect(ctx, m.cfg.Image); err == nil {
		return nil
	}
	reader, err := m.cli.ImagePull(ctx, m.cfg.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()
	_, err = io.Copy(io.Discard, reader)
	return err
}
