package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
)

const chromeImage = "browserless/chrome:latest"

// Container is a Docker-hosted Chrome the run attaches to over CDP. Useful
// when no local Chrome install exists or the wipe should run isolated from
// the user's desktop.
type Container struct {
	client     *client.Client
	id         string
	connectURL string
}

// StartContainer launches a browserless/chrome container with profileDir
// mounted as its user data directory and waits until its CDP endpoint
// answers.
func StartContainer(ctx context.Context, profileDir string) (*Container, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	c := &Container{client: cli}
	if err := c.ensureImage(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to ensure chrome image: %w", err)
	}

	runID := uuid.New().String()
	containerConfig := &container.Config{
		Image: chromeImage,
		Labels: map[string]string{
			"run-id":     runID,
			"managed-by": "chatwipe",
		},
		Env: []string{
			"CONNECTION_TIMEOUT=-1",
			"MAX_CONCURRENT_SESSIONS=1",
			"PREBOOT_CHROME=true",
			"KEEP_ALIVE=true",
		},
		ExposedPorts: nat.PortSet{
			"3000/tcp": struct{}{},
		},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			"3000/tcp": []nat.PortBinding{
				{HostIP: "0.0.0.0", HostPort: "0"},
			},
		},
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: profileDir,
				Target: "/data",
			},
		},
	}

	resp, err := cli.ContainerCreate(
		ctx,
		containerConfig,
		hostConfig,
		nil,
		nil,
		fmt.Sprintf("chatwipe-%s", runID[:8]),
	)
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	c.id = resp.ID

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		c.cleanup()
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	inspect, err := cli.ContainerInspect(ctx, resp.ID)
	if err != nil {
		c.cleanup()
		return nil, fmt.Errorf("failed to inspect container: %w", err)
	}

	bindings := inspect.NetworkSettings.Ports["3000/tcp"]
	if len(bindings) == 0 {
		c.cleanup()
		return nil, fmt.Errorf("container exposed no CDP port")
	}
	port := bindings[0].HostPort

	if err := waitForBrowserReady(ctx, port); err != nil {
		c.cleanup()
		return nil, fmt.Errorf("browser failed to become ready: %w", err)
	}

	c.connectURL = fmt.Sprintf("ws://localhost:%s", port)
	return c, nil
}

// ConnectURL returns the container's CDP websocket URL.
func (c *Container) ConnectURL() string {
	return c.connectURL
}

// Stop stops and removes the container and closes the docker client.
func (c *Container) Stop(ctx context.Context) error {
	defer c.client.Close()

	timeout := 10
	if err := c.client.ContainerStop(ctx, c.id, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	if err := c.client.ContainerRemove(ctx, c.id, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// cleanup is the failure path: best-effort removal, then client close.
func (c *Container) cleanup() {
	if c.id != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = c.client.ContainerRemove(ctx, c.id, container.RemoveOptions{Force: true})
	}
	c.client.Close()
}

func (c *Container) ensureImage(ctx context.Context) error {
	images, err := c.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return err
	}
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == chromeImage {
				return nil
			}
		}
	}

	reader, err := c.client.ImagePull(ctx, chromeImage, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	_, err = io.Copy(io.Discard, reader)
	return err
}

// waitForBrowserReady polls the container's /json/version endpoint until it
// answers 200.
func waitForBrowserReady(ctx context.Context, port string) error {
	url := fmt.Sprintf("http://localhost:%s/json/version", port)
	const maxRetries = 20

	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				// Give the websocket a moment to come up behind the
				// HTTP endpoint.
				time.Sleep(500 * time.Millisecond)
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return fmt.Errorf("browser did not become ready after %d retries", maxRetries)
}
