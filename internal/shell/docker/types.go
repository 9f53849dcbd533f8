// Package docker provides a Docker client for the container and image
// operations the deployment manager needs.
package docker

import (
	"time"
)

// =============================================================================
// Container Types
// =============================================================================

// ContainerStatus represents the container status.
type ContainerStatus string

const (
	ContainerStatusCreated    ContainerStatus = "created"
	ContainerStatusRunning    ContainerStatus = "running"
	ContainerStatusPaused     ContainerStatus = "paused"
	ContainerStatusRestarting ContainerStatus = "restarting"
	ContainerStatusRemoving   ContainerStatus = "removing"
	ContainerStatusExited     ContainerStatus = "exited"
	ContainerStatusDead       ContainerStatus = "dead"
)

// ContainerInfo contains information about a container.
type ContainerInfo struct {
	ID        string
	Name      string
	Image     string
	Status    ContainerStatus
	State     string // "running", "exited", "created", etc.
	CreatedAt time.Time
	Ports     []PortBinding
	Labels    map[string]string
	ExitCode  int
}

// PortBinding defines a port mapping.
type PortBinding struct {
	ContainerPort int
	HostPort      int    // 0 for auto-assign
	Protocol      string // "tcp" or "udp"
	HostIP        string // "" for 0.0.0.0
}

// =============================================================================
// Image Types
// =============================================================================

// ImageInfo contains information about a local image.
type ImageInfo struct {
	ID        string
	RepoTags  []string
	SizeBytes int64
	CreatedAt time.Time
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines options for listing containers.
type ListOptions struct {
	All     bool              // Include stopped containers
	Filters map[string]string // e.g., {"label": "com.docker.compose.project=eword"}
}

// RemoveOptions defines options for removing containers.
type RemoveOptions struct {
	Force         bool
	RemoveVolumes bool
}

// =============================================================================
// Label Constants
// =============================================================================

// Labels set by docker-compose on the containers it creates.
const (
	LabelComposeProject = "com.docker.compose.project"
	LabelComposeService = "com.docker.compose.service"
)

// =============================================================================
// Client Interface
// =============================================================================

// Client defines the Docker client interface.
type Client interface {
	// Container operations
	ListContainers(opts ListOptions) ([]ContainerInfo, error)
	InspectContainer(containerID string) (*ContainerInfo, error)
	StopContainer(containerID string, timeout *time.Duration) error
	RemoveContainer(containerID string, opts RemoveOptions) error

	// Image operations
	ImageExists(image string) (bool, error)
	LoadImage(archivePath string) error
	RemoveImage(image string, force bool) error
	ListImages() ([]ImageInfo, error)

	// Health operations
	Ping() error
	Close() error
}
