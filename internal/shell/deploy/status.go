package deploy

import (
	"os"

	"github.com/samber/lo"

	"github.com/cappuccino213/eWordDockerManager/internal/core/compose"
	"github.com/cappuccino213/eWordDockerManager/internal/shell/docker"
)

// =============================================================================
// Stack Status
// =============================================================================

// ServiceStatus joins a declared service with its live container state.
type ServiceStatus struct {
	Service   string
	Image     string
	Source    compose.ImageSource
	Container string // empty when no container exists
	State     string // empty when no container exists
}

// Status reads the compose file and reports, per declared service, the
// matching container (by compose labels) and its state.
func Status(cli docker.Client, composeFile, project string) ([]ServiceStatus, error) {
	content, err := os.ReadFile(composeFile)
	if err != nil {
		return nil, &PreconditionError{Check: "compose file " + composeFile, Err: ErrComposeFileMissing}
	}

	spec, err := compose.ParseComposeSpec(string(content))
	if err != nil {
		return nil, &PreconditionError{Check: "parse " + composeFile, Err: err}
	}

	containers, err := cli.ListContainers(docker.ListOptions{All: true})
	if err != nil {
		return nil, err
	}

	byService := lo.Associate(
		lo.Filter(containers, func(c docker.ContainerInfo, _ int) bool {
			if project != "" && c.Labels[docker.LabelComposeProject] != project {
				return false
			}
			return c.Labels[docker.LabelComposeService] != ""
		}),
		func(c docker.ContainerInfo) (string, docker.ContainerInfo) {
			return c.Labels[docker.LabelComposeService], c
		},
	)

	statuses := make([]ServiceStatus, 0, len(spec.Services))
	for _, svc := range spec.Services {
		status := ServiceStatus{
			Service: svc.Name,
			Image:   svc.Image,
		}
		if svc.Image != "" {
			if source, err := compose.ClassifyImageRef(svc.Image); err == nil {
				status.Source = source
			}
		}
		if c, ok := byService[svc.Name]; ok {
			status.Container = c.Name
			status.State = c.State
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}
