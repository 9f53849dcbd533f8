package compose

import (
	"context"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"github.com/distribution/reference"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Parser Functions
// =============================================================================

// ParseComposeSpec parses docker-compose YAML into a ParsedSpec.
// This is a pure function - no I/O, no side effects.
// Input: raw YAML string
// Output: ParsedSpec struct or error
func ParseComposeSpec(yamlContent string) (*ParsedSpec, error) {
	// Input validation
	if strings.TrimSpace(yamlContent) == "" {
		return nil, ErrEmptyInput
	}

	// Parse using compose-go
	project, err := loadComposeSpec(yamlContent)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if len(project.Services) == 0 {
		return nil, ErrNoServices
	}

	// Convert to our types
	spec := &ParsedSpec{
		Services: make([]Service, 0, len(project.Services)),
		Networks: make([]Network, 0, len(project.Networks)),
		Volumes:  make([]Volume, 0, len(project.Volumes)),
	}

	// Convert services, preserving the declaration order of the YAML
	// document. compose-go hands services back as a map.
	order, err := ServiceOrder(yamlContent)
	if err != nil {
		return nil, err
	}
	for _, name := range order {
		svc, ok := project.Services[name]
		if !ok {
			continue
		}
		converted, err := convertService(svc)
		if err != nil {
			return nil, err
		}
		spec.Services = append(spec.Services, converted)
	}

	// Validate no circular dependencies
	if err := detectCircularDependencies(spec.Services); err != nil {
		return nil, err
	}

	// Validate ports
	if err := validatePorts(spec.Services); err != nil {
		return nil, err
	}

	// Convert networks
	for name, net := range project.Networks {
		spec.Networks = append(spec.Networks, Network{
			Name:     name,
			Driver:   net.Driver,
			External: bool(net.External),
			Labels:   net.Labels,
		})
	}

	// Convert volumes
	for name, vol := range project.Volumes {
		spec.Volumes = append(spec.Volumes, Volume{
			Name:     name,
			Driver:   vol.Driver,
			External: bool(vol.External),
			Labels:   vol.Labels,
		})
	}

	return spec, nil
}

// loadComposeSpec loads a compose spec using compose-go
func loadComposeSpec(yamlContent string) (*types.Project, error) {
	// Parse YAML into a map first
	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlContent), &dict); err != nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	// Check if it's a valid object
	if dict == nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	// Load the project
	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Content: []byte(yamlContent),
				Config:  dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("eworddm-temp", false)
		opts.SkipValidation = false
		opts.SkipInterpolation = false
		// Don't resolve paths since we're in-memory
		opts.SkipNormalization = true
		opts.SkipExtends = true // Don't try to load external files
	})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "dependency cycle detected") {
			return nil, NewParseError("", "circular dependency detected", ErrCircularDependency)
		}
		if strings.Contains(errStr, "image") && strings.Contains(errStr, "build") {
			return nil, NewParseError("", "service must have image or build", ErrServiceNoImage)
		}
		return nil, NewParseError("", errStr, ErrInvalidYAML)
	}

	return project, nil
}

// ServiceOrder returns the service names in the order they are declared
// in the YAML document. compose-go returns services as an unordered map,
// so the order has to be recovered from the document itself.
func ServiceOrder(yamlContent string) ([]string, error) {
	if strings.TrimSpace(yamlContent) == "" {
		return nil, ErrEmptyInput
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(yamlContent), &doc); err != nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}
	if len(doc.Content) == 0 {
		return nil, ErrEmptyInput
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, NewParseError("", "compose spec must be a mapping", ErrInvalidYAML)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "services" {
			continue
		}
		services := root.Content[i+1]
		if services.Kind != yaml.MappingNode {
			return nil, NewParseError("services", "services must be a mapping", ErrInvalidYAML)
		}
		names := make([]string, 0, len(services.Content)/2)
		for j := 0; j+1 < len(services.Content); j += 2 {
			names = append(names, services.Content[j].Value)
		}
		if len(names) == 0 {
			return nil, ErrNoServices
		}
		return names, nil
	}

	return nil, ErrNoServices
}

// convertService converts a compose-go service to our Service type
func convertService(svc types.ServiceConfig) (Service, error) {
	service := Service{
		Name:        svc.Name,
		Image:       svc.Image,
		Command:     svc.Command,
		Entrypoint:  svc.Entrypoint,
		Environment: make(map[string]string),
		Labels:      make(map[string]string),
		Networks:    make([]string, 0),
		DependsOn:   make([]string, 0),
	}

	// Validate image or build
	if service.Image == "" && svc.Build == nil {
		return Service{}, NewParseError("services."+svc.Name, "service must have image or build", ErrServiceNoImage)
	}

	// Ports
	for _, p := range svc.Ports {
		var published uint32
		if p.Published != "" {
			pub, err := strconv.ParseUint(p.Published, 10, 32)
			if err == nil {
				published = uint32(pub)
			}
		}
		service.Ports = append(service.Ports, Port{
			Target:    p.Target,
			Published: published,
			Protocol:  p.Protocol,
			HostIP:    p.HostIP,
		})
	}

	// Environment
	for k, v := range svc.Environment {
		if v != nil {
			service.Environment[k] = *v
		}
	}

	// Volumes
	for _, v := range svc.Volumes {
		mount := VolumeMount{
			Source:   v.Source,
			Target:   v.Target,
			ReadOnly: v.ReadOnly,
		}
		switch v.Type {
		case "bind":
			mount.Type = VolumeMountTypeBind
		case "volume":
			mount.Type = VolumeMountTypeVolume
		case "tmpfs":
			mount.Type = VolumeMountTypeTmpfs
		default:
			// Infer type from source
			if strings.HasPrefix(v.Source, "./") || strings.HasPrefix(v.Source, "/") || strings.HasPrefix(v.Source, "~") {
				mount.Type = VolumeMountTypeBind
			} else {
				mount.Type = VolumeMountTypeVolume
			}
		}
		service.Volumes = append(service.Volumes, mount)
	}

	// Networks
	for net := range svc.Networks {
		service.Networks = append(service.Networks, net)
	}

	// DependsOn
	for dep := range svc.DependsOn {
		service.DependsOn = append(service.DependsOn, dep)
	}

	// Restart policy
	service.Restart = RestartPolicy(svc.Restart)

	// Labels
	for k, v := range svc.Labels {
		service.Labels[k] = v
	}

	return service, nil
}

// detectCircularDependencies detects circular dependencies in service dependencies
func detectCircularDependencies(services []Service) error {
	// Build adjacency list
	deps := make(map[string][]string)
	for _, svc := range services {
		deps[svc.Name] = svc.DependsOn
	}

	// Track visited and recursion stack for DFS
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var hasCycle func(node string) bool
	hasCycle = func(node string) bool {
		visited[node] = true
		recStack[node] = true

		for _, dep := range deps[node] {
			// Self-reference
			if dep == node {
				return true
			}
			if !visited[dep] {
				if hasCycle(dep) {
					return true
				}
			} else if recStack[dep] {
				return true
			}
		}

		recStack[node] = false
		return false
	}

	for _, svc := range services {
		if !visited[svc.Name] {
			if hasCycle(svc.Name) {
				return ErrCircularDependency
			}
		}
	}

	return nil
}

// validatePorts validates all port configurations
func validatePorts(services []Service) error {
	for _, svc := range services {
		for i, port := range svc.Ports {
			if port.Target == 0 {
				return NewParseError(
					"services."+svc.Name+".ports["+strconv.Itoa(i)+"]",
					"target port cannot be 0",
					ErrServiceInvalidPort,
				)
			}
			if port.Target > 65535 {
				return NewParseError(
					"services."+svc.Name+".ports["+strconv.Itoa(i)+"]",
					"target port must be <= 65535",
					ErrServiceInvalidPort,
				)
			}
			if port.Published > 65535 {
				return NewParseError(
					"services."+svc.Name+".ports["+strconv.Itoa(i)+"]",
					"published port must be <= 65535",
					ErrServiceInvalidPort,
				)
			}
		}
	}
	return nil
}

// =============================================================================
// Image Reference Classification
// =============================================================================

// ClassifyImageRef decides whether a service image reference points at an
// explicit registry host or at a bare repository:tag expected to be
// satisfied from a local archive load.
func ClassifyImageRef(ref string) (ImageSource, error) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", NewParseError("image", err.Error(), ErrInvalidImageRef)
	}

	// ParseNormalizedNamed defaults bare names to docker.io; only treat the
	// reference as registry-hosted when the domain was written explicitly.
	domain := reference.Domain(named)
	if domain == "docker.io" && !strings.HasPrefix(ref, "docker.io/") && !strings.HasPrefix(ref, "index.docker.io/") {
		return ImageSourceArchive, nil
	}
	return ImageSourceRegistry, nil
}
