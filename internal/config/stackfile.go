package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StackFile is the subset of a compose file the harness reads.
type StackFile struct {
	Services map[string]StackService `yaml:"services"`
}

type StackService struct {
	Image         string `yaml:"image"`
	ContainerName string `yaml:"container_name"`
}

// ReadStackFile parses the compose file at path.
func ReadStackFile(path string) (*StackFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stack file: %w", err)
	}

	var stack StackFile
	if err := yaml.Unmarshal(data, &stack); err != nil {
		return nil, fmt.Errorf("parsing stack file %s: %w", path, err)
	}
	return &stack, nil
}

// ContainerName returns the explicit container_name of service, or "" when
// the service is unknown or compose picks the name itself.
func (s *StackFile) ContainerName(service string) string {
	if s == nil {
		return ""
	}
	return s.Services[service].ContainerName
}

// Image returns the image service runs, or "" when compose builds it or the
// service is unknown.
func (s *StackFile) Image(service string) string {
	if s == nil {
		return ""
	}
	return s.Services[service].Image
}

// HasService reports whether service is defined in the stack file.
func (s *StackFile) HasService(service string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Services[service]
	return ok
}
