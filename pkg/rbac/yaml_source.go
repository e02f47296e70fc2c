package rbac

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// roleFile is the on-disk layout:
//
//	roles:
//	  employee:
//	    permissions: [items.read]
//	    dashboard: /dashboard/employee
//	  stock_manager:
//	    permissions: ["items.*"]
//	    inherits: [employee]
type roleFile struct {
	Roles map[string]Role `yaml:"roles"`
}

type yamlRoleSource struct {
	path string
	data []byte
}

// NewYAMLRoleSource reads roles from a YAML file on every Load.
func NewYAMLRoleSource(path string) RoleSource {
	return &yamlRoleSource{path: path}
}

// NewYAMLRoleSourceFromBytes parses roles from an in-memory YAML document.
func NewYAMLRoleSourceFromBytes(data []byte) RoleSource {
	return &yamlRoleSource{data: bytes.Clone(data)}
}

func (s *yamlRoleSource) Load(context.Context) (map[string]Role, error) {
	data := s.data
	if s.path != "" {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return nil, errors.Join(ErrInvalidRoleFile, err)
		}
		data = b
	}

	var f roleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Join(ErrInvalidRoleFile, err)
	}
	if len(f.Roles) == 0 {
		return nil, errors.Join(ErrInvalidRoleFile, fmt.Errorf("no roles defined in %q", s.source()))
	}
	return f.Roles, nil
}

func (s *yamlRoleSource) source() string {
	if s.path != "" {
		return s.path
	}
	return "inline document"
}
