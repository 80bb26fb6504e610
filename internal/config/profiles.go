package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tabletalk/tabletalk/internal/connector"
)

// Profile is a named connection definition from the profiles file, used by
// the CLI and MCP surfaces so credentials stay out of chat transcripts.
type Profile struct {
	Name     string `yaml:"name"`
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	File     string `yaml:"file"`
	Account  string `yaml:"account"`
	Service  string `yaml:"service"`
	Schema   string `yaml:"schema"`
}

// profilesFile is the top-level shape of the profiles YAML document.
type profilesFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// ConnectionConfig converts a profile to connector parameters.
func (p Profile) ConnectionConfig() connector.ConnectionConfig {
	return connector.ConnectionConfig{
		Driver:     p.Driver,
		Host:       p.Host,
		Port:       p.Port,
		User:       p.User,
		Password:   p.Password,
		Database:   p.Database,
		FilePath:   p.File,
		Account:    p.Account,
		Service:    p.Service,
		SchemaName: p.Schema,
	}
}

// LoadProfiles parses the profiles file at path.
func LoadProfiles(path string) ([]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	var doc profilesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse profiles file: %w", err)
	}

	seen := map[string]bool{}
	for _, p := range doc.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profiles file: profile without a name")
		}
		if p.Driver == "" {
			return nil, fmt.Errorf("profile %q: driver is required", p.Name)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("profiles file: duplicate profile %q", p.Name)
		}
		seen[p.Name] = true
	}
	return doc.Profiles, nil
}

// FindProfile returns the named profile from the file at path.
func FindProfile(path, name string) (Profile, error) {
	profiles, err := LoadProfiles(path)
	if err != nil {
		return Profile{}, err
	}
	for _, p := range profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("profile %q not found in %s", name, path)
}
