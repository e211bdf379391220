package directory

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"sharedrive/internal/domain"
	"sharedrive/internal/domain/services"
)

// StaticDirectory resolves emails from a fixed table. It is meant for local
// development and tests.
//
// File format:
//
//	users:
//	  alice@example.com: auth0|alice
//	  bob@example.com: auth0|bob
type StaticDirectory struct {
	users map[string]string
}

type staticFile struct {
	Users map[string]string `yaml:"users"`
}

// NewStaticDirectory creates a directory from an email to user id map.
func NewStaticDirectory(users map[string]string) *StaticDirectory {
	d := &StaticDirectory{users: make(map[string]string, len(users))}
	for email, id := range users {
		d.users[strings.ToLower(email)] = id
	}
	return d
}

// LoadStaticDirectory reads a YAML user table.
func LoadStaticDirectory(path string) (*StaticDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory file: %w", err)
	}
	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse directory file: %w", err)
	}
	return NewStaticDirectory(f.Users), nil
}

// LookupUserIDByEmail returns the user id registered for email.
func (d *StaticDirectory) LookupUserIDByEmail(ctx context.Context, email string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.Upstream(dependency, err)
	}
	id, ok := d.users[strings.ToLower(email)]
	if !ok {
		return "", domain.ErrUserNotFound
	}
	return id, nil
}

var _ services.UserDirectory = (*StaticDirectory)(nil)
