package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/umtracker/platform/pkg/identity"
)

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"migrate"}, {"export"}, {"user", "create"}, {"user", "set-password"}} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Fatalf("command %v not registered: %v", path, err)
		}
	}
}

func TestUserCreateRejectsUnknownRole(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"user", "create", "--username", "ops", "--password", "pw", "--role", "owner"})

	err := root.Execute()
	if !errors.Is(err, identity.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestUserCreateRequiresCredentials(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"user", "create", "--role", "admin"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "--username") {
		t.Fatalf("expected missing flag error, got %v", err)
	}
}
