package auth

import (
	"context"
	"testing"
	"time"

	"github.com/umtracker/platform/pkg/common/models"
)

const testSecret = "0123456789abcdef0123"

func TestIssueAndValidate(t *testing.T) {
	m, err := NewJWTManager(testSecret, "circuit-tracker", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := m.IssueToken(models.User{Username: "ops", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := m.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "ops" || claims.Role != models.RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	m, _ := NewJWTManager(testSecret, "circuit-tracker", time.Minute)
	issued := time.Now().Add(-time.Hour)
	m.nowFunc = func() time.Time { return issued }
	token, err := m.IssueToken(models.User{Username: "ops", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	m.nowFunc = time.Now
	if _, err := m.ValidateToken(context.Background(), token); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	issuer, _ := NewJWTManager(testSecret, "circuit-tracker", time.Hour)
	other, _ := NewJWTManager("another-secret-of-length", "circuit-tracker", time.Hour)

	token, _ := other.IssueToken(models.User{Username: "ops", Role: models.RoleAdmin})
	if _, err := issuer.ValidateToken(context.Background(), token); err == nil {
		t.Fatalf("token signed with another key accepted")
	}
	if _, err := issuer.ValidateToken(context.Background(), "not.a.token"); err == nil {
		t.Fatalf("garbage token accepted")
	}
}

func TestNewJWTManagerRequiresLongSecret(t *testing.T) {
	if _, err := NewJWTManager("short", "x", time.Hour); err == nil {
		t.Fatalf("short secret accepted")
	}
}
