package helpers

import (
	"context"
	"testing"

	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/repository"
)

func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// CreateUser inserts a directory user and fails the test on error.
func CreateUser(t *testing.T, s repository.Store, email, name string, role domain.UserRole) *domain.User {
	t.Helper()

	u := &domain.User{Email: email, FullName: name, Role: role}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}
