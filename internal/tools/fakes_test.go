package tools

import (
	"context"
	"sync"

	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/repository"
)

type fakeCalendar struct {
	mu     sync.Mutex
	link   string
	err    error
	events []domain.CalendarEvent
}

func (f *fakeCalendar) CreateEvent(_ context.Context, e domain.CalendarEvent) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.link, f.err
}

type fakeEmail struct {
	mu   sync.Mutex
	err  error
	sent []domain.Confirmation
}

func (f *fakeEmail) SendConfirmation(_ context.Context, c domain.Confirmation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return f.err
}

// directory exposes only the lookups the tools need, so the registry cannot
// grow a dependency on the rest of the store unnoticed.
type directory struct {
	store *repository.SQLiteStore
}

func (d directory) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return d.store.GetUserByID(ctx, id)
}

func (d directory) ListUsersByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	return d.store.ListUsersByRole(ctx, role)
}

func (d directory) FindDoctorByName(ctx context.Context, name string) (*domain.User, error) {
	return d.store.FindDoctorByName(ctx, name)
}
