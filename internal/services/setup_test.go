package services_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"dating-api/internal/identity"
	"dating-api/internal/imagestore"
	"dating-api/internal/models"
	"dating-api/internal/push"
	"dating-api/internal/repository"
	"dating-api/internal/repository/sqlite"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) repository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_time_format=sqlite", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db))
	return sqlite.NewStore(db)
}

func birthDate(age int) time.Time {
	d := time.Now().UTC().AddDate(-age, 0, -1)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func addUser(t *testing.T, store repository.Store, username, gender string, age int, roles ...string) models.Caller {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{models.RoleMember}
	}
	u := &models.User{Username: username, Gender: gender, DateOfBirth: birthDate(age), KnownAs: username}
	require.NoError(t, store.Users.Create(context.Background(), u, roles))
	return models.Caller{ID: u.ID, Username: u.Username, Roles: roles}
}

type notification struct {
	userID int64
	n      push.Notification
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (r *recordingNotifier) Notify(_ context.Context, userID int64, n push.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification{userID: userID, n: n})
}

func (r *recordingNotifier) all() []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification(nil), r.sent...)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Upload(ctx context.Context, filename string, file io.Reader) (*imagestore.Uploaded, error) {
	args := m.Called(ctx, filename, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*imagestore.Uploaded), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*identity.GoogleIdentity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.GoogleIdentity), args.Error(1)
}
