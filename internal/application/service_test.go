package application_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/identity-service/internal/application"
	"github.com/oksasatya/identity-service/internal/domain/entity"
	"github.com/oksasatya/identity-service/internal/domain/repository"
	"github.com/oksasatya/identity-service/internal/infrastructure/memory"
)

var fakeHasher = application.HasherFuncs{
	HashFunc:   func(raw string) (string, error) { return "hashed:" + raw, nil },
	VerifyFunc: func(raw, digest string) bool { return digest == "hashed:"+raw },
}

// stepClock returns a new instant, one second apart, on every call.
type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	svc  *application.Service
	repo *memory.UserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.NewUserRepository()
	return newFixtureWithRepo(t, mem, mem)
}

func newFixtureWithRepo(t *testing.T, mem *memory.UserRepository, r repository.UserRepository) *fixture {
	t.Helper()
	svc := application.NewService(r, mem, fakeHasher, quietLogger())
	clock := &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc.SetClock(clock.Now)
	return &fixture{svc: svc, repo: mem}
}

func (f *fixture) create(t *testing.T, username, email, first, last string) *entity.User {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), application.CreateUserInput{
		Username:  username,
		Email:     email,
		Password:  "p1",
		FirstName: first,
		LastName:  last,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) count(t *testing.T) int64 {
	t.Helper()
	n, err := f.svc.CountUsers(context.Background())
	require.NoError(t, err)
	return n
}

func strPtr(s string) *string { return &s }

type mockJobs struct{ mock.Mock }

func (m *mockJobs) PublishJSON(ctx context.Context, body any) error {
	return m.Called(body).Error(0)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Get(ctx context.Context, id string) (*entity.User, bool, error) {
	args := m.Called(id)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, u *entity.User) error {
	return m.Called(u).Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

type mockIndex struct{ mock.Mock }

func (m *mockIndex) Index(ctx context.Context, u *entity.User) error {
	return m.Called(u).Error(0)
}

func (m *mockIndex) Remove(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *mockIndex) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	args := m.Called(q, size)
	hits, _ := args.Get(0).([]map[string]any)
	return hits, args.Error(1)
}

type mockImages struct{ mock.Mock }

func (m *mockImages) Upload(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	args := m.Called(userID, filename, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockImages) Remove(ctx context.Context, url string) error {
	return m.Called(url).Error(0)
}
