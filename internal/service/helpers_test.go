package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/repository/sqlite"
	"equipment-monitor/internal/storage"
)

type testEnv struct {
	repos       *sqlite.Repositories
	users       UserService
	sessions    SessionIssuer
	shifts      ShiftService
	reports     ReportService
	attachments AttachmentService
	store       *storage.LocalService
	attachDir   string
	logs        *test.Hook
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos, err := sqlite.NewRepositories(ctx, db)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "attachments")
	store, err := storage.NewLocalService(dir)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	users := NewUserService(repos.Users, UserOptions{BcryptCost: bcrypt.MinCost})
	sessions, err := NewSessionIssuer(users, SessionOptions{Secret: "test-secret"})
	require.NoError(t, err)
	attachments := NewAttachmentService(store, AttachmentOptions{})

	_, err = users.Bootstrap(ctx)
	require.NoError(t, err)

	return &testEnv{
		repos:       repos,
		users:       users,
		sessions:    sessions,
		shifts:      NewShiftService(repos.Shifts, repos.Users),
		reports:     NewReportService(repos.Reports, attachments, logger),
		attachments: attachments,
		store:       store,
		attachDir:   dir,
		logs:        hook,
	}
}

func (e *testEnv) identity(t *testing.T, username string) domain.Identity {
	t.Helper()
	user, err := e.repos.Users.GetByUsername(context.Background(), username)
	require.NoError(t, err)
	return domain.Identity{ID: user.ID, Username: user.Username, Role: user.Role}
}

func (e *testEnv) addEngineer(t *testing.T, username string) domain.Identity {
	t.Helper()
	_, err := e.users.Create(context.Background(), NewUser{
		Username: username,
		Password: "secret-pass",
		Role:     domain.RoleEngineer,
	})
	require.NoError(t, err)
	return e.identity(t, username)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
