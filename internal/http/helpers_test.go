package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"equipment-monitor/internal/repository/sqlite"
	"equipment-monitor/internal/service"
	"equipment-monitor/internal/storage"
)

const testSecret = "http-test-secret"

type apiEnv struct {
	router   *gin.Engine
	repos    *sqlite.Repositories
	users    service.UserService
	sessions service.SessionIssuer
}

func newAPIEnv(t *testing.T, maxBytes int64) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos, err := sqlite.NewRepositories(ctx, db)
	require.NoError(t, err)

	store, err := storage.NewLocalService(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	users := service.NewUserService(repos.Users, service.UserOptions{BcryptCost: bcrypt.MinCost})
	_, err = users.Bootstrap(ctx)
	require.NoError(t, err)

	sessions, err := service.NewSessionIssuer(users, service.SessionOptions{Secret: testSecret})
	require.NoError(t, err)
	attachments := service.NewAttachmentService(store, service.AttachmentOptions{MaxBytes: maxBytes})

	handler := NewHandler(Deps{
		Users:       users,
		Sessions:    sessions,
		Shifts:      service.NewShiftService(repos.Shifts, repos.Users),
		Reports:     service.NewReportService(repos.Reports, attachments, logger),
		Attachments: attachments,
		Logger:      logger,
	})
	router := gin.New()
	handler.RegisterRoutes(router)

	return &apiEnv{router: router, repos: repos, users: users, sessions: sessions}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func (e *apiEnv) addEngineer(t *testing.T, username string) string {
	t.Helper()
	_, err := e.users.Create(context.Background(), service.NewUser{
		Username: username,
		Password: "secret-pass",
		Role:     "engineer",
	})
	require.NoError(t, err)
	return e.login(t, username, "secret-pass")
}

type audioPart struct {
	filename    string
	contentType string
	data        []byte
}

func (e *apiEnv) postAudio(t *testing.T, token string, fields map[string]string, part *audioPart) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if part != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="audio"; filename="`+part.filename+`"`)
		h.Set("Content-Type", part.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(part.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reports/audio", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(e *apiEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
