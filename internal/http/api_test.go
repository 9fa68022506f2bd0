package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/service"
)

type errorBody struct {
	Error string `json:"error"`
}

type createdBody struct {
	ID        int64   `json:"id"`
	AudioFile *string `json:"audio_file"`
	Message   string  `json:"message"`
}

func TestHealth(t *testing.T) {
	env := newAPIEnv(t, 0)
	rec := env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":"ok"}`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	env := newAPIEnv(t, 0)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "engineer1",
		"password": "eng123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	resp := decode[loginResponse](t, rec)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "engineer1", resp.User.Username)
	assert.Equal(t, domain.RoleEngineer, resp.User.Role)

	id, err := env.sessions.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, id.ID)
	assert.Equal(t, domain.RoleEngineer, id.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newAPIEnv(t, 0)

	wrong := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "engineer1",
		"password": "nope",
	})
	unknown := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "ghost",
		"password": "nope",
	})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestLoginEmptyFieldsLookLikeWrongCredentials(t *testing.T) {
	env := newAPIEnv(t, 0)

	wrong := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "engineer1",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, wrong.Code)

	for _, body := range []map[string]string{
		{"username": "engineer1", "password": ""},
		{"username": "engineer1"},
		{"username": "", "password": "eng123"},
	} {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
		assert.Equal(t, wrong.Body.String(), rec.Body.String(), body)
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	env := newAPIEnv(t, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(env, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthentication(t *testing.T) {
	env := newAPIEnv(t, 0)
	token := env.login(t, "admin", "admin123")

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "access token required", decode[errorBody](t, rec).Error)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", "not.a.token", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "invalid token", decode[errorBody](t, rec).Error)
	})

	t.Run("lowercase scheme", func(t *testing.T) {
		req := newRequest(http.MethodGet, "/api/auth/me")
		req.Header.Set("Authorization", "bearer "+token)
		rec := serve(env, req)
		require.Equal(t, http.StatusOK, rec.Code)
		me := decode[UserResponse](t, rec)
		assert.Equal(t, "admin", me.Username)
		assert.Equal(t, domain.RoleAdmin, me.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		past := time.Now().Add(-25 * time.Hour)
		old, err := service.NewSessionIssuer(env.users, service.SessionOptions{
			Secret: testSecret,
			Now:    func() time.Time { return past },
		})
		require.NoError(t, err)
		user, err := env.users.Authenticate(context.Background(), "admin", "admin123")
		require.NoError(t, err)
		stale, _, err := old.Issue(user)
		require.NoError(t, err)

		rec := env.do(t, http.MethodGet, "/api/auth/me", stale, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("foreign secret", func(t *testing.T) {
		other, err := service.NewSessionIssuer(env.users, service.SessionOptions{Secret: "other"})
		require.NoError(t, err)
		user, err := env.users.Authenticate(context.Background(), "admin", "admin123")
		require.NoError(t, err)
		forged, _, err := other.Issue(user)
		require.NoError(t, err)

		rec := env.do(t, http.MethodGet, "/api/shifts", forged, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestShiftVisibility(t *testing.T) {
	env := newAPIEnv(t, 0)
	admin := env.login(t, "admin", "admin123")
	eng1 := env.login(t, "engineer1", "eng123")
	eng2 := env.addEngineer(t, "engineer2")

	eng1User, err := env.repos.Users.GetByUsername(context.Background(), "engineer1")
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/shifts", admin, map[string]any{
		"user_id":     eng1User.ID,
		"start_time":  "2024-01-01T08:00:00Z",
		"end_time":    "2024-01-01T16:00:00Z",
		"description": "day",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[createdBody](t, rec)
	assert.Positive(t, created.ID)
	assert.Equal(t, "Shift created successfully", created.Message)

	own := decode[[]ShiftResponse](t, env.do(t, http.MethodGet, "/api/shifts", eng1, nil))
	require.Len(t, own, 1)
	assert.Equal(t, eng1User.ID, own[0].UserID)
	assert.Equal(t, "engineer1", own[0].Username)
	assert.Equal(t, "Test Engineer", own[0].FullName)

	rec = env.do(t, http.MethodGet, "/api/shifts", eng2, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	all := decode[[]ShiftResponse](t, env.do(t, http.MethodGet, "/api/shifts", admin, nil))
	assert.Len(t, all, 1)
}

func TestShiftMutationsRequireAdmin(t *testing.T) {
	env := newAPIEnv(t, 0)
	eng := env.login(t, "engineer1", "eng123")

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodPost, "/api/shifts"},
		{http.MethodPut, "/api/shifts/1"},
		{http.MethodDelete, "/api/shifts/1"},
	} {
		rec := env.do(t, tc.method, tc.path, eng, map[string]any{})
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.method)
		assert.Equal(t, "admin access required", decode[errorBody](t, rec).Error)
	}
}

func TestShiftValidationAndLifecycle(t *testing.T) {
	env := newAPIEnv(t, 0)
	admin := env.login(t, "admin", "admin123")
	eng, err := env.repos.Users.GetByUsername(context.Background(), "engineer1")
	require.NoError(t, err)

	body := func(start, end string) map[string]any {
		return map[string]any{"user_id": eng.ID, "start_time": start, "end_time": end}
	}

	rec := env.do(t, http.MethodPost, "/api/shifts", admin, body("2024-01-01T16:00:00Z", "2024-01-01T08:00:00Z"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/shifts", admin, map[string]any{
		"user_id": 9999, "start_time": "2024-01-01T08:00:00Z", "end_time": "2024-01-01T16:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/shifts/abc", admin, body("2024-01-01T08:00:00Z", "2024-01-01T16:00:00Z"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/shifts/4242", admin, body("2024-01-01T08:00:00Z", "2024-01-01T16:00:00Z"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/shifts", admin, body("2024-01-01T08:00:00Z", "2024-01-01T16:00:00Z"))
	require.Equal(t, http.StatusOK, rec.Code)
	id := strconv.FormatInt(decode[createdBody](t, rec).ID, 10)

	rec = env.do(t, http.MethodPut, "/api/shifts/"+id, admin, body("2024-01-02T08:00:00Z", "2024-01-02T16:00:00Z"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Shift updated successfully", decode[createdBody](t, rec).Message)

	shifts := decode[[]ShiftResponse](t, env.do(t, http.MethodGet, "/api/shifts", admin, nil))
	require.Len(t, shifts, 1)
	assert.Equal(t, "2024-01-02T08:00:00Z", shifts[0].StartTime)

	rec = env.do(t, http.MethodDelete, "/api/shifts/"+id, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/shifts/"+id, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/shifts", admin, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestReportOwnerComesFromSession(t *testing.T) {
	env := newAPIEnv(t, 0)
	eng := env.login(t, "engineer1", "eng123")
	admin := env.login(t, "admin", "admin123")
	adminUser, err := env.repos.Users.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/reports", eng, map[string]any{
		"equipment_id": "PUMP-7",
		"status":       "faulty",
		"description":  "leaking seal",
		"user_id":      adminUser.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reports := decode[[]ReportResponse](t, env.do(t, http.MethodGet, "/api/reports", eng, nil))
	require.Len(t, reports, 1)
	assert.NotEqual(t, adminUser.ID, reports[0].UserID)
	assert.Equal(t, "engineer1", reports[0].Username)
	assert.Equal(t, domain.ReportStatusFaulty, reports[0].Status)
	assert.Nil(t, reports[0].AudioFile)

	all := decode[[]ReportResponse](t, env.do(t, http.MethodGet, "/api/reports", admin, nil))
	assert.Len(t, all, 1)

	other := env.addEngineer(t, "engineer2")
	rec = env.do(t, http.MethodGet, "/api/reports", other, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestReportRejectsUnknownStatus(t *testing.T) {
	env := newAPIEnv(t, 0)
	eng := env.login(t, "engineer1", "eng123")

	for _, status := range []string{"broken", "Working", ""} {
		rec := env.do(t, http.MethodPost, "/api/reports", eng, map[string]any{
			"equipment_id": "PUMP-7",
			"status":       status,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, status)
	}
}

func TestAudioReports(t *testing.T) {
	env := newAPIEnv(t, 0)
	eng := env.login(t, "engineer1", "eng123")
	fields := map[string]string{"equipment_id": "GEN-1", "status": "maintenance", "description": "noise"}

	t.Run("rejects non audio", func(t *testing.T) {
		rec := env.postAudio(t, eng, fields, &audioPart{filename: "x.png", contentType: "image/png", data: []byte("png")})
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Equal(t, "only audio files are allowed", decode[errorBody](t, rec).Error)
	})

	t.Run("without audio part", func(t *testing.T) {
		rec := env.postAudio(t, eng, fields, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Nil(t, decode[createdBody](t, rec).AudioFile)
	})

	t.Run("stores and serves audio", func(t *testing.T) {
		data := bytes.Repeat([]byte{0x1a, 0x45, 0xdf, 0xa3}, 1024)
		rec := env.postAudio(t, eng, fields, &audioPart{filename: "memo.webm", contentType: "audio/webm", data: data})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		created := decode[createdBody](t, rec)
		require.NotNil(t, created.AudioFile)
		assert.Regexp(t, `^audio-\d+-[0-9a-f-]{36}\.webm$`, *created.AudioFile)

		rec = env.do(t, http.MethodGet, "/api/attachments/"+*created.AudioFile, eng, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, data, rec.Body.Bytes())
		assert.Equal(t, "audio/webm", rec.Header().Get("Content-Type"))

		admin := env.login(t, "admin", "admin123")
		rec = env.do(t, http.MethodGet, "/api/attachments/"+*created.AudioFile, admin, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		other := env.addEngineer(t, "engineer2")
		rec = env.do(t, http.MethodGet, "/api/attachments/"+*created.AudioFile, other, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown attachment", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/attachments/audio-1-nothing.webm", eng, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAudioReportTooLarge(t *testing.T) {
	const limit = 1024
	env := newAPIEnv(t, limit)
	eng := env.login(t, "engineer1", "eng123")
	fields := map[string]string{"equipment_id": "GEN-1", "status": "working"}

	t.Run("declared size over limit", func(t *testing.T) {
		rec := env.postAudio(t, eng, fields,
			&audioPart{filename: "long.ogg", contentType: "audio/ogg", data: make([]byte, 4*limit)})
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("body over request cap", func(t *testing.T) {
		rec := env.postAudio(t, eng, fields,
			&audioPart{filename: "huge.ogg", contentType: "audio/ogg", data: make([]byte, limit+multipartOverhead+64<<10)})
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "audio file too large", decode[errorBody](t, rec).Error)
	})

	reports := decode[[]ReportResponse](t, env.do(t, http.MethodGet, "/api/reports", eng, nil))
	assert.Empty(t, reports)
}

func TestUsersEndpoints(t *testing.T) {
	env := newAPIEnv(t, 0)
	admin := env.login(t, "admin", "admin123")
	eng := env.login(t, "engineer1", "eng123")

	rec := env.do(t, http.MethodGet, "/api/users", eng, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Len(t, decode[[]UserResponse](t, rec), 2)

	newUser := map[string]string{
		"username":  "tech2",
		"password":  "longenough",
		"role":      "engineer",
		"full_name": "Second Tech",
	}
	rec = env.do(t, http.MethodPost, "/api/users", admin, newUser)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Second Tech", decode[UserResponse](t, rec).FullName)

	rec = env.do(t, http.MethodPost, "/api/users", admin, newUser)
	assert.Equal(t, http.StatusConflict, rec.Code)

	newUser["username"] = "tech3"
	newUser["role"] = "superuser"
	rec = env.do(t, http.MethodPost, "/api/users", admin, newUser)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.login(t, "tech2", "longenough")
}
