package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/service"
)

const defaultRequestTimeout = 5 * time.Second

// Deps are the collaborators a Handler serves requests with.
type Deps struct {
	Users       service.UserService
	Sessions    service.SessionIssuer
	Shifts      service.ShiftService
	Reports     service.ReportService
	Attachments service.AttachmentService
	Logger      logrus.FieldLogger

	// RequestTimeout bounds the storage work of a single request.
	RequestTimeout time.Duration
	// LoginLimiter guards the login route; nil disables rate limiting.
	LoginLimiter gin.HandlerFunc
	// AllowedOrigins for CORS; "*" allows any origin.
	AllowedOrigins []string
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users       service.UserService
	sessions    service.SessionIssuer
	shifts      service.ShiftService
	reports     service.ReportService
	attachments service.AttachmentService
	logger      logrus.FieldLogger

	timeout        time.Duration
	loginLimiter   gin.HandlerFunc
	allowedOrigins []string
}

func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = defaultRequestTimeout
	}
	if deps.LoginLimiter == nil {
		deps.LoginLimiter = func(c *gin.Context) { c.Next() }
	}
	return &Handler{
		users:          deps.Users,
		sessions:       deps.Sessions,
		shifts:         deps.Shifts,
		reports:        deps.Reports,
		attachments:    deps.Attachments,
		logger:         deps.Logger,
		timeout:        deps.RequestTimeout,
		loginLimiter:   deps.LoginLimiter,
		allowedOrigins: deps.AllowedOrigins,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.requestLogger(), corsMiddleware(h.allowedOrigins))

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.POST("/auth/login", h.loginLimiter, h.login)

		authed := api.Group("", h.authenticated())
		{
			authed.GET("/auth/me", h.me)

			authed.GET("/shifts", h.listShifts)
			authed.POST("/shifts", h.adminOnly(), h.createShift)
			authed.PUT("/shifts/:id", h.adminOnly(), h.updateShift)
			authed.DELETE("/shifts/:id", h.adminOnly(), h.deleteShift)

			authed.GET("/reports", h.listReports)
			authed.POST("/reports", h.createReport)
			authed.POST("/reports/audio", h.createAudioReport)
			authed.GET("/attachments/:name", h.getAttachment)

			authed.GET("/users", h.adminOnly(), h.listUsers)
			authed.POST("/users", h.adminOnly(), h.createUser)
		}
	}
}

// requestContext derives the context storage calls run under.
func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

type UserResponse struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	FullName  string      `json:"full_name"`
	CreatedAt string      `json:"created_at,omitempty"`
}

type ShiftResponse struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
}

type ReportResponse struct {
	ID          int64               `json:"id"`
	UserID      int64               `json:"user_id"`
	EquipmentID string              `json:"equipment_id"`
	Status      domain.ReportStatus `json:"status"`
	Description string              `json:"description"`
	AudioFile   *string             `json:"audio_file"`
	CreatedAt   string              `json:"created_at"`
	Username    string              `json:"username"`
	FullName    string              `json:"full_name"`
}

func userToResponse(user domain.User) UserResponse {
	resp := UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		FullName: user.FullName,
	}
	if !user.CreatedAt.IsZero() {
		resp.CreatedAt = user.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func shiftToResponse(shift domain.Shift) ShiftResponse {
	return ShiftResponse{
		ID:          shift.ID,
		UserID:      shift.UserID,
		StartTime:   shift.StartTime,
		EndTime:     shift.EndTime,
		Description: shift.Description,
		CreatedAt:   shift.CreatedAt.UTC().Format(time.RFC3339),
		Username:    shift.Username,
		FullName:    shift.FullName,
	}
}

func reportToResponse(report domain.Report) ReportResponse {
	resp := ReportResponse{
		ID:          report.ID,
		UserID:      report.UserID,
		EquipmentID: report.EquipmentID,
		Status:      report.Status,
		Description: report.Description,
		CreatedAt:   report.CreatedAt.UTC().Format(time.RFC3339),
		Username:    report.Username,
		FullName:    report.FullName,
	}
	if report.AudioFile != "" {
		v := report.AudioFile
		resp.AudioFile = &v
	}
	return resp
}
