package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/service"
)

// multipartOverhead is the slack allowed on top of the attachment limit for
// form fields and part headers.
const multipartOverhead = 1 << 20

type reportRequest struct {
	EquipmentID string              `json:"equipment_id"`
	Status      domain.ReportStatus `json:"status"`
	Description string              `json:"description"`
}

func (h *Handler) listReports(c *gin.Context) {
	id, _ := currentIdentity(c)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	reports, err := h.reports.List(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]ReportResponse, 0, len(reports))
	for _, report := range reports {
		resp = append(resp, reportToResponse(report))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, _ := currentIdentity(c)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	report, err := h.reports.CreateText(ctx, id, service.ReportInput{
		EquipmentID: req.EquipmentID,
		Status:      req.Status,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": report.ID, "message": "Report created successfully"})
}

// createAudioReport accepts a multipart form with an optional "audio" part.
// Declared type and size are checked before the part is read.
func (h *Handler) createAudioReport(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.attachments.MaxBytes()+multipartOverhead)

	header, err := c.FormFile("audio")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, service.ErrPayloadTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	in := service.ReportInput{
		EquipmentID: c.PostForm("equipment_id"),
		Status:      domain.ReportStatus(c.PostForm("status")),
		Description: c.PostForm("description"),
	}
	id, _ := currentIdentity(c)

	var upload *service.Upload
	if header != nil {
		contentType := header.Header.Get("Content-Type")
		if err := h.attachments.Validate(contentType, header.Size); err != nil {
			h.respondError(c, err)
			return
		}
		file, err := header.Open()
		if err != nil {
			h.respondError(c, err)
			return
		}
		defer file.Close()
		upload = &service.Upload{
			Filename:    header.Filename,
			ContentType: contentType,
			Size:        header.Size,
			Body:        file,
		}
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	report, err := h.reports.CreateWithAudio(ctx, id, in, upload)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var audioFile *string
	if report.AudioFile != "" {
		audioFile = &report.AudioFile
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         report.ID,
		"audio_file": audioFile,
		"message":    "Report with audio created successfully",
	})
}

func (h *Handler) getAttachment(c *gin.Context) {
	name := c.Param("name")
	id, _ := currentIdentity(c)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	body, info, err := h.reports.OpenAttachment(ctx, id, name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, body, map[string]string{
		"Content-Disposition": "inline; filename=" + strconv.Quote(name),
	})
}
