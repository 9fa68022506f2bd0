package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"equipment-monitor/internal/storage"
)

// DefaultMaxAttachmentBytes bounds a single audio upload.
const DefaultMaxAttachmentBytes int64 = 10 << 20

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

var audioExtensions = map[string]string{
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/aac":   ".aac",
	"audio/wav":   ".wav",
	"audio/wave":  ".wav",
	"audio/x-wav": ".wav",
	"audio/flac":  ".flac",
}

var extensionTypes = map[string]string{
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wav":  "audio/wav",
	".flac": "audio/flac",
}

// Upload is an attachment as received from a client.
type Upload struct {
	Filename    string
	ContentType string
	// Size is the declared size; -1 when unknown.
	Size int64
	Body io.Reader
}

// AttachmentService validates and stores audio attachments.
type AttachmentService interface {
	Validate(contentType string, size int64) error
	Store(ctx context.Context, up Upload) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, *storage.ObjectInfo, error)
	Remove(ctx context.Context, name string) error
	MaxBytes() int64
}

type AttachmentOptions struct {
	MaxBytes int64
	Now      func() time.Time
}

type attachmentService struct {
	store    storage.Service
	maxBytes int64
	now      func() time.Time
}

func NewAttachmentService(store storage.Service, opts AttachmentOptions) AttachmentService {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxAttachmentBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &attachmentService{
		store:    store,
		maxBytes: opts.MaxBytes,
		now:      opts.Now,
	}
}

func (s *attachmentService) MaxBytes() int64 {
	return s.maxBytes
}

// Validate checks the declared media type and size. The bytes themselves are not inspected.
func (s *attachmentService) Validate(contentType string, size int64) error {
	if _, ok := audioMediaType(contentType); !ok {
		return ErrUnsupportedMediaType
	}
	if size > s.maxBytes {
		return ErrPayloadTooLarge
	}
	return nil
}

// Store persists the blob under a generated name and returns that name.
// The body is read in full before anything is written, so an upload that
// turns out larger than declared is rejected without touching storage.
func (s *attachmentService) Store(ctx context.Context, up Upload) (string, error) {
	if err := s.Validate(up.ContentType, up.Size); err != nil {
		return "", err
	}
	if up.Body == nil {
		return "", fmt.Errorf("%w: empty attachment", ErrInvalidInput)
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrPayloadTooLarge
	}

	mediaType, _ := audioMediaType(up.ContentType)
	name := s.generateName(up.Filename, mediaType)
	if err := s.store.Put(ctx, name, bytes.NewReader(data), int64(len(data)), mediaType); err != nil {
		return "", fmt.Errorf("store attachment: %w", err)
	}
	return name, nil
}

func (s *attachmentService) Open(ctx context.Context, name string) (io.ReadCloser, *storage.ObjectInfo, error) {
	rc, info, err := s.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	if info.ContentType == "" || info.ContentType == "application/octet-stream" {
		info.ContentType = ContentTypeFor(name)
	}
	return rc, info, nil
}

func (s *attachmentService) Remove(ctx context.Context, name string) error {
	return s.store.Delete(ctx, name)
}

func (s *attachmentService) generateName(filename, mediaType string) string {
	return fmt.Sprintf("audio-%d-%s%s", s.now().UnixMilli(), uuid.NewString(), attachmentExt(filename, mediaType))
}

func attachmentExt(filename, mediaType string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if extPattern.MatchString(ext) {
		return ext
	}
	return audioExtensions[mediaType]
}

func audioMediaType(contentType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(mediaType, "audio/") || len(mediaType) == len("audio/") {
		return "", false
	}
	return mediaType, true
}

// ContentTypeFor guesses a media type from a stored attachment name.
func ContentTypeFor(name string) string {
	if ct, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
