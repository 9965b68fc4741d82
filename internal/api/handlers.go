package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"voicetranscribe/internal/model"
	"voicetranscribe/internal/storage"
	"voicetranscribe/internal/stt"
	"voicetranscribe/internal/utils"
)

const (
	// formFileField is the multipart field holding the audio.
	formFileField = "file"

	msgNoFile          = "no file uploaded"
	msgFileTooLarge    = "uploaded file is too large"
	msgInternalError   = "an error occurred while processing your request"
	msgMissingAPIKey   = "Authorization header required"
	msgInvalidAPIKey   = "invalid API key"
	defaultTimeout     = 60 * time.Second
	defaultMaxFileSize = 32 << 20
)

var errNoFile = errors.New(msgNoFile)

// Handler serves the transcription endpoints. It never knows which provider
// is behind stt.Provider.
type Handler struct {
	provider stt.Provider
	stager   *storage.Stager
	timeout  time.Duration
	maxBytes int64
	log      zerolog.Logger
}

// HandlerOptions tunes request limits; zero values pick defaults.
type HandlerOptions struct {
	// Timeout bounds a single provider call.
	Timeout time.Duration
	// MaxUploadBytes caps the request body.
	MaxUploadBytes int64
}

// NewHandler wires a handler around the process-wide provider.
func NewHandler(provider stt.Provider, stager *storage.Stager, opts HandlerOptions, logger zerolog.Logger) *Handler {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxFileSize
	}
	return &Handler{
		provider: provider,
		stager:   stager,
		timeout:  opts.Timeout,
		maxBytes: opts.MaxUploadBytes,
		log:      logger,
	}
}

// healthCheck returns server health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "voice-transcription",
	})
}

// Transcribe handles POST /api/transcribe. The upload is staged in a temp
// file that is removed before the handler returns.
func (h *Handler) Transcribe(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	file, err := c.FormFile(formFileField)
	if err != nil {
		h.rejectUpload(c, err)
		return
	}
	if file.Size == 0 {
		h.rejectUpload(c, errNoFile)
		return
	}

	src, err := file.Open()
	if err != nil {
		h.fail(c, file.Filename, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer src.Close()

	staged, err := h.stager.Stage(src)
	if err != nil {
		h.fail(c, file.Filename, err)
		return
	}
	defer func() {
		if err := staged.Release(); err != nil {
			h.log.Error().Err(err).Str("file", file.Filename).Msg("failed to remove staged upload")
		}
	}()

	audio, err := staged.Open()
	if err != nil {
		h.fail(c, file.Filename, fmt.Errorf("failed to open staged upload: %w", err))
		return
	}
	defer audio.Close()

	h.transcribe(c, model.UploadedAudio{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        staged.Size,
		Body:        audio,
	})
}

// TranscribeStream handles POST /api/transcribe/stream. The file part is
// forwarded to the provider straight from the request body.
func (h *Handler) TranscribeStream(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	reader, err := c.Request.MultipartReader()
	if err != nil {
		h.rejectUpload(c, err)
		return
	}
	part, err := nextFilePart(reader)
	if err != nil {
		h.rejectUpload(c, err)
		return
	}
	defer part.Close()

	body := bufio.NewReader(part)
	if _, err := body.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			err = errNoFile
		}
		h.rejectUpload(c, err)
		return
	}

	h.transcribe(c, model.UploadedAudio{
		Filename:    part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
		Size:        -1,
		Body:        body,
	})
}

// nextFilePart skips ahead to the audio file part.
func nextFilePart(r *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			return nil, errNoFile
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == formFileField && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

func (h *Handler) transcribe(c *gin.Context, audio model.UploadedAudio) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	text, err := h.provider.Transcribe(ctx, audio)
	if err != nil {
		// The stream route only hits the body limit while the provider reads.
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.rejectUpload(c, err)
			return
		}
		h.fail(c, audio.Filename, err)
		return
	}
	utils.Transcription(c, text)
}

// rejectUpload answers a client-side upload problem without calling the provider.
func (h *Handler) rejectUpload(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.log.Warn().
			Str("request_id", c.GetString(requestIDKey)).
			Int64("limit", tooLarge.Limit).
			Msg("upload exceeds size limit")
		utils.Error(c, http.StatusRequestEntityTooLarge, msgFileTooLarge)
		return
	}
	h.log.Warn().
		Str("request_id", c.GetString(requestIDKey)).
		Err(err).
		Msg("upload attempt with no file")
	utils.Error(c, http.StatusBadRequest, msgNoFile)
}

// fail logs the full error and answers with a message that never depends on it.
func (h *Handler) fail(c *gin.Context, filename string, err error) {
	event := h.log.Error().
		Str("request_id", c.GetString(requestIDKey)).
		Str("file", filename).
		Str("provider", h.provider.Name()).
		Err(err)
	var sttErr *stt.Error
	if errors.As(err, &sttErr) {
		event = event.Str("kind", sttErr.Kind.String())
		if sttErr.StatusCode != 0 {
			event = event.Int("provider_status", sttErr.StatusCode)
		}
	}
	event.Msg("an error occurred during transcription")
	utils.Error(c, http.StatusInternalServerError, msgInternalError)
}
