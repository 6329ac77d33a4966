package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/pa-broadcaster/pkg/errors"
	"github.com/noah-isme/pa-broadcaster/pkg/response"
)

type audioTokenParser interface {
	Parse(token string, allowExpired bool) (string, time.Time, error)
}

type audioOpener interface {
	Open(filename string) (*os.File, error)
}

// AudioHandler serves synthesized audio referenced by signed tokens.
type AudioHandler struct {
	signer audioTokenParser
	store  audioOpener
	logger *zap.Logger
}

// NewAudioHandler constructs an AudioHandler.
func NewAudioHandler(signer audioTokenParser, store audioOpener, logger *zap.Logger) *AudioHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AudioHandler{signer: signer, store: store, logger: logger}
}

// Serve godoc
// @Summary Announcement audio
// @Tags Audio
// @Produce audio/mpeg
// @Param token path string true "Signed audio token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /audio/{token} [get]
func (h *AudioHandler) Serve(c *gin.Context) {
	relPath, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "audio not found"))
		return
	}

	file, err := h.store.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "audio not found"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "audio unavailable"))
		return
	}

	c.Header("Content-Type", "audio/mpeg")
	c.Header("Cache-Control", "private, max-age=3600")
	http.ServeContent(c.Writer, c.Request, filepath.Base(relPath), info.ModTime(), file)
}
