package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecosnap/internal/models"
	"ecosnap/internal/services"
)

type MediaUploader interface {
	Upload(ctx context.Context, p models.Principal, in services.UploadInput) (*models.Media, error)
}

type MediaHandler struct {
	svc MediaUploader
	*Responder
}

func NewMediaHandler(svc MediaUploader, r *Responder) *MediaHandler {
	return &MediaHandler{svc: svc, Responder: r}
}

// POST /api/media/upload
func (h *MediaHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, models.MaxUploadSize+1<<20)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.respondError(c, models.NewValidationError("file field is required"))
		return
	}
	defer file.Close()

	media, err := h.svc.Upload(c.Request.Context(), principalFrom(c), services.UploadInput{
		Kind:        models.MediaKind(c.PostForm("kind")),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusCreated, "File uploaded successfully", media)
}
