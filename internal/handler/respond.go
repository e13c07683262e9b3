package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/models"
	"ecosnap/internal/utils"
	pretty "ecosnap/internal/utils/validator"
)

// Responder writes the JSON envelope and owns the error-to-status mapping.
type Responder struct {
	log        zerolog.Logger
	production bool
}

func NewResponder(log zerolog.Logger, production bool) *Responder {
	return &Responder{log: log, production: production}
}

func (r *Responder) ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func (r *Responder) message(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func (r *Responder) list(c *gin.Context, items interface{}, count int, total, page, pages int64) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   count,
		"total":   total,
		"page":    page,
		"pages":   pages,
		"data":    items,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidID),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicateReview),
		errors.Is(err, models.ErrDuplicate),
		errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (r *Responder) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"success": false, "message": err.Error()}

	var ve *models.ValidationError
	if errors.As(err, &ve) {
		body["message"] = models.ErrValidation.Error()
		body["errors"] = ve.Fields
	}

	if status == http.StatusInternalServerError {
		r.log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString(utils.ContextRequestID)).
			Msg("request failed")
		if r.production {
			body["message"] = "internal server error"
		}
	}
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the body and turns binding failures into validation errors.
func bindJSON(c *gin.Context, dst interface{}) error {
	return bindingError(c.ShouldBindJSON(dst))
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty.
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return bindingError(err)
}

func bindingError(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return models.NewValidationError(pretty.ParseErrors(err)...)
	}
	return models.NewValidationError("invalid request body")
}

func bindQuery(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return models.NewValidationError("invalid query parameters: " + err.Error())
	}
	return nil
}

func parseID(c *gin.Context, param string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		return primitive.NilObjectID, models.ErrInvalidID
	}
	return id, nil
}

// principalFrom reads what the auth middleware stored. Anonymous callers get a zero ID.
func principalFrom(c *gin.Context) models.Principal {
	p := models.Principal{Role: models.Role(c.GetString(utils.ContextRole))}
	if id, err := primitive.ObjectIDFromHex(c.GetString(utils.ContextUserID)); err == nil {
		p.ID = id
	}
	return p
}

type pageQuery struct {
	Page  int64 `form:"page"`
	Limit int64 `form:"limit"`
}

func (q pageQuery) pagination() models.Pagination {
	return models.NewPagination(q.Page, q.Limit)
}
