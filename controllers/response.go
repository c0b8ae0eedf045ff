package controllers

import (
	"errors"
	"net/http"

	"github.com/amaurycolochos7/shopp-kingice/middleware"
	"github.com/amaurycolochos7/shopp-kingice/services"
	"github.com/amaurycolochos7/shopp-kingice/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// errorResponder maps service errors to the JSON error envelope. It is the
// only place that decides status codes for failures.
type errorResponder struct {
	logger        *zap.Logger
	exposeDetails bool
}

func newErrorResponder(logger *zap.Logger, exposeDetails bool) errorResponder {
	return errorResponder{logger: logger, exposeDetails: exposeDetails}
}

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondFailure(c *gin.Context, status int, code, message string, extra gin.H) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

// respondBindError reports a request body that could not be decoded
func respondBindError(c *gin.Context, err error) {
	extra := gin.H{"details": err.Error()}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		extra["field"] = requestFieldPath(fieldErrs[0])
	}
	respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", extra)
}

func (r errorResponder) respondError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		transitionErr *services.TransitionError
		notFoundErr   *services.NotFoundError
		conflictErr   *services.ConflictError
		uploadErr     *utils.FileUploadError
		authErr       *middleware.AuthError
		persistErr    *services.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		extra := gin.H{}
		if validationErr.Field != "" {
			extra["field"] = validationErr.Field
		}
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Error(), extra)

	case errors.As(err, &transitionErr):
		respondFailure(c, http.StatusBadRequest, "INVALID_TRANSITION", transitionErr.Message, gin.H{
			"from": transitionErr.From,
			"to":   transitionErr.To,
		})

	case errors.As(err, &notFoundErr):
		respondFailure(c, http.StatusNotFound, "NOT_FOUND", notFoundErr.Error(), nil)

	case errors.As(err, &conflictErr):
		respondFailure(c, http.StatusConflict, "CONFLICT", conflictErr.Message, nil)

	case errors.Is(err, services.ErrInvalidCredentials):
		respondFailure(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)

	case errors.As(err, &uploadErr):
		respondFailure(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message, nil)

	case errors.As(err, &authErr):
		respondFailure(c, http.StatusUnauthorized, authErr.Code, authErr.Message, nil)

	case errors.As(err, &persistErr):
		r.logger.Error("Database operation failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("op", persistErr.Op),
			zap.Error(persistErr.Err),
		)
		respondFailure(c, http.StatusInternalServerError, "DATABASE_ERROR", r.message(err, "Database error"), nil)

	default:
		r.logger.Error("Unexpected error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		respondFailure(c, http.StatusInternalServerError, "INTERNAL_ERROR", r.message(err, "Internal server error"), nil)
	}
}

// message hides internal error text outside development
func (r errorResponder) message(err error, fallback string) string {
	if r.exposeDetails {
		return err.Error()
	}
	return fallback
}
