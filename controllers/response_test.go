package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amaurycolochos7/shopp-kingice/middleware"
	"github.com/amaurycolochos7/shopp-kingice/services"
	"github.com/amaurycolochos7/shopp-kingice/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dbFailure := &services.PersistenceError{Op: "list orders", Err: errors.New("pq: connection reset")}

	tests := []struct {
		name          string
		err           error
		exposeDetails bool
		wantStatus    int
		wantCode      string
		wantMessage   string
	}{
		{"validation", &services.ValidationError{Field: "items", Message: "at least one item is required"}, false, http.StatusBadRequest, "VALIDATION_ERROR", "items: at least one item is required"},
		{"transition", &services.TransitionError{From: "sent_to_whatsapp", To: "shipped", Message: "confirm the order first"}, false, http.StatusBadRequest, "INVALID_TRANSITION", "confirm the order first"},
		{"not found", &services.NotFoundError{Resource: "order", Key: "7"}, false, http.StatusNotFound, "NOT_FOUND", "order 7 not found"},
		{"conflict", &services.ConflictError{Message: "slug taken"}, false, http.StatusConflict, "CONFLICT", "slug taken"},
		{"wrapped credentials", fmt.Errorf("login: %w", services.ErrInvalidCredentials), false, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password"},
		{"upload", &utils.FileUploadError{Code: "FILE_TOO_LARGE", Message: "too big"}, false, http.StatusBadRequest, "FILE_TOO_LARGE", "too big"},
		{"auth", &middleware.AuthError{Code: "MISSING_PRINCIPAL", Message: "no principal"}, false, http.StatusUnauthorized, "MISSING_PRINCIPAL", "no principal"},
		{"database masked", dbFailure, false, http.StatusInternalServerError, "DATABASE_ERROR", "Database error"},
		{"database exposed", dbFailure, true, http.StatusInternalServerError, "DATABASE_ERROR", "list orders: pq: connection reset"},
		{"unexpected masked", errors.New("boom"), false, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			newErrorResponder(zap.NewNop(), tt.exposeDetails).respondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.Equal(t, tt.wantMessage, env.Error.Message)
		})
	}
}

func TestRespondError_LogsServerFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.ErrorLevel)
	responder := newErrorResponder(zap.New(core), false)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	responder.respondError(c, &services.PersistenceError{Op: "create order", Err: errors.New("disk full")})

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	responder.respondError(c, &services.NotFoundError{Resource: "order", Key: "1"})

	entries := logs.All()
	require.Len(t, entries, 1, "client errors are not logged as errors")
	assert.Equal(t, "create order", entries[0].ContextMap()["op"])
}
