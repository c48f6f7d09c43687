package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/artifacts"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth"
	authdomain "github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/domain"
	deploydomain "github.com/GoSim-25-26J-441/dgbp-backend/internal/deployment/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/generation"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ownership"
	pipelinedomain "github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage"
)

// Status maps a service error onto an HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, pipelinedomain.ErrPipelineStageFailure),
		errors.Is(err, deploydomain.ErrBuildSubmission):
		return http.StatusBadGateway
	case errors.Is(err, ownership.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ownership.ErrForbidden),
		errors.Is(err, authdomain.ErrUserDisabled):
		return http.StatusForbidden
	case errors.Is(err, ownership.ErrNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, deploydomain.ErrPrecondition),
		errors.Is(err, pipelinedomain.ErrStageOutOfOrder),
		errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, generation.ErrSchemaViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipelinedomain.ErrInvalidStage),
		errors.Is(err, pipelinedomain.ErrInvalidIdea),
		errors.Is(err, artifacts.ErrInvalidTree):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Error writes {ok:false, error} with the mapped status. Stage failures
// also carry the stage and resumable=true. 5xx causes are logged and
// not echoed.
func Error(c *gin.Context, err error) {
	ErrorWith(c, err, nil)
}

// ErrorWith is Error with extra fields merged into the body.
func ErrorWith(c *gin.Context, err error, extra gin.H) {
	status := Status(err)
	body := gin.H{"ok": false, "error": err.Error()}
	for k, v := range extra {
		body[k] = v
	}

	var stageErr *pipelinedomain.StageError
	if errors.As(err, &stageErr) {
		body["stage"] = stageErr.Stage
		body["resumable"] = true
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
		body["error"] = "internal error"
	}
	c.AbortWithStatusJSON(status, body)
}

func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}
