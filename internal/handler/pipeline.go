package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/symptom-checker/internal/audit"
	"github.com/vcscsvcscs/symptom-checker/internal/llm"
	"github.com/vcscsvcscs/symptom-checker/internal/service"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
	"go.uber.org/zap"
)

const (
	corsAllowOrigin  = "*"
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
)

// endpoint describes one model-backed route: how to read its request, how
// to invoke the service and what to tell the caller
type endpoint[Req any, Res any] struct {
	name              audit.Endpoint
	configured        func() bool
	invoke            func(ctx context.Context, req *Req) (Res, error)
	inputChars        func(req *Req) int
	successMessage    string
	missingKeyMessage string
	serviceLabel      string
	unexpectedMessage string
	// malformedMessage, when set, reports an undecodable model answer as
	// ANALYSIS_ERROR instead of INTERNAL_ERROR
	malformedMessage string
}

// failure is a classified error ready to be written as an envelope
type failure struct {
	status  int
	code    model.ErrorCode
	message string
	details string
}

// serve builds the gin handler shared by every model-backed route
func serve[Req any, Res any](h *SymptomHandler, e endpoint[Req, Res]) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		var req Req

		finish := func(status int, code string) {
			h.recordAudit(c, audit.Event{
				Endpoint:   e.name,
				Code:       code,
				HTTPStatus: status,
				Duration:   time.Since(startTime),
				InputChars: e.inputChars(&req),
			})
		}

		if !e.configured() {
			f := failure{http.StatusInternalServerError, model.ErrorCodeAPIKeyMissing, e.missingKeyMessage, ""}
			h.logger.Error("model api key not configured", zap.String("endpoint", string(e.name)))
			writeFailure(c, f)
			finish(f.status, string(f.code))
			return
		}

		if err := h.validator.ValidateBody(c); err != nil {
			f := failure{http.StatusBadRequest, model.ErrorCodeInvalidInput, "Invalid request body", err.Error()}
			h.logger.Warn("request body failed schema validation",
				zap.String("endpoint", string(e.name)),
				zap.Error(err),
			)
			writeFailure(c, f)
			finish(f.status, string(f.code))
			return
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			f := failure{http.StatusBadRequest, model.ErrorCodeInvalidInput, "Invalid request body", err.Error()}
			h.logger.Warn("invalid request body",
				zap.String("endpoint", string(e.name)),
				zap.Error(err),
			)
			writeFailure(c, f)
			finish(f.status, string(f.code))
			return
		}

		result, err := e.invoke(c.Request.Context(), &req)
		if err != nil {
			f := e.classify(err)
			fields := []zap.Field{
				zap.String("endpoint", string(e.name)),
				zap.String("code", string(f.code)),
				zap.Error(err),
			}
			switch {
			case f.code == model.ErrorCodeInternalError:
				// logged with a stack trace by the error logging middleware
				_ = c.Error(err)
			case f.status >= http.StatusInternalServerError:
				h.logger.Error("pipeline request failed", fields...)
			default:
				h.logger.Warn("pipeline request rejected", fields...)
			}
			writeFailure(c, f)
			finish(f.status, string(f.code))
			return
		}

		setCORSHeaders(c)
		c.JSON(http.StatusOK, model.APIResponse{
			Success:  true,
			Analysis: result,
			Message:  e.successMessage,
		})
		finish(http.StatusOK, audit.OutcomeSuccess)
	}
}

// classify maps a pipeline error onto the closed error code set
func (e endpoint[Req, Res]) classify(err error) failure {
	var (
		inputErr     *service.InputError
		responseErr  *service.ResponseError
		structureErr *service.InvalidStructureError
		serviceErr   *llm.ModelServiceError
	)

	switch {
	case errors.As(err, &inputErr):
		return failure{http.StatusBadRequest, model.ErrorCodeInvalidInput, inputErr.Message, ""}
	case errors.Is(err, service.ErrAPIKeyMissing):
		return failure{http.StatusInternalServerError, model.ErrorCodeAPIKeyMissing, e.missingKeyMessage, ""}
	case errors.As(err, &responseErr) && errors.Is(err, service.ErrSafetyBlocked):
		return failure{http.StatusBadRequest, model.ErrorCodeSafetyBlock, responseErr.Message, ""}
	case errors.As(err, &responseErr) && errors.Is(err, service.ErrTruncatedResponse):
		return failure{http.StatusBadRequest, model.ErrorCodeMaxTokens, responseErr.Message, ""}
	case errors.As(err, &responseErr):
		return failure{http.StatusInternalServerError, model.ErrorCodeAnalysisError, responseErr.Message, ""}
	case errors.As(err, &structureErr):
		return failure{http.StatusInternalServerError, model.ErrorCodeAnalysisError, structureErr.Error(), ""}
	case errors.As(err, &serviceErr):
		message := fmt.Sprintf("%s error: %d. Please try again later.", e.serviceLabel, serviceErr.StatusCode)
		if serviceErr.StatusCode == 0 {
			message = fmt.Sprintf("%s is unreachable. Please try again later.", e.serviceLabel)
		}
		return failure{http.StatusInternalServerError, model.ErrorCodeGeminiAPIError, message, ""}
	case errors.Is(err, llm.ErrMalformedResponse) && e.malformedMessage != "":
		return failure{http.StatusInternalServerError, model.ErrorCodeAnalysisError, e.malformedMessage, ""}
	default:
		return failure{http.StatusInternalServerError, model.ErrorCodeInternalError, e.unexpectedMessage, err.Error()}
	}
}

func writeFailure(c *gin.Context, f failure) {
	setCORSHeaders(c)
	c.AbortWithStatusJSON(f.status, model.APIResponse{
		Success: false,
		Error:   f.message,
		Code:    f.code,
		Details: f.details,
	})
}

func setCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", corsAllowOrigin)
	c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
}

// Preflight answers CORS preflight requests with an empty 200 response.
// It never depends on model configuration.
func Preflight(c *gin.Context) {
	setCORSHeaders(c)
	c.Status(http.StatusOK)
}
