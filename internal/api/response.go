package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/denzelpenzel/tours/internal/apperror"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// sendError renders err through the error translation layer. Production
// responses carry only status and message; unexpected errors get a generic
// message there. Elsewhere the underlying error and its chain are included.
func (s *Server) sendError(ctx *fasthttp.RequestCtx, err error) {
	appErr := apperror.Translate(err)

	if !appErr.Operational {
		s.logger.Error("Unhandled error",
			zap.Error(err),
			zap.String("method", string(ctx.Method())),
			zap.String("path", string(ctx.Path())))
	}

	response := map[string]interface{}{
		"status":  appErr.Status(),
		"message": appErr.Message,
	}

	if !s.config.IsProduction() {
		if !appErr.Operational {
			response["message"] = err.Error()
		}
		response["error"] = err.Error()
		response["stack"] = errorChain(err)
	}

	s.sendJSON(ctx, appErr.StatusCode, response)
}

// sendSuccessResponse wraps data in the success envelope
func (s *Server) sendSuccessResponse(ctx *fasthttp.RequestCtx, statusCode int, data interface{}) {
	s.sendJSON(ctx, statusCode, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

func (s *Server) sendJSON(ctx *fasthttp.RequestCtx, statusCode int, body interface{}) {
	s.setCORSHeaders(ctx)

	jsonData, err := json.Marshal(body)
	if err != nil {
		s.logger.Error("Failed to marshal response", zap.Error(err))
		ctx.SetContentType("application/json")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"status":"error","message":"Something went wrong!"}`)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(statusCode)
	ctx.SetBody(jsonData)
}

func (s *Server) sendNoContent(ctx *fasthttp.RequestCtx) {
	s.setCORSHeaders(ctx)
	ctx.SetStatusCode(fasthttp.StatusNoContent)
	ctx.ResetBody()
}

// parseJSONBody decodes a JSON request body into dest
func (s *Server) parseJSONBody(ctx *fasthttp.RequestCtx, dest interface{}) error {
	contentType := string(ctx.Request.Header.ContentType())
	if !strings.Contains(contentType, "application/json") {
		return apperror.BadRequest("Content-Type must be application/json")
	}

	body := ctx.PostBody()
	if len(body) == 0 {
		return apperror.BadRequest("Request body is empty")
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return apperror.BadRequest(fmt.Sprintf("Invalid JSON: %v", err))
	}

	return nil
}

func errorChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, fmt.Sprintf("%T: %v", err, err))
		err = errors.Unwrap(err)
	}
	return chain
}
