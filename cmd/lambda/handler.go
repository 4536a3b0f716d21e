package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/server"
)

type handler struct {
	svc    *server.AnalyzeService
	logger *slog.Logger
}

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,X-Request-Id",
	"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
	"Content-Type":                 "application/json",
}

func (h *handler) handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := req.RequestContext.RequestID
	if id == "" {
		id = common.NewRequestID()
	}
	ctx = common.WithRequestID(ctx, id)
	logger := common.LoggerFromContext(ctx, h.logger)
	logger.Info("lambda.request", "method", req.HTTPMethod, "path", req.Path)

	switch {
	case req.HTTPMethod == http.MethodOptions:
		return respond(http.StatusOK, nil), nil
	case req.HTTPMethod == http.MethodGet && (req.Path == "/" || req.Path == ""):
		return respond(http.StatusOK, map[string]string{"message": server.WelcomeMessage}), nil
	case req.HTTPMethod == http.MethodPost && req.Path == "/analyze_images":
	default:
		return respond(http.StatusNotFound, map[string]string{"error": "not found"}), nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return respond(http.StatusBadRequest, map[string]string{"error": "body is not valid base64"}), nil
		}
		body = decoded
	}
	var in server.AnalyzeRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return respond(http.StatusBadRequest, map[string]string{"error": "request body must be JSON with imageUrls"}), nil
	}

	results, err := h.svc.AnalyzeURLs(ctx, in.ImageURLs)
	if err != nil {
		var appErr *common.AppError
		if server.IsInvalidRequest(err) && errors.As(err, &appErr) {
			return respond(http.StatusBadRequest, map[string]string{"error": appErr.Message}), nil
		}
		logger.Error("lambda.analyze.failed", "error", err)
		return respond(http.StatusInternalServerError, map[string]string{"error": "internal error"}), nil
	}
	return respond(http.StatusOK, server.AnalyzeResponse{Data: results}), nil
}

func respond(status int, body any) events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{StatusCode: status, Headers: corsHeaders}
	if body == nil {
		return resp
	}
	b, err := json.Marshal(body)
	if err != nil {
		resp.StatusCode = http.StatusInternalServerError
		resp.Body = `{"error":"internal error"}`
		return resp
	}
	resp.Body = string(b)
	return resp
}
