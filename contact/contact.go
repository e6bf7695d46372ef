// Package contact handles contact-form submissions: it enforces the allowed
// origin, answers CORS preflight requests, validates the form and hands the
// submission to a Publisher.
package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Subject is the notification subject of every submission.
const Subject = "New Contact Form Submission"

// CORS header values sent with every response.
const (
	AllowMethods = "POST,OPTIONS"
	AllowHeaders = "Content-Type"
)

// Response messages.
const (
	MsgForbidden     = "Forbidden"
	MsgMissingFields = "Missing form fields"
	MsgInvalidBody   = "Invalid request body"
	MsgSent          = "Message sent"
)

// Submission is a validated contact form.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Complete reports whether every field holds more than whitespace.
func (s Submission) Complete() bool {
	return strings.TrimSpace(s.Name) != "" &&
		strings.TrimSpace(s.Email) != "" &&
		strings.TrimSpace(s.Message) != ""
}

// Text renders the notification body.
func (s Submission) Text() string {
	return fmt.Sprintf("New contact form submission:\nName: %s\nEmail: %s\nMessage: %s", s.Name, s.Email, s.Message)
}

// Publisher delivers a submission somewhere a human will read it.
type Publisher interface {
	Publish(ctx context.Context, sub Submission) error
}

// Request is the transport-neutral view of an incoming request.
type Request struct {
	Origin string
	Method string
	Body   []byte
}

// Response is the transport-neutral reply. Body is empty for preflight.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Service applies the contact policy in front of a Publisher.
type Service struct {
	allowedOrigin string
	publisher     Publisher
	logger        *zap.Logger
}

// NewService creates a Service accepting requests from allowedOrigin only.
// An empty allowedOrigin rejects every request.
func NewService(allowedOrigin string, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{allowedOrigin: allowedOrigin, publisher: publisher, logger: logger}
}

// AllowedOrigin returns the origin requests must come from.
func (s *Service) AllowedOrigin() string {
	return s.allowedOrigin
}

// Handle processes one request.
func (s *Service) Handle(ctx context.Context, req Request) Response {
	if !s.allowed(req.Origin) {
		return jsonResponse(http.StatusForbidden, req.Origin, MsgForbidden)
	}

	if strings.EqualFold(req.Method, http.MethodOptions) {
		resp := Response{StatusCode: http.StatusNoContent, Headers: corsHeaders(req.Origin)}
		resp.Headers["Content-Type"] = "application/json"
		resp.Headers["Content-Length"] = "0"
		return resp
	}

	var sub Submission
	if err := json.Unmarshal(req.Body, &sub); err != nil {
		return jsonResponse(http.StatusBadRequest, req.Origin, MsgInvalidBody)
	}
	if !sub.Complete() {
		return jsonResponse(http.StatusBadRequest, req.Origin, MsgMissingFields)
	}

	if err := s.publisher.Publish(ctx, sub); err != nil {
		s.logger.Error("publish contact submission", zap.Error(err))
		return jsonResponse(http.StatusInternalServerError, req.Origin, err.Error())
	}
	s.logger.Info("contact submission published", zap.String("email", sub.Email))
	return jsonResponse(http.StatusOK, req.Origin, MsgSent)
}

// Invalid answers a request whose body the transport could not read. The
// origin policy still applies, so a foreign origin gets 403.
func (s *Service) Invalid(req Request) Response {
	if !s.allowed(req.Origin) {
		return jsonResponse(http.StatusForbidden, req.Origin, MsgForbidden)
	}
	return jsonResponse(http.StatusBadRequest, req.Origin, MsgInvalidBody)
}

func (s *Service) allowed(origin string) bool {
	if s.allowedOrigin == "" || origin != s.allowedOrigin {
		s.logger.Warn("contact request from foreign origin", zap.String("origin", origin))
		return false
	}
	return true
}

func corsHeaders(origin string) map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  origin,
		"Access-Control-Allow-Methods": AllowMethods,
		"Access-Control-Allow-Headers": AllowHeaders,
	}
}

func jsonResponse(status int, origin, message string) Response {
	body, _ := json.Marshal(map[string]string{"message": message})
	h := corsHeaders(origin)
	h["Content-Type"] = "application/json"
	return Response{StatusCode: status, Headers: h, Body: body}
}
