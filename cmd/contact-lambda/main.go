// Command contact-lambda runs the contact endpoint as an AWS Lambda function
// behind an API Gateway HTTP API, publishing submissions to SNS.
//
// Required environment: ALLOWED_ORIGIN and CONTACT_TOPIC_ARN.
package main

import (
	"context"
	"encoding/base64"
	"log"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/eringen/pagesmith"
	"github.com/eringen/pagesmith/contact"
)

func main() {
	logger, err := pagesmith.NewLogger(pagesmith.LogConfig{
		Level:  pagesmith.EnvOr("LOG_LEVEL", "info"),
		Format: "json",
	})
	if err != nil {
		log.Fatalf("contact-lambda: init logger: %v", err)
	}
	defer logger.Sync()

	origin := pagesmith.MustEnv("ALLOWED_ORIGIN")
	topic := pagesmith.MustEnv("CONTACT_TOPIC_ARN")

	pub, err := contact.NewSNSPublisher(context.Background(), topic)
	if err != nil {
		logger.Fatal("init sns publisher", zap.Error(err))
	}

	h := &handler{svc: contact.NewService(origin, pub, logger)}
	lambda.Start(h.Handle)
}

type handler struct {
	svc *contact.Service
}

// Handle adapts an HTTP API (payload v2) event to the contact service.
func (h *handler) Handle(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, ok := toRequest(evt)
	if !ok {
		return toResponse(h.svc.Invalid(req)), nil
	}
	return toResponse(h.svc.Handle(ctx, req)), nil
}

// toRequest reports false, leaving Body empty, when the body claims base64
// but does not decode.
func toRequest(evt events.APIGatewayV2HTTPRequest) (contact.Request, bool) {
	req := contact.Request{
		Origin: header(evt.Headers, "origin"),
		Method: evt.RequestContext.HTTP.Method,
		Body:   []byte(evt.Body),
	}
	if evt.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(evt.Body)
		if err != nil {
			req.Body = nil
			return req, false
		}
		req.Body = b
	}
	return req, true
}

func toResponse(resp contact.Response) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       string(resp.Body),
	}
}

// header looks key up case-insensitively. HTTP APIs lowercase header names
// but test events and REST proxies may not.
func header(h map[string]string, key string) string {
	if v, ok := h[key]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
