package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const origin = "https://example.com"

type recordingPublisher struct {
	subs []Submission
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, sub Submission) error {
	if p.err != nil {
		return p.err
	}
	p.subs = append(p.subs, sub)
	return nil
}

func message(t *testing.T, resp Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body, &body))
	return body["message"]
}

func assertCORS(t *testing.T, resp Response, wantOrigin string) {
	t.Helper()
	assert.Equal(t, wantOrigin, resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "POST,OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
	assert.Equal(t, "Content-Type", resp.Headers["Access-Control-Allow-Headers"])
}

func TestHandleSuccess(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(origin, pub, nil)

	resp := svc.Handle(context.Background(), Request{
		Origin: origin,
		Method: http.MethodPost,
		Body:   []byte(`{"name":"Ada","email":"ada@example.com","message":"Hello"}`),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Message sent", message(t, resp))
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assertCORS(t, resp, origin)

	require.Len(t, pub.subs, 1)
	assert.Equal(t, "New contact form submission:\nName: Ada\nEmail: ada@example.com\nMessage: Hello", pub.subs[0].Text())
}

func TestHandleForeignOrigin(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(origin, pub, nil)

	for _, method := range []string{http.MethodPost, http.MethodOptions} {
		resp := svc.Handle(context.Background(), Request{
			Origin: "https://evil.example",
			Method: method,
			Body:   []byte(`{"name":"a","email":"b","message":"c"}`),
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "Forbidden", message(t, resp))
		assertCORS(t, resp, "https://evil.example")
	}
	assert.Empty(t, pub.subs)
}

func TestHandleEmptyAllowedOriginRejectsAll(t *testing.T) {
	svc := NewService("", &recordingPublisher{}, nil)
	resp := svc.Handle(context.Background(), Request{Origin: "", Method: http.MethodPost})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandlePreflight(t *testing.T) {
	svc := NewService(origin, &recordingPublisher{}, nil)
	resp := svc.Handle(context.Background(), Request{Origin: origin, Method: http.MethodOptions})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Body)
	assert.Equal(t, "0", resp.Headers["Content-Length"])
	assertCORS(t, resp, origin)
}

func TestHandleBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing message", `{"name":"Ada","email":"ada@example.com"}`, "Missing form fields"},
		{"blank name", `{"name":"  ","email":"ada@example.com","message":"hi"}`, "Missing form fields"},
		{"empty object", `{}`, "Missing form fields"},
		{"malformed json", `{"name":`, "Invalid request body"},
		{"empty body", ``, "Invalid request body"},
		{"wrong field type", `{"name":1,"email":"a","message":"b"}`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			resp := NewService(origin, pub, nil).Handle(context.Background(), Request{
				Origin: origin,
				Method: http.MethodPost,
				Body:   []byte(tt.body),
			})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, message(t, resp))
			assertCORS(t, resp, origin)
			assert.Empty(t, pub.subs)
		})
	}
}

func TestHandlePublisherFailure(t *testing.T) {
	svc := NewService(origin, &recordingPublisher{err: errors.New("topic does not exist")}, nil)
	resp := svc.Handle(context.Background(), Request{
		Origin: origin,
		Method: http.MethodPost,
		Body:   []byte(`{"name":"Ada","email":"ada@example.com","message":"Hello"}`),
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "topic does not exist", message(t, resp))
	assertCORS(t, resp, origin)
}

func TestInvalidKeepsOriginPolicy(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(origin, pub, nil)

	resp := svc.Invalid(Request{Origin: origin, Method: http.MethodPost})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, MsgInvalidBody, message(t, resp))
	assertCORS(t, resp, origin)

	resp = svc.Invalid(Request{Origin: "https://evil.test", Method: http.MethodPost})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, pub.subs)
}
