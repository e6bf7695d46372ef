package pagesmith

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postContact(app *App, origin, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, ContactPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", origin)
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func TestContactEndpoint(t *testing.T) {
	app, pub := newTestApp(t, newTestSite(t))

	rec := postContact(app, testOrigin, `{"name":"Ada","email":"ada@example.com","message":"Hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Message sent"}`, rec.Body.String())
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST,OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Len(t, pub.subs, 1)
	assert.Equal(t, "Ada", pub.subs[0].Name)
}

func TestContactEndpointRejects(t *testing.T) {
	app, pub := newTestApp(t, newTestSite(t))

	rec := postContact(app, "https://evil.example", `{"name":"a","email":"b","message":"c"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Forbidden"}`, rec.Body.String())

	rec = postContact(app, testOrigin, `{"name":"a"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing form fields"}`, rec.Body.String())

	assert.Empty(t, pub.subs)
}

func TestContactPreflight(t *testing.T) {
	app, _ := newTestApp(t, newTestSite(t))

	req := httptest.NewRequest(http.MethodOptions, ContactPath, nil)
	req.Header.Set("Origin", testOrigin)
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, rec.Body.String())
}

func TestContactRateLimited(t *testing.T) {
	app, pub := newTestApp(t, newTestSite(t))

	for i := 0; i < 3; i++ {
		rec := postContact(app, testOrigin, `{"name":"a","email":"b","message":"c"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := postContact(app, testOrigin, `{"name":"a","email":"b","message":"c"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Len(t, pub.subs, 3)
}

func TestContactDisabled(t *testing.T) {
	app := New(SiteConfig{Root: newTestSite(t), Contact: ContactConfig{Publisher: PublisherNone}}, WithLogger(nopLogger()))
	require.NoError(t, app.Setup(t.Context()))
	t.Cleanup(func() { _ = app.Close() })
	assert.Nil(t, app.Contact)

	rec := postContact(app, testOrigin, `{}`)
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestContactStorePublisher(t *testing.T) {
	root := newTestSite(t)
	app := New(SiteConfig{
		Root:    root,
		URL:     testOrigin,
		Contact: ContactConfig{Publisher: PublisherStore},
	}, WithLogger(nopLogger()))
	require.NoError(t, app.Setup(t.Context()))
	t.Cleanup(func() { _ = app.Close() })

	rec := postContact(app, testOrigin, `{"name":"Ada","email":"ada@example.com","message":"Hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.FileExists(t, app.Config.Contact.StoreDSN)
}
