package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUnsplash_SearchImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/photos/random", r.URL.Path)
		assert.Equal(t, "Tokyo", r.URL.Query().Get("query"))
		assert.Equal(t, "access", r.URL.Query().Get("client_id"))
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
		_, _ = w.Write([]byte(`{"urls":{"regular":"https://images.example/tokyo.jpg"}}`))
	}))
	defer srv.Close()

	c := NewUnsplashClient("access", srv.URL, testConfig(), zap.NewNop())
	got, err := c.SearchImage(context.Background(), "Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/tokyo.jpg", got)
}

func TestUnsplash_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"urls":{}}`))
	}))
	defer srv.Close()

	c := NewUnsplashClient("access", srv.URL, testConfig(), zap.NewNop())
	_, err := c.SearchImage(context.Background(), "Tokyo")
	assert.Error(t, err)
}

func TestWeatherAPI_GetCondition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current.json", r.URL.Path)
		assert.Equal(t, "wkey", r.URL.Query().Get("key"))
		assert.Equal(t, "Chicago", r.URL.Query().Get("q"))
		assert.Equal(t, "no", r.URL.Query().Get("aqi"))
		_, _ = w.Write([]byte(`{"location":{"name":"Chicago"},"current":{"temp_c":21.5,"condition":{"text":"Partly cloudy"}}}`))
	}))
	defer srv.Close()

	c := NewWeatherAPIClient("wkey", srv.URL, testConfig(), zap.NewNop())
	got, err := c.GetCondition(context.Background(), "Chicago")
	require.NoError(t, err)
	assert.Equal(t, "Partly cloudy", got.Text)
	assert.Equal(t, 21.5, got.TempC)
}

func TestEmailJS_SendFeedback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email/send", r.URL.Path)

		var req emailJSRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "svc", req.ServiceID)
		assert.Equal(t, "tpl", req.TemplateID)
		assert.Equal(t, "pub", req.UserID)
		assert.Equal(t, "Ada", req.TemplateParams["name"])
		assert.Equal(t, "ada@example.com", req.TemplateParams["email"])
		assert.Equal(t, "Great app", req.TemplateParams["message"])
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	c := NewEmailJSClient("svc", "tpl", "pub", srv.URL, testConfig(), zap.NewNop())
	err := c.SendFeedback(context.Background(), models.Feedback{Name: "Ada", Email: "ada@example.com", Message: "Great app"})
	require.NoError(t, err)
}

func TestEmailJS_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewEmailJSClient("svc", "tpl", "pub", srv.URL, testConfig(), zap.NewNop())
	err := c.SendFeedback(context.Background(), models.Feedback{Name: "Ada", Email: "a@b.c", Message: "hi"})
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}
