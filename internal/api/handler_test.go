package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/bobby-s-dev/cloudburst/internal/observability"
	"github.com/bobby-s-dev/cloudburst/internal/preferences"
	"github.com/bobby-s-dev/cloudburst/internal/risk"
	"github.com/bobby-s-dev/cloudburst/internal/services"
	"github.com/bobby-s-dev/cloudburst/internal/store"
	"github.com/bobby-s-dev/cloudburst/pkg/client"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProvider struct {
	err error
}

func (p stubProvider) GetCurrentWeather(_ context.Context, place string) (*models.CurrentConditions, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &models.CurrentConditions{PlaceName: place, TemperatureC: 20, FeelsLikeC: 19, PressureHpa: 1010, HumidityPct: 60}, nil
}

func (p stubProvider) GetForecast(_ context.Context, place string) (*models.Forecast, error) {
	if p.err != nil {
		return nil, p.err
	}
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]models.ForecastSample, 10)
	for i := range samples {
		samples[i] = models.ForecastSample{
			Timestamp:    start.Add(time.Duration(i) * 3 * time.Hour),
			TemperatureC: 20,
			HumidityPct:  60,
			PressureHpa:  1010,
		}
	}
	return &models.Forecast{City: place, Samples: samples}, nil
}

type failingStore struct{}

func (failingStore) SaveSearch(context.Context, string, string) (*models.SavedSearch, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Ping(context.Context) error  { return errors.New("connection refused") }
func (failingStore) Close(context.Context) error { return nil }

type stubMailer struct {
	err  error
	sent []models.Feedback
}

func (m *stubMailer) SendFeedback(_ context.Context, f models.Feedback) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, f)
	return nil
}

type stubImages struct{}

func (stubImages) SearchImage(_ context.Context, query string) (string, error) {
	return "https://images.example/" + query + ".jpg", nil
}

type stubConditions struct{}

func (stubConditions) GetCondition(context.Context, string) (*client.Condition, error) {
	return &client.Condition{Text: "Sunny", TempC: 30}, nil
}

type testEnv struct {
	app    *fiber.App
	store  *store.MemoryStore
	mailer *stubMailer
}

func newTestEnv(t *testing.T, provider services.WeatherProvider, opts ...func(*Dependencies)) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetricsForTesting()
	retriever := services.NewRetriever(provider, 5*time.Second, metrics, logger)
	dashboard := services.NewDashboard(retriever, risk.NewEvaluator(risk.FixedSource(4)), stubImages{}, nil, metrics, logger)
	notifier := services.NewNotifier(stubConditions{}, preferences.Default(), 10, nil, metrics, logger)

	env := &testEnv{store: store.NewMemoryStore(nil), mailer: &stubMailer{}}
	deps := Dependencies{
		Dashboard:   dashboard,
		Store:       env.store,
		Images:      stubImages{},
		Notifier:    notifier,
		Mailer:      env.mailer,
		Preferences: preferences.Default(),
		Metrics:     metrics,
		Logger:      logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	env.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(env.app, NewHandler(deps), "*")
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func TestSaveSearch(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	status, body := env.do(t, http.MethodPost, "/api/search", map[string]string{"city": "Paris", "userId": "u1"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Search saved successfully", body["message"])

	// duplicates are inserted again
	status, _ = env.do(t, http.MethodPost, "/api/search", map[string]string{"city": "Paris", "userId": "u1"})
	assert.Equal(t, http.StatusOK, status)

	saved := env.store.Searches()
	require.Len(t, saved, 2)
	assert.Equal(t, "Paris", saved[0].City)
	assert.Equal(t, "u1", saved[0].UserID)
	assert.NotEqual(t, saved[0].ID, saved[1].ID)
}

func TestSaveSearch_Validation(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing user", map[string]string{"city": "Paris"}},
		{"missing city", map[string]string{"userId": "u1"}},
		{"blank city", map[string]string{"city": "  ", "userId": "u1"}},
		{"empty object", map[string]string{}},
		{"malformed", "{not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, http.MethodPost, "/api/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "City and userId are required", body["message"])
		})
	}
	assert.Empty(t, env.store.Searches())
}

func TestSaveSearch_StoreFailure(t *testing.T) {
	env := newTestEnv(t, stubProvider{}, func(d *Dependencies) { d.Store = failingStore{} })

	status, body := env.do(t, http.MethodPost, "/api/search", map[string]string{"city": "Paris", "userId": "u1"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Server error", body["message"])
}

func TestWeatherEndpoints(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	status, body := env.do(t, http.MethodGet, "/api/v1/weather/current?city=Paris", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Paris", body["place_name"])

	status, body = env.do(t, http.MethodGet, "/api/v1/weather/forecast?city=Paris", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["samples"], 10)

	status, _ = env.do(t, http.MethodGet, "/api/v1/weather/current", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWeatherEndpoints_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("%w: city not found", models.ErrNotFound), http.StatusNotFound},
		{"transient", fmt.Errorf("%w: HTTP 503", models.ErrTransient), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, stubProvider{err: tt.err})
			status, body := env.do(t, http.MethodGet, "/api/v1/analytics?city=Nowhere", nil)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetAnalytics(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	status, body := env.do(t, http.MethodGet, "/api/v1/analytics?city=Paris&userId=u1&units=F", nil)
	require.Equal(t, http.StatusOK, status)

	display := body["display"].(map[string]interface{})
	assert.Equal(t, "F", display["units"])
	assert.Equal(t, 68.0, display["temperature"])
	assert.Len(t, body["near_term"], 6)
	assert.Len(t, body["chart"], 10)
	assert.Equal(t, "https://images.example/Paris.jpg", body["image_url"])

	riskBody := body["risk"].(map[string]interface{})
	assert.Equal(t, 0.0, riskBody["percent"])
	assert.Equal(t, "Low", riskBody["band"])
	assert.NotNil(t, riskBody["insights"])
}

func TestGetAnalytics_BadUnits(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	status, _ := env.do(t, http.MethodGet, "/api/v1/analytics?city=Paris&units=K", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestEvaluateSnapshot(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	snapshot := models.Snapshot{Samples: []models.ForecastSample{
		{HumidityPct: 90, PressureHpa: 1002, PrecipitationMm3h: 55},
	}}
	status, body := env.do(t, http.MethodPost, "/api/v1/risk", snapshot)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 95.0, body["percent"])
	assert.Equal(t, "High", body["band"])

	status, body = env.do(t, http.MethodPost, "/api/v1/risk", map[string]interface{}{"samples": []interface{}{}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, body["percent"])
	assert.Equal(t, []interface{}{}, body["insights"])

	status, _ = env.do(t, http.MethodPost, "/api/v1/risk", "{oops")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetImage(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	status, body := env.do(t, http.MethodGet, "/api/v1/images?query=Oslo", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "https://images.example/Oslo.jpg", body["url"])

	env = newTestEnv(t, stubProvider{}, func(d *Dependencies) { d.Images = nil })
	status, _ = env.do(t, http.MethodGet, "/api/v1/images?query=Oslo", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestGetNotifications(t *testing.T) {
	logger := zap.NewNop()
	notifier := services.NewNotifier(stubConditions{}, preferences.Default(), 10, nil, observability.NewMetricsForTesting(), logger)
	notifier.Poll(context.Background(), []string{"Pune"})

	env := newTestEnv(t, stubProvider{}, func(d *Dependencies) { d.Notifier = notifier })

	status, body := env.do(t, http.MethodGet, "/api/v1/notifications", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["enabled"])
	require.Len(t, body["notifications"], 1)
}

func TestSendFeedback(t *testing.T) {
	env := newTestEnv(t, stubProvider{})
	feedback := models.Feedback{Name: "Ada", Email: "ada@example.com", Message: "Nice charts"}

	status, _ := env.do(t, http.MethodPost, "/api/v1/feedback", feedback)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, feedback, env.mailer.sent[0])

	status, _ = env.do(t, http.MethodPost, "/api/v1/feedback", models.Feedback{Name: "Ada"})
	assert.Equal(t, http.StatusBadRequest, status)

	env.mailer.err = errors.New("upstream 500")
	status, _ = env.do(t, http.MethodPost, "/api/v1/feedback", feedback)
	assert.Equal(t, http.StatusBadGateway, status)

	env = newTestEnv(t, stubProvider{}, func(d *Dependencies) { d.Mailer = nil })
	status, _ = env.do(t, http.MethodPost, "/api/v1/feedback", feedback)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestGetHealth(t *testing.T) {
	env := newTestEnv(t, stubProvider{})
	status, body := env.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	env = newTestEnv(t, stubProvider{}, func(d *Dependencies) { d.Store = failingStore{} })
	status, body = env.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body["status"])
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	status, body := env.do(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "/api/v1/nope", body["path"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusConflict, statusFor(models.ErrSuperseded))
	assert.Equal(t, fiber.StatusBadRequest, statusFor(fmt.Errorf("%w: x", models.ErrValidation)))
	assert.Equal(t, fiber.StatusInternalServerError, statusFor(errors.New("other")))
}
