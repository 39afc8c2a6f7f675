package server_test

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	httphandler "github.com/kjstillabower/subscription-intake-service/internal/http"
	"github.com/kjstillabower/subscription-intake-service/internal/testhelpers"
	"github.com/kjstillabower/subscription-intake-service/internal/validation"
)

func TestHealthCheckWorks(t *testing.T) {
	t.Parallel()
	app := testhelpers.SpawnApp(t)

	resp, err := app.Client.R().Get("/health_check")

	require.NoError(t, err, "Failed to execute request.")
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Empty(t, resp.Body())
	assert.Equal(t, int64(0), resp.RawResponse.ContentLength)
}

func TestSubscribeReturns200ForValidFormData(t *testing.T) {
	t.Parallel()
	app := testhelpers.SpawnApp(t)

	resp, err := app.Client.R().
		SetFormData(map[string]string{"name": "le guin", "email": "ursula_le_guin@gmail.com"}).
		Post("/subscriptions")

	require.NoError(t, err, "Failed to execute request.")
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestSubscribeReturns200ForRawEncodedBody(t *testing.T) {
	t.Parallel()
	app := testhelpers.SpawnApp(t)

	resp, err := app.Client.R().
		SetHeader("Content-Type", validation.FormContentType).
		SetBody("name=le+guin&email=ursula_le_guin%40gmail.com").
		Post("/subscriptions")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestSubscribeReturns400WhenDataIsMissing(t *testing.T) {
	t.Parallel()
	app := testhelpers.SpawnApp(t)

	tests := []struct {
		body         string
		errorMessage string
	}{
		{"name=le+guin", "missing the email"},
		{"email=ursula_le_guin%40gmail.com", "missing the name"},
		{"", "missing both name and email"},
	}
	for _, tc := range tests {
		resp, err := app.Client.R().
			SetHeader("Content-Type", validation.FormContentType).
			SetBody(tc.body).
			Post("/subscriptions")

		require.NoError(t, err, "Failed to execute request.")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode(),
			"The API did not fail with 400 Bad Request when the payload was %s.", tc.errorMessage)
	}
}

func TestSubscribeReturns400ForNonFormBody(t *testing.T) {
	t.Parallel()
	app := testhelpers.SpawnApp(t)

	resp, err := app.Client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(`{"name":"le guin","email":"ursula_le_guin@gmail.com"}`).
		Post("/subscriptions")

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
}

func TestSubscribeIsIdempotent(t *testing.T) {
	t.Parallel()
	app := testhelpers.SpawnApp(t)
	form := map[string]string{"name": "le guin", "email": "ursula_le_guin@gmail.com"}

	for i := 0; i < 2; i++ {
		resp, err := app.Client.R().SetFormData(form).Post("/subscriptions")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode(), "attempt %d", i+1)
	}
}

func TestConcurrentSubscriptions(t *testing.T) {
	t.Parallel()
	app := testhelpers.SpawnApp(t)

	const n = 25
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := app.Client.R().
				SetFormData(map[string]string{"name": "le guin", "email": "ursula_le_guin@gmail.com"}).
				Post("/subscriptions")
			if err == nil {
				codes[i] = resp.StatusCode()
			}
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "request %d", i)
	}
}

func TestSubscribeRateLimited(t *testing.T) {
	t.Parallel()
	app := testhelpers.SpawnAppWithConfig(t, httphandler.RouterConfig{Limiter: rate.NewLimiter(rate.Limit(0), 1)})
	form := map[string]string{"name": "le guin", "email": "ursula_le_guin@gmail.com"}

	first, err := app.Client.R().SetFormData(form).Post("/subscriptions")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, first.StatusCode())

	second, err := app.Client.R().SetFormData(form).Post("/subscriptions")
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode())

	health, err := app.Client.R().Get("/health_check")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, health.StatusCode(), "health check must not be rate limited")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	app := testhelpers.SpawnApp(t)

	resp, err := app.Client.R().Get("/metrics")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.String(), "httpRequestsTotal")
}
