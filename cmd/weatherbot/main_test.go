package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T, weatherBase, newsBase string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WEATHER_API_BASE", weatherBase)
	t.Setenv("NEWS_API_BASE", newsBase)
	t.Setenv("WEATHER_API_KEY", "wkey")
	t.Setenv("NEWS_API_KEY", "nkey")
	t.Setenv("WEATHERBOT_USAGE_DB", "")
	t.Setenv("WEATHERBOT_STATUS_ADDR", "")
	t.Setenv("WEATHERBOT_TRACING", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	configPath = ""
}

func TestLookupWeather_JoinsArgsIntoCity(t *testing.T) {
	var gotCity string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCity = r.URL.Query().Get("q")
		w.Write([]byte(`{"cod":200,"name":"Нижний Новгород","sys":{"country":"RU"},
			"weather":[{"description":"ясно"}],"main":{"temp":12,"feels_like":10,"humidity":50},"wind":{"speed":3}}`))
	}))
	defer srv.Close()
	isolateEnv(t, srv.URL, srv.URL)

	cmd := lookupCmd("weather", "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"Нижний", "Новгород"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "Нижний Новгород", gotCity)
	assert.True(t, strings.HasPrefix(out.String(), "Погода в Нижний Новгород, RU:"), out.String())
}

func TestLookupNews_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`))
	}))
	defer srv.Close()
	isolateEnv(t, srv.URL, srv.URL)

	cmd := lookupCmd("news", "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"Москва"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Не удалось найти новости для города: Москва")
	assert.NotContains(t, out.String(), "nkey")
}

func TestLookup_RequiresCity(t *testing.T) {
	cmd := lookupCmd("forecast", "")
	cmd.SetArgs(nil)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	assert.True(t, newLogger(&buf, "debug").Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, newLogger(&buf, "bogus").Enabled(context.Background(), slog.LevelDebug))
}
