package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_LiteralRoundTrip(t *testing.T) {
	c := NewCodec(time.Hour)
	for _, city := range []string{"Moscow", "New York", "Санкт-Петербург", "New_York", "Ростов-на-Дону"} {
		for _, action := range []Action{ActionForecast, ActionNews} {
			data := c.Encode(action, city)
			assert.Equal(t, string(action)+"_"+city, data)

			gotAction, gotCity, err := c.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, action, gotAction)
			assert.Equal(t, city, gotCity)
		}
	}
	assert.Equal(t, 0, c.Len())
}

func TestCodec_LongCityUsesToken(t *testing.T) {
	c := NewCodec(time.Hour)
	city := "Льянвайр-Пуллгуингилл-Гогерихуирндробуллантисилиогогогох"
	data := c.Encode(ActionNews, city)

	assert.LessOrEqual(t, len(data), maxCallbackData)
	assert.True(t, strings.HasPrefix(data, "news_~"))
	assert.Equal(t, 1, c.Len())

	action, got, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, ActionNews, action)
	assert.Equal(t, city, got)
}

func TestCodec_CityWithMarkerUsesToken(t *testing.T) {
	c := NewCodec(time.Hour)
	data := c.Encode(ActionForecast, "~Paris")
	assert.NotEqual(t, "forecast_~Paris", data)

	_, got, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "~Paris", got)
}

func TestCodec_ExpiredToken(t *testing.T) {
	c := NewCodec(time.Minute)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	data := c.Encode(ActionForecast, strings.Repeat("x", 80))
	now = now.Add(2 * time.Minute)

	_, _, err := c.Decode(data)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, 0, c.Len())
}

func TestCodec_UnknownTokenIsExpired(t *testing.T) {
	c := NewCodec(time.Hour)
	_, _, err := c.Decode("news_~00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCodec_PrunesOnEncode(t *testing.T) {
	c := NewCodec(time.Minute)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Encode(ActionNews, strings.Repeat("a", 80))
	now = now.Add(2 * time.Minute)
	c.Encode(ActionNews, strings.Repeat("b", 80))
	assert.Equal(t, 1, c.Len())
}

func TestCodec_UnknownAction(t *testing.T) {
	c := NewCodec(time.Hour)
	for _, data := range []string{"confirm_yes", "weather_Moscow", "forecast", "", "forecast_", "news_"} {
		_, _, err := c.Decode(data)
		assert.ErrorIs(t, err, ErrUnknownAction, data)
	}
}
