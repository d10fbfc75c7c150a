package weather

import (
	"encoding/json"
	"fmt"
	"strings"
)

func currentBody(temp float64) string {
	return fmt.Sprintf(`{
		"cod": 200,
		"name": "Moscow",
		"sys": {"country": "RU"},
		"weather": [{"description": "пасмурно"}],
		"main": {"temp": %v, "feels_like": 2.5, "humidity": 81},
		"wind": {"speed": 4.1}
	}`, temp)
}

func forecastBody(n int) string {
	entries := make([]string, n)
	for i := range entries {
		entries[i] = fmt.Sprintf(`{
			"dt_txt": "2026-10-%02d %02d:00:00",
			"weather": [{"description": "ясно"}],
			"main": {"temp": %d, "feels_like": %d, "humidity": 60},
			"wind": {"speed": 2}
		}`, 20+i/8, (i%8)*3, i, i-1)
	}
	return fmt.Sprintf(`{"cod": "200", "message": 0, "cnt": %d, "city": {"name": "Moscow", "country": "RU"}, "list": [%s]}`,
		n, strings.Join(entries, ","))
}

func mustCurrent(body string) *CurrentResponse {
	var r CurrentResponse
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		panic(err)
	}
	return &r
}

func mustForecast(body string) *ForecastResponse {
	var r ForecastResponse
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		panic(err)
	}
	return &r
}
