package weather

import (
	"fmt"
	"strconv"
	"strings"
)

// SuccessPrefix starts every successful current-weather reply. The bot
// relies on it to decide whether to offer forecast and news buttons.
const SuccessPrefix = "Погода в "

// ForecastStride samples one 3-hour forecast entry per day.
const ForecastStride = 8

// FormatCurrent renders a validated current-weather response followed by
// clothing advice.
func FormatCurrent(r *CurrentResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%s, %s:\n", SuccessPrefix, r.Name, r.Sys.Country)
	writeSnapshot(&sb, &r.Snapshot)
	sb.WriteString("\n")
	sb.WriteString(Advise(*r.Main.Temp))
	return sb.String()
}

// FormatForecast renders every ForecastStride-th entry of a validated
// forecast response under a header naming the city.
func FormatForecast(r *ForecastResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Прогноз погоды в %s, %s на следующие 5 дня:\n", r.City.Name, r.City.Country)
	for i := 0; i < len(r.List); i += ForecastStride {
		entry := &r.List[i]
		fmt.Fprintf(&sb, "\nДата: %s\n", entry.DtTxt)
		writeSnapshot(&sb, &entry.Snapshot)
	}
	return sb.String()
}

func writeSnapshot(sb *strings.Builder, s *Snapshot) {
	fmt.Fprintf(sb, "Описание: %s\n", s.Weather[0].Description)
	fmt.Fprintf(sb, "Температура: %s°C\n", num(*s.Main.Temp))
	fmt.Fprintf(sb, "Ощущается как: %s°C\n", num(*s.Main.FeelsLike))
	fmt.Fprintf(sb, "Влажность: %s%%\n", num(*s.Main.Humidity))
	fmt.Fprintf(sb, "Ветер: %s м/с\n", num(*s.Wind.Speed))
}

// num prints the shortest decimal form, so 5 stays "5" and 5.25 stays "5.25".
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
