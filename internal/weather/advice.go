package weather

// Clothing advice texts, one per temperature band.
const (
	AdviceVeryCold = "Совет по одежде: Очень холодно! Наденьте теплую куртку, шапку, шарф и перчатки."
	AdviceCold     = "Совет по одежде: Холодно. Наденьте куртку и свитер."
	AdviceCool     = "Совет по одежде: Прохладно. Рекомендуется надеть легкую куртку или свитер."
	AdviceWarm     = "Совет по одежде: Тепло. Наденьте футболку и легкую одежду."
	AdviceVeryHot  = "Совет по одежде: Очень жарко! Наденьте легкую и свободную одежду."
)

// Advise maps a temperature in °C to clothing advice. Bands are half-open
// [lower, upper) and checked in ascending order.
func Advise(tempC float64) string {
	switch {
	case tempC < 0:
		return AdviceVeryCold
	case tempC < 10:
		return AdviceCold
	case tempC < 20:
		return AdviceCool
	case tempC < 30:
		return AdviceWarm
	default:
		return AdviceVeryHot
	}
}
