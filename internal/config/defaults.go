package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Telegram: TelegramConfig{
			PollTimeout: 30,
		},
		Weather: WeatherConfig{
			APIBase: "https://api.openweathermap.org/data/2.5",
			Units:   "metric",
			Lang:    "ru",
		},
		News: NewsConfig{
			APIBase:  "https://newsapi.org/v2",
			Language: "ru",
			SortBy:   "publishedAt",
			PageSize: 5,
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: 30,
		},
		Usage: UsageConfig{
			Enabled: false,
			DBPath:  "~/.weatherbot/usage.db",
		},
		Status: StatusConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8080,
		},
		Tracing: TracingConfig{
			Endpoint: "localhost:4317",
		},
	}
}
