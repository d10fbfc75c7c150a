package bot

// User-facing texts. The bot speaks Russian only.
const (
	GreetingText = "Привет! Я бот, который может показать погоду.\n" +
		"Просто отправьте мне название города, и я верну текущую информацию о погоде.\n" +
		"Например, попробуйте отправить \"Москва\" или \"Лондон\"."

	NoticeText = "Пожалуйста, подождите, пока я получаю данные о погоде..."

	ForecastButtonText = "Погода на следующие 5 дня"
	NewsButtonText     = "Последние новости"

	ExpiredText = "Этот запрос устарел. Отправьте название города ещё раз."
)
