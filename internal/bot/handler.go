// Package bot implements the conversation: greeting, per-city weather with
// forecast and news buttons, and the button actions.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"weatherbot/internal/domain"
	"weatherbot/internal/weather"
)

// WeatherService returns displayable weather texts. Implementations never fail.
type WeatherService interface {
	Current(ctx context.Context, city string) string
	Forecast(ctx context.Context, city string) string
}

// NewsService returns a displayable news digest. Implementations never fail.
type NewsService interface {
	Latest(ctx context.Context, city string) string
}

// Handler runs one conversation turn per inbound event. It keeps no state
// between turns apart from the payload codec's token table.
type Handler struct {
	messenger domain.Messenger
	weather   WeatherService
	news      NewsService
	codec     *Codec
	logger    *slog.Logger
}

type HandlerConfig struct {
	Messenger domain.Messenger
	Weather   WeatherService
	News      NewsService
	Codec     *Codec // optional
	Logger    *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Codec == nil {
		cfg.Codec = NewCodec(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		messenger: cfg.Messenger,
		weather:   cfg.Weather,
		news:      cfg.News,
		codec:     cfg.Codec,
		logger:    cfg.Logger,
	}
}

// HandleStart greets the user.
func (h *Handler) HandleStart(ctx context.Context, chatID int64) {
	h.reply(ctx, chatID, GreetingText)
}

// HandleText treats text as a city name: show a notice, fetch the weather,
// drop the notice, then reply. Buttons are attached only to a successful
// weather summary.
func (h *Handler) HandleText(ctx context.Context, chatID int64, text string) {
	if text == "" {
		return
	}
	city := text

	noticeID, err := h.messenger.Reply(ctx, chatID, NoticeText)
	if err != nil {
		h.logger.Warn("send notice failed", "chat_id", chatID, "err", err)
	}

	summary := h.weather.Current(ctx, city)

	if err == nil {
		if derr := h.messenger.Delete(ctx, chatID, noticeID); derr != nil {
			h.logger.Warn("delete notice failed", "chat_id", chatID, "message_id", noticeID, "err", derr)
		}
	}

	if !strings.HasPrefix(summary, weather.SuccessPrefix) {
		h.reply(ctx, chatID, summary)
		return
	}
	h.reply(ctx, chatID, summary,
		domain.Button{Text: ForecastButtonText, Data: h.codec.Encode(ActionForecast, city)},
		domain.Button{Text: NewsButtonText, Data: h.codec.Encode(ActionNews, city)},
	)
}

// HandleAction runs a button press: reply with the forecast or news for the
// embedded city, then delete the message that carried the buttons.
func (h *Handler) HandleAction(ctx context.Context, chatID int64, messageID int, data string) {
	action, city, err := h.codec.Decode(data)
	switch {
	case errors.Is(err, ErrExpired):
		h.reply(ctx, chatID, ExpiredText)
		return
	case err != nil:
		h.logger.Warn("ignoring callback", "chat_id", chatID, "data", data, "err", err)
		return
	}

	var text string
	switch action {
	case ActionForecast:
		text = h.weather.Forecast(ctx, city)
	case ActionNews:
		text = h.news.Latest(ctx, city)
	}
	h.reply(ctx, chatID, text)

	if err := h.messenger.Delete(ctx, chatID, messageID); err != nil {
		h.logger.Warn("delete action message failed", "chat_id", chatID, "message_id", messageID, "err", err)
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string, buttons ...domain.Button) {
	if _, err := h.messenger.Reply(ctx, chatID, text, buttons...); err != nil {
		h.logger.Error("reply failed", "chat_id", chatID, "err", err)
	}
}
