package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"weatherbot/internal/domain"
	"weatherbot/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	telegramMaxMsgLen      = 4000
	telegramMaxSendRetries = 3
)

// UpdateHandler receives decoded chat events. bot.Handler implements it.
type UpdateHandler interface {
	HandleStart(ctx context.Context, chatID int64)
	HandleText(ctx context.Context, chatID int64, text string)
	HandleAction(ctx context.Context, chatID int64, messageID int, data string)
}

// botAPI is the subset of *tgbotapi.BotAPI the channel uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram is the Telegram Bot API transport. It implements domain.Messenger
// and feeds updates from long polling to an UpdateHandler.
type Telegram struct {
	token       string
	pollTimeout int

	bot    botAPI
	logger *slog.Logger

	turns sync.WaitGroup
}

var _ domain.Messenger = (*Telegram)(nil)

type TelegramConfig struct {
	Token       string
	PollTimeout int // seconds
	Logger      *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Telegram{
		token:       cfg.Token,
		pollTimeout: cfg.PollTimeout,
		logger:      cfg.Logger,
	}
}

// Connect authenticates with the Bot API. It must be called before Run,
// Reply or Delete.
func (t *Telegram) Connect() error {
	api, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = api
	t.logger.Info("telegram bot connected",
		"username", api.Self.UserName,
		"id", api.Self.ID,
	)
	return nil
}

// Run polls for updates until ctx is cancelled. Each update is handled in
// its own goroutine; Run returns after in-flight turns finish.
func (t *Telegram) Run(ctx context.Context, h UpdateHandler) error {
	if t.bot == nil {
		return errors.New("telegram: Run called before Connect")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout
	updates := t.bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")
	defer t.turns.Wait()

	// Turns outlive shutdown: a started turn always sends its reply.
	turnCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram channel stopping")
			t.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.turns.Add(1)
			go func() {
				defer t.turns.Done()
				t.dispatch(turnCtx, update, h)
			}()
		}
	}
}

func (t *Telegram) dispatch(ctx context.Context, update tgbotapi.Update, h UpdateHandler) {
	metrics.UpdatesTotal.Inc()
	metrics.TurnsInFlight.Inc()
	defer metrics.TurnsInFlight.Dec()

	ctx, span := otel.Tracer("weatherbot/channel").Start(ctx, "telegram.update",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.Int("telegram.update_id", update.UpdateID)),
	)
	defer span.End()

	if cq := update.CallbackQuery; cq != nil {
		if cq.Message == nil || cq.Message.Chat == nil {
			return
		}
		span.SetAttributes(attribute.String("telegram.kind", "callback"))
		// Stop the client's loading spinner right away.
		if _, err := t.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			t.logger.Debug("answer callback failed", "err", err)
		}
		t.logger.Info("telegram callback received",
			"chat_id", cq.Message.Chat.ID,
			"message_id", cq.Message.MessageID,
		)
		h.HandleAction(ctx, cq.Message.Chat.ID, cq.Message.MessageID, cq.Data)
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		span.SetAttributes(attribute.String("telegram.kind", "command"))
		switch msg.Command() {
		case "start", "help":
			h.HandleStart(ctx, chatID)
			return
		}
	}

	span.SetAttributes(attribute.String("telegram.kind", "text"))
	t.logger.Info("telegram message received",
		"chat_id", chatID,
		"text_len", len(msg.Text),
	)
	h.HandleText(ctx, chatID, msg.Text)
}

// Reply sends text, split at the message size limit. Buttons go on the last
// chunk, whose message ID is returned.
func (t *Telegram) Reply(ctx context.Context, chatID int64, text string, buttons ...domain.Button) (int, error) {
	chunks := splitMessage(text, telegramMaxMsgLen)
	var lastID int
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if i == len(chunks)-1 && len(buttons) > 0 {
			row := make([]tgbotapi.InlineKeyboardButton, len(buttons))
			for j, b := range buttons {
				row[j] = tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data)
			}
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
		}
		sent, err := t.send(ctx, msg)
		if err != nil {
			return 0, err
		}
		lastID = sent.MessageID
	}
	return lastID, nil
}

// Delete removes a message from the chat.
func (t *Telegram) Delete(_ context.Context, chatID int64, messageID int) error {
	if _, err := t.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	return nil
}

// send delivers one message, waiting out Telegram rate limits (HTTP 429).
// Other errors are returned immediately.
func (t *Telegram) send(ctx context.Context, msg tgbotapi.MessageConfig) (tgbotapi.Message, error) {
	for attempt := 0; ; attempt++ {
		sent, err := t.bot.Send(msg)
		if err == nil {
			return sent, nil
		}

		var apiErr *tgbotapi.Error
		if !errors.As(err, &apiErr) || apiErr.Code != 429 || attempt >= telegramMaxSendRetries {
			return tgbotapi.Message{}, fmt.Errorf("telegram send: %w", err)
		}

		retryAfter := time.Duration(apiErr.RetryAfter) * time.Second
		if retryAfter <= 0 {
			retryAfter = time.Duration(attempt+1) * time.Second
		}
		t.logger.Warn("telegram rate limited, backing off",
			"retry_after", retryAfter, "attempt", attempt+1,
		)
		select {
		case <-ctx.Done():
			return tgbotapi.Message{}, ctx.Err()
		case <-time.After(retryAfter):
		}
	}
}
