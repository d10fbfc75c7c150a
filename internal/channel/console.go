package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"weatherbot/internal/domain"
)

// consoleChatID is the single chat the console serves.
const consoleChatID int64 = 1

// Console is a terminal transport for trying the bot without Telegram.
// Buttons are printed with numbers; typing "#<n>" presses one.
type Console struct {
	logger *slog.Logger
	in     io.Reader
	out    io.Writer

	mu       sync.Mutex
	nextID   int
	keyboard map[int][]domain.Button // message ID -> buttons
	lastKbID int
}

var _ domain.Messenger = (*Console)(nil)

type ConsoleConfig struct {
	Logger *slog.Logger
	In     io.Reader
	Out    io.Writer
}

func NewConsole(cfg ConsoleConfig) *Console {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Console{
		logger:   cfg.Logger,
		in:       cfg.In,
		out:      cfg.Out,
		keyboard: make(map[int][]domain.Button),
	}
}

// Run reads lines until EOF, /quit or ctx cancellation. Turns run one at a time.
func (c *Console) Run(ctx context.Context, h UpdateHandler) error {
	_, _ = fmt.Fprintln(c.out, "Weather bot console. Type a city, /start for help, #1 or #2 to press a button, /quit to exit.")
	_, _ = fmt.Fprint(c.out, "You> ")

	scanner := bufio.NewScanner(c.in)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		// Only empty lines are skipped, as with empty Telegram messages.
		case line == "":
		case line == "/quit" || line == "/exit" || line == "/q":
			c.logger.Info("user requested quit")
			return nil
		case line == "/start" || line == "/help":
			h.HandleStart(ctx, consoleChatID)
		case strings.HasPrefix(line, "#"):
			c.press(ctx, h, strings.TrimPrefix(line, "#"))
		default:
			h.HandleText(ctx, consoleChatID, line)
		}
		_, _ = fmt.Fprint(c.out, "You> ")
	}
}

func (c *Console) press(ctx context.Context, h UpdateHandler, arg string) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))

	c.mu.Lock()
	msgID := c.lastKbID
	buttons := c.keyboard[msgID]
	c.mu.Unlock()

	if err != nil || n < 1 || n > len(buttons) {
		_, _ = fmt.Fprintln(c.out, "(no such button)")
		return
	}
	h.HandleAction(ctx, consoleChatID, msgID, buttons[n-1].Data)
}

// Reply prints a message and its buttons.
func (c *Console) Reply(_ context.Context, _ int64, text string, buttons ...domain.Button) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	if _, err := fmt.Fprintf(c.out, "\n--- #%d ---\n%s\n", id, text); err != nil {
		return 0, err
	}
	for i, b := range buttons {
		_, _ = fmt.Fprintf(c.out, "  [%d] %s\n", i+1, b.Text)
	}
	if len(buttons) > 0 {
		c.keyboard[id] = buttons
		c.lastKbID = id
	}
	return id, nil
}

// Delete forgets a message's buttons and notes the removal.
func (c *Console) Delete(_ context.Context, _ int64, messageID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keyboard, messageID)
	if c.lastKbID == messageID {
		c.lastKbID = 0
	}
	_, err := fmt.Fprintf(c.out, "(message #%d removed)\n", messageID)
	return err
}
