package bot

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is the verb carried in an inline button payload.
type Action string

const (
	ActionForecast Action = "forecast"
	ActionNews     Action = "news"
)

const (
	// Telegram rejects callback data longer than 64 bytes.
	maxCallbackData = 64
	payloadSep      = "_"
	tokenMarker     = "~"
	defaultTokenTTL = 24 * time.Hour
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrExpired       = errors.New("payload token expired")
)

// Codec encodes button payloads as "<action>_<city>". Decoding takes the city
// as everything after the first separator, so underscores inside the city
// survive. When the literal payload would exceed Telegram's limit, or the
// city itself starts with the token marker, the city is kept server-side and
// the payload carries "~<uuid>" instead. Tokens live in memory only.
type Codec struct {
	mu     sync.Mutex
	tokens map[string]tokenEntry
	ttl    time.Duration
	now    func() time.Time
}

type tokenEntry struct {
	city    string
	expires time.Time
}

func NewCodec(ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Codec{
		tokens: make(map[string]tokenEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Encode returns the payload for pressing action on city.
func (c *Codec) Encode(action Action, city string) string {
	data := string(action) + payloadSep + city
	if len(data) <= maxCallbackData && !strings.HasPrefix(city, tokenMarker) {
		return data
	}

	id := uuid.NewString()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()
	c.tokens[id] = tokenEntry{city: city, expires: c.now().Add(c.ttl)}
	return string(action) + payloadSep + tokenMarker + id
}

// Decode splits a payload back into action and city.
func (c *Codec) Decode(data string) (Action, string, error) {
	head, city, ok := strings.Cut(data, payloadSep)
	if !ok {
		return "", "", ErrUnknownAction
	}
	action := Action(head)
	switch action {
	case ActionForecast, ActionNews:
	default:
		return "", "", ErrUnknownAction
	}
	if city == "" {
		return "", "", ErrUnknownAction
	}

	if !strings.HasPrefix(city, tokenMarker) {
		return action, city, nil
	}

	id := strings.TrimPrefix(city, tokenMarker)
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, found := c.tokens[id]
	if !found || c.now().After(entry.expires) {
		delete(c.tokens, id)
		return action, "", ErrExpired
	}
	return action, entry.city, nil
}

// Len returns the number of live tokens.
func (c *Codec) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tokens)
}

func (c *Codec) pruneLocked() {
	now := c.now()
	for id, e := range c.tokens {
		if now.After(e.expires) {
			delete(c.tokens, id)
		}
	}
}
