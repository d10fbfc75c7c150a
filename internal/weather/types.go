package weather

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingField marks a provider response that lacks a field the
// formatters need.
var ErrMissingField = errors.New("missing field")

// Code holds the provider's "cod" field verbatim. The current-weather endpoint
// sends a number on success, the forecast endpoint a string, and both send
// strings on failure, so the raw JSON token is kept for exact comparison.
type Code struct {
	raw json.RawMessage
}

func (c *Code) UnmarshalJSON(data []byte) error {
	c.raw = append(c.raw[:0], data...)
	return nil
}

// IsNumber reports whether the code is the JSON number n.
func (c Code) IsNumber(n int) bool {
	var v any
	dec := json.NewDecoder(bytes.NewReader(c.raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return false
	}
	// Decoding into any keeps quoted "200" a string.
	num, ok := v.(json.Number)
	if !ok {
		return false
	}
	i, err := num.Int64()
	return err == nil && i == int64(n)
}

// IsString reports whether the code is the JSON string s.
func (c Code) IsString(s string) bool {
	var v string
	if err := json.Unmarshal(c.raw, &v); err != nil {
		return false
	}
	return v == s
}

func (c Code) String() string { return string(c.raw) }

// Condition is one entry of the provider's "weather" array.
type Condition struct {
	Description string `json:"description"`
}

// Main carries the temperature block.
type Main struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	Humidity  *float64 `json:"humidity"`
}

type Wind struct {
	Speed *float64 `json:"speed"`
}

// Snapshot is the measurement part shared by current weather and forecast entries.
type Snapshot struct {
	Weather []Condition `json:"weather"`
	Main    *Main       `json:"main"`
	Wind    *Wind       `json:"wind"`
}

func (s *Snapshot) validate() error {
	switch {
	case len(s.Weather) == 0:
		return fmt.Errorf("%w: weather[0]", ErrMissingField)
	case s.Main == nil:
		return fmt.Errorf("%w: main", ErrMissingField)
	case s.Main.Temp == nil:
		return fmt.Errorf("%w: main.temp", ErrMissingField)
	case s.Main.FeelsLike == nil:
		return fmt.Errorf("%w: main.feels_like", ErrMissingField)
	case s.Main.Humidity == nil:
		return fmt.Errorf("%w: main.humidity", ErrMissingField)
	case s.Wind == nil || s.Wind.Speed == nil:
		return fmt.Errorf("%w: wind.speed", ErrMissingField)
	}
	return nil
}

// CurrentResponse is the body of the current-weather endpoint.
type CurrentResponse struct {
	Snapshot
	Cod     Code            `json:"cod"`
	Message json.RawMessage `json:"message"`
	Name    string          `json:"name"`
	Sys     *struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// MessageText returns the provider's failure message.
func (r *CurrentResponse) MessageText() string { return messageText(r.Message) }

// Validate checks the fields FormatCurrent reads.
func (r *CurrentResponse) Validate() error {
	if r.Sys == nil {
		return fmt.Errorf("%w: sys", ErrMissingField)
	}
	return r.Snapshot.validate()
}

// ForecastEntry is one 3-hour step of the forecast list.
type ForecastEntry struct {
	Snapshot
	DtTxt string `json:"dt_txt"`
}

// ForecastResponse is the body of the 5-day/3-hour forecast endpoint.
type ForecastResponse struct {
	Cod     Code            `json:"cod"`
	Message json.RawMessage `json:"message"`
	City    *struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
	List []ForecastEntry `json:"list"`
}

// MessageText returns the provider message. On success the forecast endpoint
// sends a number here, on failure a string.
func (r *ForecastResponse) MessageText() string { return messageText(r.Message) }

func messageText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Validate checks the fields FormatForecast reads, including only the
// sampled list entries.
func (r *ForecastResponse) Validate() error {
	if r.City == nil {
		return fmt.Errorf("%w: city", ErrMissingField)
	}
	if r.List == nil {
		return fmt.Errorf("%w: list", ErrMissingField)
	}
	for i := 0; i < len(r.List); i += ForecastStride {
		if err := r.List[i].validate(); err != nil {
			return fmt.Errorf("list[%d]: %w", i, err)
		}
	}
	return nil
}
