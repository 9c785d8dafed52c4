package signal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed marks a wire record that cannot be turned into an Observation.
var ErrMalformed = errors.New("malformed observation")

type wireRecord struct {
	Date   *string         `json:"date"`
	Price  json.RawMessage `json:"price"`
	Symbol *string         `json:"symbol"`
}

// Offset-less ISO layouts are read in local time.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseObservation decodes one {"date","price","symbol"} record.
func ParseObservation(data []byte) (Observation, error) {
	var rec wireRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rec.Date == nil {
		return Observation{}, fmt.Errorf("%w: missing date", ErrMalformed)
	}
	ts, err := ParseTime(*rec.Date)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	px, err := parsePrice(rec.Price)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	obs := Observation{Time: ts, Price: px}
	if rec.Symbol != nil {
		obs.Symbol = *rec.Symbol
	}
	return obs, nil
}

// ParseTime accepts RFC3339 timestamps (a trailing Z is read as UTC) and offset-less ISO forms.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	for _, layout := range localLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

func parsePrice(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("missing price")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		px, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid price %q", s)
		}
		return px, nil
	}
	var px float64
	if err := json.Unmarshal(raw, &px); err != nil {
		return 0, fmt.Errorf("invalid price %s", raw)
	}
	return px, nil
}

// MarshalJSON writes the observation in the wire record format.
func (o Observation) MarshalJSON() ([]byte, error) {
	out := struct {
		Date   string  `json:"date"`
		Price  float64 `json:"price"`
		Symbol string  `json:"symbol,omitempty"`
	}{
		Date:   o.Time.Format(time.RFC3339Nano),
		Price:  o.Price,
		Symbol: o.Symbol,
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (o *Observation) UnmarshalJSON(data []byte) error {
	obs, err := ParseObservation(data)
	if err != nil {
		return err
	}
	*o = obs
	return nil
}
