package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// TickType distinguishes trade-derived vs quote-derived subscriptions for
// the same Symbol/Resolution pair (a symbol can be subscribed on both at
// once, each producing an independent stream).
type TickType int

const (
	TickTypeTrade TickType = iota
	TickTypeQuote
)

func (t TickType) String() string {
	if t == TickTypeQuote {
		return "quote"
	}
	return "trade"
}

// SubscriptionDataSource names one concrete, openable location a data
// config's points can be read from: a local path, a remote URL, or an entry
// inside a zip archive. TransportKind tells the transport layer (package
// transport) which Transport implementation to hand this source to.
type TransportKind int

const (
	TransportLocalFile TransportKind = iota
	TransportRemoteFile
	TransportRest
	TransportZipEntry
)

func (k TransportKind) String() string {
	switch k {
	case TransportLocalFile:
		return "local_file"
	case TransportRemoteFile:
		return "remote_file"
	case TransportRest:
		return "rest"
	case TransportZipEntry:
		return "zip_entry"
	default:
		return "unknown"
	}
}

// FileFormat tells the reader layer how to split the opened stream into
// individual BaseData records.
type FileFormat int

const (
	FormatText FileFormat = iota
	FormatCollection
	FormatZipEntryName
)

// SubscriptionDataSource is the (possibly parameterized) locator for a
// single day/shard/poll of a SubscriptionDataConfig's underlying data.
type SubscriptionDataSource struct {
	Locator   string // file path, URL, or zip entry pattern
	Transport TransportKind
	Format    FileFormat
	// ZipEntryName is only meaningful when Transport == TransportZipEntry;
	// it selects the entry within the archive named by Locator.
	ZipEntryName string
}

// SubscriptionDataConfig fully describes one subscription's data contract:
// what symbol, what resolution, what kind of data, and how to source it.
// Two configs with equal Key() refer to the same logical subscription.
//
// DataTimeZone and ExchangeTimeZone may be nil. A nil ExchangeTimeZone makes
// IsOpenAt resolve the session in UTC; a feed with no exchange calendar,
// eg. FX or crypto, leaves MarketOpen/MarketClose unset and is then always
// open (see IsOpenAt). DataTimeZone records the
// zone the underlying source's raw timestamps are expressed in, which can
// differ from the exchange's own zone for feeds re-stamped by a vendor.
type SubscriptionDataConfig struct {
	Symbol     Symbol
	Resolution Resolution
	Kind       DataKind
	TickType   TickType
	IsInternal bool // injected by universe selection (e.g. currency feeds), never surfaced to the algorithm callback
	FillForward bool
	ExtendedHours bool

	DataTimeZone     *time.Location
	ExchangeTimeZone *time.Location

	// MarketOpen/MarketClose are offsets from exchange-local midnight
	// bounding the regular session; MarketOpen == MarketClose == 0 (the
	// zero value) means "no exchange calendar", ie. continuously open.
	// ExtendedOpen/ExtendedClose widen that window when ExtendedHours is
	// set and are ignored otherwise.
	MarketOpen    time.Duration
	MarketClose   time.Duration
	ExtendedOpen  time.Duration
	ExtendedClose time.Duration
}

// IsOpenAt reports whether t (an absolute instant) falls inside this
// config's trading session, resolved in ExchangeTimeZone (UTC if unset). A
// config that never set MarketOpen/MarketClose is treated as continuously
// open, which keeps every existing FX/crypto/test fixture behaving exactly
// as before this field was introduced. This does not model exchange
// holidays — only the daily open/close and weekday window the spec's
// fill-forward boundary behavior requires.
func (c SubscriptionDataConfig) IsOpenAt(t time.Time) bool {
	if c.MarketOpen == 0 && c.MarketClose == 0 {
		return true
	}

	loc := c.ExchangeTimeZone
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}

	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	sinceMidnight := local.Sub(dayStart)

	open, close := c.MarketOpen, c.MarketClose
	if c.ExtendedHours {
		if c.ExtendedOpen > 0 {
			open = c.ExtendedOpen
		}
		if c.ExtendedClose > 0 {
			close = c.ExtendedClose
		}
	}
	return sinceMidnight >= open && sinceMidnight < close
}

// Key returns the identity used by SubscriptionCollection's registry: two
// configs produce independent subscriptions unless every field here matches.
type ConfigKey struct {
	Symbol     Symbol
	Resolution Resolution
	Kind       DataKind
	TickType   TickType
}

func (c SubscriptionDataConfig) Key() ConfigKey {
	return ConfigKey{
		Symbol:     c.Symbol,
		Resolution: c.Resolution,
		Kind:       c.Kind,
		TickType:   c.TickType,
	}
}

// configJSON mirrors SubscriptionDataConfig's exported fields; marshaling
// through it (rather than deriving json tags directly on the public struct)
// keeps the wire shape stable even if internal field order changes.
// time.Location isn't itself JSON-marshalable, so zones round-trip as IANA
// names ("" for a nil Location).
type configJSON struct {
	Symbol        Symbol        `json:"symbol"`
	Resolution    Resolution    `json:"resolution"`
	Kind          DataKind      `json:"kind"`
	TickType      TickType      `json:"tick_type"`
	IsInternal    bool          `json:"is_internal"`
	FillForward   bool          `json:"fill_forward"`
	ExtendedHours bool          `json:"extended_hours"`
	DataTimeZone  string        `json:"data_time_zone,omitempty"`
	ExchangeTimeZone string     `json:"exchange_time_zone,omitempty"`
	MarketOpen    time.Duration `json:"market_open,omitempty"`
	MarketClose   time.Duration `json:"market_close,omitempty"`
	ExtendedOpen  time.Duration `json:"extended_open,omitempty"`
	ExtendedClose time.Duration `json:"extended_close,omitempty"`
}

func zoneName(loc *time.Location) string {
	if loc == nil {
		return ""
	}
	return loc.String()
}

func (c SubscriptionDataConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(configJSON{
		Symbol:           c.Symbol,
		Resolution:       c.Resolution,
		Kind:             c.Kind,
		TickType:         c.TickType,
		IsInternal:       c.IsInternal,
		FillForward:      c.FillForward,
		ExtendedHours:    c.ExtendedHours,
		DataTimeZone:     zoneName(c.DataTimeZone),
		ExchangeTimeZone: zoneName(c.ExchangeTimeZone),
		MarketOpen:       c.MarketOpen,
		MarketClose:      c.MarketClose,
		ExtendedOpen:     c.ExtendedOpen,
		ExtendedClose:    c.ExtendedClose,
	})
}

func (c *SubscriptionDataConfig) UnmarshalJSON(data []byte) error {
	var j configJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}

	var dataZone, exchangeZone *time.Location
	if j.DataTimeZone != "" {
		loc, err := time.LoadLocation(j.DataTimeZone)
		if err != nil {
			return fmt.Errorf("model: decoding data_time_zone %q: %w", j.DataTimeZone, err)
		}
		dataZone = loc
	}
	if j.ExchangeTimeZone != "" {
		loc, err := time.LoadLocation(j.ExchangeTimeZone)
		if err != nil {
			return fmt.Errorf("model: decoding exchange_time_zone %q: %w", j.ExchangeTimeZone, err)
		}
		exchangeZone = loc
	}

	*c = SubscriptionDataConfig{
		Symbol:           j.Symbol,
		Resolution:       j.Resolution,
		Kind:             j.Kind,
		TickType:         j.TickType,
		IsInternal:       j.IsInternal,
		FillForward:      j.FillForward,
		ExtendedHours:    j.ExtendedHours,
		DataTimeZone:     dataZone,
		ExchangeTimeZone: exchangeZone,
		MarketOpen:       j.MarketOpen,
		MarketClose:      j.MarketClose,
		ExtendedOpen:     j.ExtendedOpen,
		ExtendedClose:    j.ExtendedClose,
	}
	return nil
}
