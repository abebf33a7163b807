package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Delimiter separates columns on the broker transport. Values are written as
// plain text with no quoting, decimal point only.
const Delimiter = ","

var ErrMalformedRecord = errors.New("malformed record")

// Type codes identify the originating event on the shared broker topic.
const (
	TypeCheckin     = 1
	TypeShower      = 2
	TypeTemperature = 3
	TypeNoise       = 4
	TypeCheckout    = 5
)

// Format declares the fixed column order of one flat record layout.
type Format struct {
	Name    string
	Columns []string
}

var (
	FormatCheckin = Format{
		Name: "checkin",
		Columns: []string{
			"demozone", "timestamp", "type", "customerID", "bookingID",
			"roomID", "checkinTimestamp", "mood", "gender", "temperature",
		},
	}
	FormatCheckout = Format{
		Name: "checkout",
		Columns: []string{
			"demozone", "timestamp", "type", "customerID", "bookingID",
			"roomID", "checkoutTimestamp", "mood", "extra",
		},
	}
	FormatShower = Format{
		Name: "shower",
		Columns: []string{
			"demozone", "timestamp", "type", "roomID",
			"readingTimestamp", "flow", "temp",
		},
	}
	FormatNoise = Format{
		Name: "noise",
		Columns: []string{
			"demozone", "timestamp", "type", "roomID",
			"readingTimestamp", "decibel",
		},
	}
	FormatTemperature = Format{
		Name: "temperature",
		Columns: []string{
			"demozone", "timestamp", "type", "roomID",
			"readingTimestamp", "value",
		},
	}
	// FormatReverse is the broker-originated direction consumed by the
	// write-back worker.
	FormatReverse = Format{
		Name: "reverse",
		Columns: []string{
			"customerID", "bookingID", "timestamp", "type",
			"demozone", "roomID", "mood",
		},
	}
)

// Record is one flat line on the broker transport. Immutable once produced;
// its column count always matches its format.
type Record struct {
	Format  Format
	Columns []string
}

// NewRecord builds a record, rejecting any column-count mismatch so a
// malformed intermediate never reaches the broker client.
func NewRecord(f Format, columns []string) (Record, error) {
	if len(columns) != len(f.Columns) {
		return Record{}, fmt.Errorf("%w: format %s wants %d columns, got %d",
			ErrMalformedRecord, f.Name, len(f.Columns), len(columns))
	}
	return Record{Format: f, Columns: columns}, nil
}

// Line renders the record as one delimited line.
func (r Record) Line() string {
	return strings.Join(r.Columns, Delimiter)
}

// Decode splits a flat line per the format and asserts the exact column
// count, returning ErrMalformedRecord otherwise. Malformed lines are dropped
// by callers, never retried.
func Decode(f Format, line string) (Record, error) {
	columns := strings.Split(line, Delimiter)
	if len(columns) != len(f.Columns) {
		return Record{}, fmt.Errorf("%w: format %s wants %d columns, got %d",
			ErrMalformedRecord, f.Name, len(f.Columns), len(columns))
	}
	return Record{Format: f, Columns: columns}, nil
}

// EncodeCheckin flattens a validated CHECKIN payload. The temperature column
// is a derivation that is intentionally not computed and stays at its
// sentinel value.
func EncodeCheckin(demozone string, payload map[string]any, at time.Time) (Record, error) {
	return NewRecord(FormatCheckin, []string{
		demozone,
		at.UTC().Format(time.RFC3339),
		strconv.Itoa(TypeCheckin),
		lookupText(payload, "customer.customerID"),
		lookupText(payload, "booking.bookingID"),
		lookupText(payload, "booking.roomID"),
		lookupText(payload, "checkin.timestamp"),
		strconv.Itoa(MoodCode(lookupText(payload, "checkin.mood"))),
		strconv.Itoa(GenderCode(lookupText(payload, "checkin.gender"))),
		strconv.Itoa(DerivedUnset),
	})
}

// EncodeCheckout flattens a validated CHECKOUT payload. The mood column is a
// derivation that is intentionally not computed; the trailing extra column is
// reserved and left empty.
func EncodeCheckout(demozone string, payload map[string]any, at time.Time) (Record, error) {
	return NewRecord(FormatCheckout, []string{
		demozone,
		at.UTC().Format(time.RFC3339),
		strconv.Itoa(TypeCheckout),
		lookupText(payload, "customer.customerID"),
		lookupText(payload, "booking.bookingID"),
		lookupText(payload, "booking.roomID"),
		lookupText(payload, "booking.checkoutdate"),
		strconv.Itoa(DerivedUnset),
		"",
	})
}

// EncodeEvent maps a broker-bound event to its wire record.
func EncodeEvent(eventName, demozone string, payload map[string]any, at time.Time) (Record, error) {
	switch strings.ToUpper(strings.TrimSpace(eventName)) {
	case "CHECKIN":
		return EncodeCheckin(demozone, payload, at)
	case "CHECKOUT":
		return EncodeCheckout(demozone, payload, at)
	default:
		return Record{}, fmt.Errorf("no wire format declared for event %s", eventName)
	}
}

// EncodeShower flattens one shower sensor reading.
func EncodeShower(demozone string, data map[string]any, at time.Time) (Record, error) {
	return NewRecord(FormatShower, []string{
		demozone,
		at.UTC().Format(time.RFC3339),
		strconv.Itoa(TypeShower),
		lookupText(data, "roomID"),
		lookupText(data, "timestamp"),
		lookupText(data, "flow"),
		lookupText(data, "temp"),
	})
}

// EncodeNoise flattens one noise sensor reading.
func EncodeNoise(demozone string, data map[string]any, at time.Time) (Record, error) {
	return NewRecord(FormatNoise, []string{
		demozone,
		at.UTC().Format(time.RFC3339),
		strconv.Itoa(TypeNoise),
		lookupText(data, "roomID"),
		lookupText(data, "timestamp"),
		lookupText(data, "decibel"),
	})
}

// EncodeTemperature flattens one room temperature reading.
func EncodeTemperature(demozone string, data map[string]any, at time.Time) (Record, error) {
	return NewRecord(FormatTemperature, []string{
		demozone,
		at.UTC().Format(time.RFC3339),
		strconv.Itoa(TypeTemperature),
		lookupText(data, "roomID"),
		lookupText(data, "timestamp"),
		lookupText(data, "value"),
	})
}

// ReverseMessage is the decoded form of the fixed 7-column broker-originated
// record.
type ReverseMessage struct {
	CustomerID string
	BookingID  int64
	Timestamp  string
	Type       int
	Demozone   string
	RoomID     int64
	Mood       int
}

// DecodeReverse parses a reverse-direction line into its structured form.
func DecodeReverse(line string) (ReverseMessage, error) {
	rec, err := Decode(FormatReverse, line)
	if err != nil {
		return ReverseMessage{}, err
	}

	bookingID, err := strconv.ParseInt(rec.Columns[1], 10, 64)
	if err != nil {
		return ReverseMessage{}, fmt.Errorf("%w: bookingID: %v", ErrMalformedRecord, err)
	}
	typeCode, err := strconv.Atoi(rec.Columns[3])
	if err != nil {
		return ReverseMessage{}, fmt.Errorf("%w: type: %v", ErrMalformedRecord, err)
	}
	roomID, err := strconv.ParseInt(rec.Columns[5], 10, 64)
	if err != nil {
		return ReverseMessage{}, fmt.Errorf("%w: roomID: %v", ErrMalformedRecord, err)
	}
	mood, err := strconv.Atoi(rec.Columns[6])
	if err != nil {
		return ReverseMessage{}, fmt.Errorf("%w: mood: %v", ErrMalformedRecord, err)
	}

	return ReverseMessage{
		CustomerID: rec.Columns[0],
		BookingID:  bookingID,
		Timestamp:  rec.Columns[2],
		Type:       typeCode,
		Demozone:   rec.Columns[4],
		RoomID:     roomID,
		Mood:       mood,
	}, nil
}

// lookupText walks a dotted path into the payload and renders the value as
// wire text. Numbers use plain decimal notation with no thousands separators.
func lookupText(payload map[string]any, path string) string {
	var current any = payload
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = m[part]
		if !ok {
			return ""
		}
	}
	return formatValue(current)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
