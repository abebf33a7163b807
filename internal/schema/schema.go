package schema

import (
	"strings"
)

// NumericRule constrains a field that must carry a JSON number.
type NumericRule struct {
	IntegerOnly    bool
	MustBePositive bool
}

// FieldRule is the validation rule set for a single field path.
type FieldRule struct {
	Required bool
	Numeric  *NumericRule
}

// Field binds a dotted field path (e.g. "booking.bookingID") to its rules.
// Schemas keep their declaration order so validation failures are deterministic.
type Field struct {
	Path string
	Rule FieldRule
}

// EventSchema is the ordered rule list for one event type.
type EventSchema []Field

// Definition describes one recognized event type. Names are stored in their
// uppercase canonical form; BrokerBound marks event types that are forwarded
// to the message broker in addition to the real-time fanout.
type Definition struct {
	Name        string
	Schema      EventSchema
	BrokerBound bool
}

// Registry is the immutable set of event definitions, loaded once at startup.
type Registry struct {
	defs map[string]Definition
}

func NewRegistry(defs ...Definition) *Registry {
	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		d.Name = Normalize(d.Name)
		m[d.Name] = d
	}
	return &Registry{defs: m}
}

// Normalize maps an incoming event name to its canonical registry form.
func Normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Lookup finds a definition by event name, normalizing first.
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.defs[Normalize(name)]
	return def, ok
}

// Definitions returns every registered definition.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

func required() FieldRule {
	return FieldRule{Required: true}
}

func optional() FieldRule {
	return FieldRule{}
}

func positiveInt() FieldRule {
	return FieldRule{Required: true, Numeric: &NumericRule{IntegerOnly: true, MustBePositive: true}}
}

func positiveDecimal() FieldRule {
	return FieldRule{Required: true, Numeric: &NumericRule{MustBePositive: true}}
}

// Default returns the registry of hotel event types.
func Default() *Registry {
	return NewRegistry(
		Definition{
			Name: "BOOKING",
			Schema: EventSchema{
				{Path: "demozone", Rule: required()},
				{Path: "booking.bookingID", Rule: positiveInt()},
				{Path: "booking.hotelID", Rule: required()},
				{Path: "booking.hotelName", Rule: required()},
				{Path: "booking.hotelBrand", Rule: required()},
				{Path: "booking.hotelCountry", Rule: required()},
				{Path: "booking.checkin", Rule: required()},
				{Path: "booking.checkout", Rule: required()},
				{Path: "customer.customerID", Rule: required()},
				{Path: "customer.socialID", Rule: required()},
				{Path: "customer.name", Rule: required()},
				{Path: "customer.surname", Rule: required()},
				{Path: "customer.age", Rule: positiveInt()},
				{Path: "customer.points", Rule: positiveInt()},
			},
		},
		Definition{
			Name: "PRECHECKINREQUEST",
			Schema: EventSchema{
				{Path: "demozone", Rule: required()},
				{Path: "booking.bookingID", Rule: positiveInt()},
				{Path: "booking.hotelID", Rule: required()},
				{Path: "booking.hotelName", Rule: required()},
				{Path: "booking.hotelBrand", Rule: required()},
				{Path: "booking.hotelCountry", Rule: required()},
				{Path: "customer.customerID", Rule: required()},
				{Path: "customer.socialID", Rule: required()},
				{Path: "customer.name", Rule: required()},
				{Path: "customer.surname", Rule: required()},
				{Path: "customer.age", Rule: positiveInt()},
			},
		},
		Definition{
			Name:        "CHECKIN",
			BrokerBound: true,
			Schema: EventSchema{
				{Path: "demozone", Rule: required()},
				{Path: "booking.bookingID", Rule: positiveInt()},
				{Path: "booking.hotelID", Rule: required()},
				{Path: "booking.hotelName", Rule: required()},
				{Path: "booking.hotelBrand", Rule: required()},
				{Path: "booking.hotelCountry", Rule: required()},
				{Path: "booking.checkindate", Rule: required()},
				{Path: "booking.roomID", Rule: positiveInt()},
				{Path: "customer.customerID", Rule: required()},
				{Path: "customer.socialID", Rule: required()},
				{Path: "customer.name", Rule: required()},
				{Path: "customer.surname", Rule: required()},
				{Path: "customer.age", Rule: positiveInt()},
				{Path: "checkin.timestamp", Rule: required()},
				{Path: "checkin.gender", Rule: required()},
				{Path: "checkin.mood", Rule: required()},
			},
		},
		Definition{
			Name: "DOOROPENREQUEST",
			Schema: EventSchema{
				{Path: "demozone", Rule: required()},
				{Path: "booking.bookingID", Rule: positiveInt()},
				{Path: "booking.hotelID", Rule: required()},
				{Path: "booking.roomID", Rule: positiveInt()},
				{Path: "customer.customerID", Rule: required()},
			},
		},
		Definition{
			Name: "TEMPCHANGEREQUEST",
			Schema: EventSchema{
				{Path: "demozone", Rule: required()},
				{Path: "booking.bookingID", Rule: positiveInt()},
				{Path: "booking.hotelID", Rule: required()},
				{Path: "booking.roomID", Rule: positiveInt()},
				{Path: "customer.customerID", Rule: required()},
				{Path: "room.currentTemperature", Rule: positiveDecimal()},
				{Path: "room.targetTemperature", Rule: positiveDecimal()},
			},
		},
		Definition{
			Name: "PURCHASESERVICE",
			Schema: EventSchema{
				{Path: "demozone", Rule: required()},
				{Path: "booking.bookingID", Rule: positiveInt()},
				{Path: "booking.hotelID", Rule: required()},
				{Path: "booking.roomID", Rule: positiveInt()},
				{Path: "customer.customerID", Rule: required()},
				{Path: "service.serviceID", Rule: required()},
				{Path: "service.name", Rule: required()},
				{Path: "service.cost", Rule: positiveDecimal()},
				{Path: "service.points", Rule: positiveInt()},
			},
		},
		Definition{
			Name: "MALFUNCTION",
			Schema: EventSchema{
				{Path: "demozone", Rule: required()},
				{Path: "booking.bookingID", Rule: positiveInt()},
				{Path: "booking.hotelID", Rule: required()},
				{Path: "booking.roomID", Rule: positiveInt()},
				{Path: "customer.customerID", Rule: required()},
				{Path: "malfunction.element", Rule: required()},
				{Path: "malfunction.issue", Rule: required()},
			},
		},
		Definition{
			Name: "COZMODISPATCH",
			Schema: EventSchema{
				{Path: "demozone", Rule: required()},
				{Path: "cozmo.request", Rule: required()},
				{Path: "cozmo.action", Rule: required()},
				{Path: "cozmo.parameters", Rule: optional()},
			},
		},
		Definition{
			Name: "COZMOCOMPLETE",
			Schema: EventSchema{
				{Path: "demozone", Rule: required()},
				{Path: "cozmo.request", Rule: required()},
				{Path: "cozmo.action", Rule: required()},
				{Path: "cozmo.parameters", Rule: optional()},
				{Path: "cozmo.result", Rule: required()},
				{Path: "cozmo.timestamp", Rule: required()},
			},
		},
		Definition{
			Name:        "CHECKOUT",
			BrokerBound: true,
			Schema: EventSchema{
				{Path: "demozone", Rule: required()},
				{Path: "booking.bookingID", Rule: positiveInt()},
				{Path: "booking.hotelID", Rule: required()},
				{Path: "booking.hotelName", Rule: required()},
				{Path: "booking.hotelBrand", Rule: required()},
				{Path: "booking.hotelCountry", Rule: required()},
				{Path: "booking.checkindate", Rule: required()},
				{Path: "booking.checkoutdate", Rule: required()},
				{Path: "booking.roomID", Rule: positiveInt()},
				{Path: "customer.customerID", Rule: required()},
				{Path: "customer.socialID", Rule: required()},
				{Path: "customer.name", Rule: required()},
				{Path: "customer.surname", Rule: required()},
				{Path: "customer.age", Rule: positiveInt()},
			},
		},
		Definition{
			Name:   "SURVEY",
			Schema: EventSchema{},
		},
	)
}
