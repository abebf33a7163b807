package dispatch_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"stayhub.app/eventhub/internal/broker"
	"stayhub.app/eventhub/internal/dispatch"
	"stayhub.app/eventhub/internal/schema"
)

func validCheckin() map[string]any {
	return map[string]any{
		"demozone": "MADRID",
		"booking": map[string]any{
			"bookingID":    float64(42),
			"hotelID":      "H1",
			"hotelName":    "Gran Via Palace",
			"hotelBrand":   "StayHub",
			"hotelCountry": "ES",
			"checkindate":  "2024-01-01",
			"roomID":       float64(101),
		},
		"customer": map[string]any{
			"customerID": "C1",
			"socialID":   "@c1",
			"name":       "Ana",
			"surname":    "Diaz",
			"age":        float64(34),
		},
		"checkin": map[string]any{
			"timestamp": "2024-01-01T10:00:00Z",
			"gender":    "MALE",
			"mood":      "HAPPY",
		},
	}
}

var _ = Describe("Dispatcher", func() {
	var (
		fanout  *mockBroadcaster
		pub     *mockPublisher
		queue   *mockQueue
		tracker *mockTracker
		svc     dispatch.Service
	)

	BeforeEach(func() {
		fanout = &mockBroadcaster{}
		pub = &mockPublisher{}
		queue = &mockQueue{}
		tracker = &mockTracker{state: broker.StateConnected}
		svc = dispatch.New(dispatch.Config{
			Registry: schema.Default(),
			Fanout:   fanout,
			Tracker:  tracker,
			Queue:    queue,
			Pub:      pub,
			Topic:    "eventhub_in",
		})
	})

	Describe("Dispatch", func() {
		It("broadcasts and publishes an accepted broker-bound event", func() {
			result, err := svc.Dispatch(context.Background(), "checkin", validCheckin())

			Expect(err).NotTo(HaveOccurred())
			Expect(result.EventName).To(Equal("CHECKIN"))
			Expect(result.Namespace).To(Equal("checkin"))
			Expect(result.Broadcast).To(BeTrue())
			Expect(result.Published).To(BeTrue())
			Expect(result.Enqueued).To(BeFalse())

			Expect(fanout.tenantIDs).To(Equal([]string{"MADRID"}))
			Expect(fanout.namespaces).To(Equal([]string{"checkin"}))

			Expect(pub.topics).To(Equal([]string{"eventhub_in"}))
			cols := strings.Split(pub.lines[0], ",")
			Expect(cols).To(HaveLen(10))
			Expect(cols[0]).To(Equal("MADRID"))
			Expect(cols[2]).To(Equal("1"))  // checkin type code
			Expect(cols[3]).To(Equal("C1")) // customerID
			Expect(cols[7]).To(Equal("4"))  // HAPPY
			Expect(cols[8]).To(Equal("1"))  // MALE
			Expect(cols[9]).To(Equal("-1")) // temperature placeholder
		})

		It("broadcasts but never publishes an event that is not broker-bound", func() {
			payload := map[string]any{
				"demozone": "MADRID",
				"booking": map[string]any{
					"bookingID": float64(7), "hotelID": "H1", "roomID": float64(101),
				},
				"customer": map[string]any{"customerID": "C1"},
			}

			result, err := svc.Dispatch(context.Background(), "DOOROPENREQUEST", payload)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Broadcast).To(BeTrue())
			Expect(result.BrokerBound).To(BeFalse())
			Expect(pub.lines).To(BeEmpty())
			Expect(queue.records).To(BeEmpty())
		})

		It("rejects an unknown event name", func() {
			_, err := svc.Dispatch(context.Background(), "TELEPORT", map[string]any{})

			Expect(errors.Is(err, schema.ErrUnknownEvent)).To(BeTrue())
			Expect(fanout.tenantIDs).To(BeEmpty())
		})

		It("rejects a payload with a missing field, naming the field", func() {
			payload := validCheckin()
			customer := payload["customer"].(map[string]any)
			delete(customer, "age")

			_, err := svc.Dispatch(context.Background(), "checkin", payload)

			var verr *schema.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.FieldPath).To(Equal("customer.age"))
			Expect(fanout.tenantIDs).To(BeEmpty())
			Expect(pub.lines).To(BeEmpty())
		})

		It("queues the record when the broker is not connected", func() {
			tracker.state = broker.StateDisconnected

			result, err := svc.Dispatch(context.Background(), "CHECKIN", validCheckin())

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Published).To(BeFalse())
			Expect(result.Enqueued).To(BeTrue())
			Expect(pub.lines).To(BeEmpty())
			Expect(queue.records).To(HaveLen(1))
		})

		It("queues the record when an immediate publish fails", func() {
			pub.publishFn = func(context.Context, string, []byte) error {
				return errors.New("broker gone")
			}

			result, err := svc.Dispatch(context.Background(), "CHECKIN", validCheckin())

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Published).To(BeFalse())
			Expect(result.Enqueued).To(BeTrue())
			Expect(queue.records).To(HaveLen(1))
		})

		It("still succeeds and publishes when fanout fails", func() {
			fanout.broadcastFn = func(context.Context, string, string, []byte) error {
				return errors.New("no such tenant")
			}

			result, err := svc.Dispatch(context.Background(), "CHECKIN", validCheckin())

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Broadcast).To(BeFalse())
			Expect(result.Published).To(BeTrue())
		})
	})

	Describe("DispatchSensors", func() {
		It("forwards recognized formats and skips the rest", func() {
			readings := []dispatch.SensorReading{
				{Demozone: "MADRID", Format: dispatch.FormatURNShower, Data: map[string]any{
					"roomID": "101", "timestamp": "2024-01-01T10:00:00Z", "flow": float64(9), "temp": float64(38),
				}},
				{Demozone: "MADRID", Format: "urn:com:other:device", Data: map[string]any{}},
				{Demozone: "MADRID", Format: dispatch.FormatURNNoise, Data: map[string]any{
					"roomID": "102", "timestamp": "2024-01-01T10:00:00Z", "decibel": float64(71),
				}},
				{Demozone: "MADRID", Format: dispatch.FormatURNTemperature, Data: map[string]any{
					"roomID": "103", "timestamp": "2024-01-01T10:00:00Z", "value": float64(22.5),
				}},
			}

			accepted := svc.DispatchSensors(context.Background(), readings)

			Expect(accepted).To(Equal(3))
			Expect(pub.lines).To(HaveLen(3))
			Expect(strings.Split(pub.lines[0], ",")[2]).To(Equal("2")) // shower type code
			Expect(strings.Split(pub.lines[1], ",")[2]).To(Equal("4")) // noise type code
			Expect(strings.Split(pub.lines[2], ",")[2]).To(Equal("3")) // temperature type code
		})

		It("queues readings when the broker is down", func() {
			tracker.state = broker.StateExpired

			accepted := svc.DispatchSensors(context.Background(), []dispatch.SensorReading{
				{Demozone: "MADRID", Format: dispatch.FormatURNNoise, Data: map[string]any{
					"roomID": "102", "timestamp": "2024-01-01T10:00:00Z", "decibel": float64(71),
				}},
			})

			Expect(accepted).To(Equal(1))
			Expect(pub.lines).To(BeEmpty())
			Expect(queue.records).To(HaveLen(1))
		})
	})
})
