package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"stayhub.app/eventhub/internal/dispatch"
	"stayhub.app/eventhub/internal/http/handler"
	"stayhub.app/eventhub/internal/schema"
)

var _ = Describe("EventHandler", func() {
	var (
		router *gin.Engine
		svc    *mockDispatchService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockDispatchService{}
		h := handler.NewEventHandler(svc)
		router.POST("/wh/event/:eventname", h.Ingest)
	})

	post := func(path string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns 204 with an empty body when the event is accepted", func() {
		var gotName string
		svc.dispatchFn = func(_ context.Context, eventName string, _ map[string]any) (dispatch.Result, error) {
			gotName = eventName
			return dispatch.Result{EventName: "BOOKING", Broadcast: true}, nil
		}

		body, _ := json.Marshal(map[string]any{"demozone": "MADRID"})
		w := post("/wh/event/booking", body)

		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(w.Body.Len()).To(BeZero())
		Expect(gotName).To(Equal("booking"))
	})

	It("returns 405 for an unknown event name", func() {
		svc.dispatchFn = func(_ context.Context, _ string, _ map[string]any) (dispatch.Result, error) {
			return dispatch.Result{}, schema.ErrUnknownEvent
		}

		w := post("/wh/event/nosuchthing", []byte(`{}`))

		Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
	})

	It("returns 405 naming the field on a validation failure", func() {
		svc.dispatchFn = func(_ context.Context, _ string, _ map[string]any) (dispatch.Result, error) {
			return dispatch.Result{}, &schema.ValidationError{FieldPath: "customer.age", Reason: schema.ReasonMissingField}
		}

		w := post("/wh/event/checkin", []byte(`{"demozone":"MADRID"}`))

		Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["field"]).To(Equal("customer.age"))
	})

	It("returns 405 on an unreadable body without calling dispatch", func() {
		called := false
		svc.dispatchFn = func(_ context.Context, _ string, _ map[string]any) (dispatch.Result, error) {
			called = true
			return dispatch.Result{}, nil
		}

		w := post("/wh/event/booking", []byte(`{not json`))

		Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
		Expect(called).To(BeFalse())
	})

	It("returns 204 even when the event was only queued, not published", func() {
		svc.dispatchFn = func(_ context.Context, _ string, _ map[string]any) (dispatch.Result, error) {
			return dispatch.Result{EventName: "CHECKIN", BrokerBound: true, Enqueued: true}, nil
		}

		w := post("/wh/event/checkin", []byte(`{"demozone":"MADRID"}`))

		Expect(w.Code).To(Equal(http.StatusNoContent))
	})
})
