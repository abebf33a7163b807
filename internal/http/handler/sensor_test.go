package handler_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"stayhub.app/eventhub/internal/dispatch"
	"stayhub.app/eventhub/internal/http/handler"
)

var _ = Describe("SensorHandler", func() {
	var (
		router *gin.Engine
		svc    *mockDispatchService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockDispatchService{}
		h := handler.NewSensorHandler(svc)
		router.POST("/wh/sensor", h.Ingest)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/wh/sensor", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns 200 and forwards the parsed readings", func() {
		var got []dispatch.SensorReading
		svc.dispatchSensorsFn = func(_ context.Context, readings []dispatch.SensorReading) int {
			got = readings
			return len(readings)
		}

		w := post(`[
			{"demozone":"MADRID","payload":{"format":"urn:com:stayhub:iot:device:shower","data":{"roomID":"101","timestamp":"2024-01-01T10:00:00Z","flow":9,"temp":38}}},
			{"demozone":"MADRID","payload":{"format":"urn:com:stayhub:iot:device:noise","data":{"roomID":"102","timestamp":"2024-01-01T10:00:00Z","decibel":71}}}
		]`)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(got).To(HaveLen(2))
		Expect(got[0].Format).To(Equal(dispatch.FormatURNShower))
		Expect(got[1].Demozone).To(Equal("MADRID"))
	})

	It("returns 200 on an unreadable body without calling dispatch", func() {
		called := false
		svc.dispatchSensorsFn = func(_ context.Context, _ []dispatch.SensorReading) int {
			called = true
			return 0
		}

		w := post(`{not json`)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(called).To(BeFalse())
	})

	It("returns 200 when every reading is rejected", func() {
		svc.dispatchSensorsFn = func(_ context.Context, _ []dispatch.SensorReading) int {
			return 0
		}

		w := post(`[{"demozone":"MADRID","payload":{"format":"urn:com:other:thing","data":{}}}]`)

		Expect(w.Code).To(Equal(http.StatusOK))
	})
})
