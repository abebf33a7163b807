package handler_test

import (
	"context"

	"stayhub.app/eventhub/internal/dispatch"
)

type mockDispatchService struct {
	dispatchFn        func(ctx context.Context, eventName string, payload map[string]any) (dispatch.Result, error)
	dispatchSensorsFn func(ctx context.Context, readings []dispatch.SensorReading) int
}

func (m *mockDispatchService) Dispatch(ctx context.Context, eventName string, payload map[string]any) (dispatch.Result, error) {
	if m.dispatchFn != nil {
		return m.dispatchFn(ctx, eventName, payload)
	}
	return dispatch.Result{}, nil
}

func (m *mockDispatchService) DispatchSensors(ctx context.Context, readings []dispatch.SensorReading) int {
	if m.dispatchSensorsFn != nil {
		return m.dispatchSensorsFn(ctx, readings)
	}
	return 0
}
