package dto

// SensorElement is one entry of the sensor batch body. Readings carry their
// device format URN and raw data under payload.
type SensorElement struct {
	Demozone string        `json:"demozone"`
	Payload  SensorPayload `json:"payload" binding:"required"`
}

type SensorPayload struct {
	Format string         `json:"format"`
	Data   map[string]any `json:"data"`
}

// RejectResponse is the body of a 405 rejection.
type RejectResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
