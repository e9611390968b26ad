package dto

// ViewerMessage is pushed to WebSocket viewers.
type ViewerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

// FramePayload carries a base64 encoded JPEG preview frame.
type FramePayload struct {
	Image string `json:"image"`
}

// ErrorResponse is the JSON body of failed API calls.
type ErrorResponse struct {
	Error string      `json:"error"`
	State interface{} `json:"state,omitempty"`
}
