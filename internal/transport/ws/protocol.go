package ws

// Message types from client to server
const (
	TypeHello  = "hello"
	TypePrompt = "prompt"
	TypeClear  = "clear"
)

// Message types from server to client
const (
	TypeHelloAck = "hello_ack"
	TypeResponse = "response"
	TypeCleared  = "cleared"
	TypeError    = "error"
)

// Error codes
const (
	ErrorCodeInvalidMessage   = "invalid_message"
	ErrorCodeUnauthorized     = "unauthorized"
	ErrorCodeHelloRequired    = "hello_required"
	ErrorCodeEmptyPrompt      = "empty_prompt"
	ErrorCodeModelUnavailable = "model_unavailable"
	ErrorCodeInternalError    = "internal_error"
)

// BaseMessage contains common fields for all frames.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
}

// HelloMessage authenticates the connection with an access token.
type HelloMessage struct {
	BaseMessage
	Token string `json:"token"`
}

// HelloAckMessage is sent after a successful hello.
type HelloAckMessage struct {
	BaseMessage
	ConnectionID string `json:"connection_id"`
	UserID       int64  `json:"user_id"`
}

// PromptMessage carries one user turn.
type PromptMessage struct {
	BaseMessage
	Prompt string `json:"prompt"`
}

// ResponseMessage carries the assistant reply for a prompt.
type ResponseMessage struct {
	BaseMessage
	Response string `json:"response"`
}

// ErrorMessage is sent when a frame cannot be served.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}
