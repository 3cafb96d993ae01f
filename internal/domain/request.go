package domain

// PromptRequest is the body of a prompt submission.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// PromptResponse is returned to the caller after a turn.
type PromptResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RegisterRequest creates a directory user.
type RegisterRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// LoginRequest exchanges credentials for an access token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
