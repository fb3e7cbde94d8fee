package accountsdk

// Response is the envelope every endpoint answers with. Code 0 is success.
type Response[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data,omitempty"`
}

// ============================================================================
// Accounts
// ============================================================================

// NewAccountRequest is the body of POST /v1/accounts.
type NewAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"pwd"`
	Mobile   string `json:"mobile,omitempty"`
}

// Account is the public view of an account. Status is 0 (unactivated),
// 1 (active) or -1 (forbidden).
type Account struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Mobile string `json:"mobile,omitempty"`
	Status int    `json:"status"`
}

// ============================================================================
// Sessions
// ============================================================================

// LoginRequest is the body of POST /v1/auth/login. Email wins over Mobile.
type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
	Password string `json:"pwd"`

	// Device selects the session slot, "web" when empty.
	Device string `json:"device,omitempty"`
}

// Credential is returned by login and presented on authenticated calls.
// Timestamp is the session expiry in Unix milliseconds.
type Credential struct {
	UserID    string `json:"user_id"`
	TokenID   string `json:"token_id"`
	TokenSign string `json:"token_sign"`
	Timestamp int64  `json:"timestamp"`
}

// LogoutRequest is the body of POST /v1/auth/logout.
type LogoutRequest struct {
	AccountID string `json:"accountId"`
	TokenID   string `json:"tokenId"`
}

// ============================================================================
// Activation
// ============================================================================

// ActivationRequest carries the parameters of an activation link.
type ActivationRequest struct {
	AccountID string `json:"accountId"`
	Sign      string `json:"sign"`
	Timestamp int64  `json:"timestamp"`
}

// ResendActivationRequest is the body of POST /v1/auth/activation/resend.
type ResendActivationRequest struct {
	Email string `json:"email"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency.
type HealthChecks struct {
	Database string `json:"database"`
}
