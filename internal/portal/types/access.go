package types

import "time"

// SubmitAccessRequest is posted by an anonymous visitor.  An empty code asks
// the server to mint one.
type SubmitAccessRequest struct {
	Code string `json:"code" validate:"omitempty,accesscode"`
}

// AccessRequest is the admin view of a request.
type AccessRequest struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	Code          string     `json:"code"`
	OriginAddress string     `json:"origin_address"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
}

// AccessRequestStatus is what a visitor sees when polling by code.  Token
// and ExpiresAt are set once the request is approved.
type AccessRequestStatus struct {
	Code      string     `json:"code"`
	Status    string     `json:"status"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Live      bool       `json:"live"`
}

type AccessGrant struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	TenantID  string    `json:"tenant_id"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ValidateAccessRequest struct {
	Token string `json:"token"`
}

type ValidateAccessResponse struct {
	Valid     bool      `json:"valid"`
	TenantID  string    `json:"tenant_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
