package admin

import "time"

type CreateUserRequest struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type LinkIdentityRequest struct {
	Provider       string `json:"provider"`
	ProviderUserID string `json:"provider_user_id"`
}

type IdentityResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	LinkedAt       time.Time `json:"linked_at"`
}

type IdentityListResponse struct {
	Identities []IdentityResponse `json:"identities"`
}
