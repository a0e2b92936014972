package core

import "time"

// Estados de tenant.
const (
	TenantActive   = "active"
	TenantInactive = "inactive"
)

// Estados de client version. La máquina de estados es monotónica:
// draft → active → deprecated, y cualquier estado → revoked (terminal).
const (
	VersionDraft      = "draft"
	VersionActive     = "active"
	VersionDeprecated = "deprecated"
	VersionRevoked    = "revoked"
)

type Tenant struct {
	ID          string    `json:"id"`
	Rev         int64     `json:"rev"`
	Slug        string    `json:"slug"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"` // active|inactive
	CreatedAt   time.Time `json:"created_at"`
}

type Client struct {
	ID        string    `json:"id"`
	Rev       int64     `json:"rev"`
	TenantID  string    `json:"tenant_id"`
	ClientID  string    `json:"client_id"` // identificador público, namespace global
	CreatedAt time.Time `json:"created_at"`
}

type ClientVersion struct {
	ID            string     `json:"id"`
	Rev           int64      `json:"rev"`
	ClientID      string     `json:"client_id"` // UUID interno del client
	Version       int        `json:"version"`   // ordinal append-only, nunca se reusa
	Status        string     `json:"status"`    // draft|active|deprecated|revoked
	MaterialHash  string     `json:"material_hash"`
	EffectiveFrom *time.Time `json:"effective_from,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type AppUser struct {
	ID        string    `json:"id"`
	Rev       int64     `json:"rev"`
	TenantID  string    `json:"tenant_id"`
	Email     string    `json:"email"` // normalizado a minúsculas
	CreatedAt time.Time `json:"created_at"`
}

type Identity struct {
	ID             string    `json:"id"`
	Rev            int64     `json:"rev"`
	UserID         string    `json:"user_id"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	LinkedAt       time.Time `json:"linked_at"`
}
