package admin

import "time"

type RegisterClientRequest struct {
	TenantID string `json:"tenant_id"`
	ClientID string `json:"client_id"`
}

type ClientResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	ClientID  string    `json:"client_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateVersionRequest struct {
	// MaterialHash es opcional: si falta, el servicio genera un secreto
	// y devuelve el plaintext una única vez en la respuesta.
	MaterialHash string `json:"material_hash,omitempty"`
}

type VersionResponse struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"client_id"`
	Version       int        `json:"version"`
	Status        string     `json:"status"`
	EffectiveFrom *time.Time `json:"effective_from,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`

	// Secret sólo viene en la respuesta de creación cuando el secreto
	// fue generado server-side. No se persiste ni se vuelve a mostrar.
	Secret string `json:"secret,omitempty"`
}

type VersionListResponse struct {
	Versions []VersionResponse `json:"versions"`
}
