package admin

import "time"

type CreateTenantRequest struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
}

type TenantResponse struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
