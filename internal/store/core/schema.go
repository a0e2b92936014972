package core

// Nombres de índices por colección. Este es el bootstrap de schema del
// directorio hecho explícito: cada lookup que hace la capa de servicios
// tiene un índice declarado acá, y los adapters lo materializan (índices
// memdb o índices/constraints SQL).
const (
	// tenant
	IndexTenantSlug = "slug" // único

	// client
	IndexClientClientID = "client_id" // único, namespace global
	IndexClientTenant   = "tenant_id"

	// client_version
	IndexVersionClientOrdinal = "client_version" // único (client_id, version)
	IndexVersionClientStatus  = "client_status"  // (client_id, status)
	IndexVersionClient        = "client_id"      // ordenado por ordinal asc

	// app_user
	IndexUserTenantEmail = "tenant_email" // único (tenant_id, email)
	IndexUserTenant      = "tenant_id"

	// identity
	IndexIdentityProviderUser = "provider_user" // único (provider, provider_user_id)
	IndexIdentityUser         = "user_id"
	IndexIdentityUserProvider = "user_provider" // (user_id, provider)
)

// Reference apunta a una colección hija que referencia a la actual.
type Reference struct {
	Col   Collection
	Index string
}

// ReferencedBy lista, por colección, los índices hijos que bloquean un
// Delete mientras tengan entradas para el ID del registro padre. Las
// cascadas legítimas (user → identities) borran los hijos primero dentro
// de la misma transacción.
var ReferencedBy = map[Collection][]Reference{
	Tenants: {
		{Col: Clients, Index: IndexClientTenant},
		{Col: AppUsers, Index: IndexUserTenant},
	},
	Clients: {
		{Col: ClientVersions, Index: IndexVersionClient},
	},
	AppUsers: {
		{Col: Identities, Index: IndexIdentityUser},
	},
}
