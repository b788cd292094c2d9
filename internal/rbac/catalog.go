package rbac

import (
	"sort"
	"strings"

	"github.com/aguatrestorres/backoffice/internal/shared"
)

// catalog is the static permission catalog. Permissions are immutable once
// defined; removing one leaves existing overrides inert rather than deleted.
var catalog = map[string]Permission{}

func init() {
	define := func(id, description string) {
		module, action, _ := strings.Cut(id, ".")
		catalog[id] = Permission{ID: id, Module: module, Action: action, Description: description}
	}
	define(shared.PermOrdersRead, "Ver pedidos")
	define(shared.PermOrdersCreate, "Crear pedidos")
	define(shared.PermOrdersUpdate, "Editar pedidos y cambiar estados")
	define(shared.PermOrdersDelete, "Eliminar pedidos")
	define(shared.PermCustomersRead, "Ver clientes")
	define(shared.PermCustomersCreate, "Crear clientes")
	define(shared.PermCustomersUpdate, "Editar clientes y direcciones")
	define(shared.PermCustomersDelete, "Eliminar clientes")
	define(shared.PermProductsRead, "Ver catálogo de productos")
	define(shared.PermProductsCreate, "Crear productos")
	define(shared.PermProductsUpdate, "Editar productos")
	define(shared.PermProductsDelete, "Eliminar productos")
	define(shared.PermRoutesOptimize, "Optimizar rutas de reparto")
	define(shared.PermRoutesSave, "Guardar rutas planificadas")
	define(shared.PermUsersRead, "Ver usuarios")
	define(shared.PermUsersUpdate, "Administrar usuarios y permisos")
	define(shared.PermAuditView, "Ver registro de auditoría")
	define(shared.PermReportsView, "Ver reportes e insights")
	define(shared.PermChatUse, "Usar el asistente")
}

// roleDefaults holds the seeded role to permission mapping. The database
// role_permissions table is seeded from this and treated as static
// configuration at runtime.
var roleDefaults = map[Role][]string{
	RoleOperador: {
		shared.PermOrdersRead,
		shared.PermOrdersCreate,
		shared.PermOrdersUpdate,
		shared.PermCustomersRead,
		shared.PermCustomersCreate,
		shared.PermCustomersUpdate,
		shared.PermProductsRead,
		shared.PermRoutesOptimize,
		shared.PermRoutesSave,
		shared.PermChatUse,
	},
	RoleRepartidor: {
		shared.PermOrdersRead,
		shared.PermOrdersUpdate,
		shared.PermCustomersRead,
		shared.PermProductsRead,
		shared.PermRoutesOptimize,
		shared.PermChatUse,
	},
}

// InCatalog reports whether the permission id exists in the static catalog.
func InCatalog(id string) bool {
	_, ok := catalog[id]
	return ok
}

// CatalogPermission returns the catalog entry for an id.
func CatalogPermission(id string) (Permission, bool) {
	p, ok := catalog[id]
	return p, ok
}

// CatalogIDs returns every permission id, sorted.
func CatalogIDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CatalogByModule groups the catalog for the permissions dialog.
func CatalogByModule() map[string][]Permission {
	grouped := make(map[string][]Permission)
	for _, p := range catalog {
		grouped[p.Module] = append(grouped[p.Module], p)
	}
	for module := range grouped {
		perms := grouped[module]
		sort.Slice(perms, func(i, j int) bool { return perms[i].ID < perms[j].ID })
	}
	return grouped
}

// RoleSeed returns the seeded defaults for a role. Admin gets the whole
// catalog.
func RoleSeed(role Role) []string {
	if role == RoleAdmin {
		return CatalogIDs()
	}
	seed := make([]string, len(roleDefaults[role]))
	copy(seed, roleDefaults[role])
	sort.Strings(seed)
	return seed
}
