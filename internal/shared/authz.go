package shared

// Permission identifiers, resource.action form. The rbac catalog is the
// authoritative list; handlers reference these constants so typos fail at
// compile time instead of silently denying.
const (
	PermOrdersRead   = "orders.read"
	PermOrdersCreate = "orders.create"
	PermOrdersUpdate = "orders.update"
	PermOrdersDelete = "orders.delete"

	PermCustomersRead   = "customers.read"
	PermCustomersCreate = "customers.create"
	PermCustomersUpdate = "customers.update"
	PermCustomersDelete = "customers.delete"

	PermProductsRead   = "products.read"
	PermProductsCreate = "products.create"
	PermProductsUpdate = "products.update"
	PermProductsDelete = "products.delete"

	PermRoutesOptimize = "routes.optimize"
	PermRoutesSave     = "routes.save"

	PermUsersRead   = "users.read"
	PermUsersUpdate = "users.update"

	PermAuditView   = "audit.view"
	PermReportsView = "reports.view"
	PermChatUse     = "chat.use"
)
