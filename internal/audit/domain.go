package audit

import "time"

// Actions recorded by the back office. Target entity naming follows the
// original administration tables.
const (
	ActionPermissionGrant   = "permission.grant"
	ActionPermissionRevoke  = "permission.revoke"
	ActionPermissionRemoved = "permission.removed"

	ActionUserCreated         = "user.created"
	ActionUserUpdated         = "user.updated"
	ActionUserPasswordChanged = "user.password_changed"

	ActionCustomerCreated = "customer.created"
	ActionCustomerUpdated = "customer.updated"
	ActionCustomerDeleted = "customer.deleted"

	ActionProductCreated = "product.created"
	ActionProductUpdated = "product.updated"
	ActionProductDeleted = "product.deleted"

	ActionOrderCreated        = "order.created"
	ActionOrderUpdated        = "order.updated"
	ActionOrderDeleted        = "order.deleted"
	ActionOrderStatusChanged  = "order.status_changed"
	ActionOrderPaymentChanged = "order.payment_changed"

	ActionRouteSaved = "route.saved"
)

// Entry is one append-only audit record. Entries are created once and never
// mutated or deleted by the application.
type Entry struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	OldValue   map[string]any `json:"old_value,omitempty"`
	NewValue   map[string]any `json:"new_value,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Filters narrows an activity query to one actor and an optional date range.
type Filters struct {
	ActorID string
	Limit   int
	Offset  int
	From    time.Time
	To      time.Time
}

// Result bundles a page of entries with the exact total count.
type Result struct {
	Entries []Entry
	Total   int
}
