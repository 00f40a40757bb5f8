package shared

// Permission actions known to the platform. Actions are flat, exact-match
// capability keys; anything outside this registry is rejected at grant time
// and denied at authorize time.
const (
	ActionManageUsers = "manage_users"
	ActionManageRoles = "manage_roles"
	ActionManageShops = "manage_shops"
	ActionViewShops   = "view_shops"
	ActionEditSales   = "edit_sales"
	ActionViewSales   = "view_sales"
	ActionViewAudit   = "view_audit"
)

var actionCatalog = map[string]string{
	ActionManageUsers: "Create, deactivate and reassign employee accounts",
	ActionManageRoles: "Administer roles and permission grants",
	ActionManageShops: "Create and edit shop records",
	ActionViewShops:   "View shop records",
	ActionEditSales:   "Create and edit sales records",
	ActionViewSales:   "View sales records",
	ActionViewAudit:   "View the audit trail",
}

// KnownActions returns every registered permission action.
func KnownActions() []string {
	actions := make([]string, 0, len(actionCatalog))
	for action := range actionCatalog {
		actions = append(actions, action)
	}
	return actions
}

// IsKnownAction reports whether the action exists in the registry.
func IsKnownAction(action string) bool {
	_, ok := actionCatalog[action]
	return ok
}

// DescribeAction returns the human description for a registered action.
func DescribeAction(action string) string {
	return actionCatalog[action]
}
