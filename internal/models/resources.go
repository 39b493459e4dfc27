package models

// ResourceDescriptor declares one admin screen backed by a platform API
// collection: where it lives upstream, which field identifies a record, which
// fields accept inline edits, and which fields the page-local filter matches.
type ResourceDescriptor struct {
	Name         string
	Path         string
	IDField      string
	Editable     []string
	SearchFields []string
	ExportTitle  string
}

// EditableField reports whether the named field accepts inline edits.
func (d ResourceDescriptor) EditableField(field string) bool {
	for _, f := range d.Editable {
		if f == field {
			return true
		}
	}
	return false
}

// AdminResources is the registry of screens the gateway serves. Every
// editable field maps to a real upstream mutation; screens without editable
// fields are read-only plus bulk delete.
var AdminResources = []ResourceDescriptor{
	{
		Name:         "accounts",
		Path:         "/api/v1/users",
		IDField:      "user_id",
		Editable:     []string{"status", "role"},
		SearchFields: []string{"first_name", "last_name", "email"},
		ExportTitle:  "Accounts",
	},
	{
		Name:         "banners",
		Path:         "/api/v1/banners",
		IDField:      "banner_id",
		Editable:     []string{"status", "sort_order"},
		SearchFields: []string{"title"},
		ExportTitle:  "Banners",
	},
	{
		Name:         "categories",
		Path:         "/api/v1/categories",
		IDField:      "category_id",
		Editable:     []string{"name", "status", "sort_order"},
		SearchFields: []string{"name"},
		ExportTitle:  "Categories",
	},
	{
		Name:         "orders",
		Path:         "/api/v1/orders",
		IDField:      "order_id",
		Editable:     []string{"status"},
		SearchFields: []string{"order_number", "customer_name"},
		ExportTitle:  "Orders",
	},
	{
		Name:         "payments",
		Path:         "/api/v1/payment-accounts",
		IDField:      "account_id",
		Editable:     []string{"status"},
		SearchFields: []string{"provider", "account_name"},
		ExportTitle:  "Payment Accounts",
	},
	{
		Name:         "roles",
		Path:         "/api/v1/roles",
		IDField:      "role_id",
		Editable:     []string{"name", "description"},
		SearchFields: []string{"name"},
		ExportTitle:  "Roles",
	},
}

// FindResource looks a descriptor up by screen name.
func FindResource(name string) (ResourceDescriptor, bool) {
	for _, d := range AdminResources {
		if d.Name == name {
			return d, true
		}
	}
	return ResourceDescriptor{}, false
}
