package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"unit_label":         true,
	"period":             true,
	"total_amount":       true,
	"paid_amount":        true,
	"outstanding_amount": true,
	"status":             true,
	"due_date":           true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"unit_label":     true,
	"amount":         true,
	"payment_method": true,
	"reference":      true,
	"status":         true,
	"payment_date":   true,
}

// UnitSortFields contains allowed sort fields for units
var UnitSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"label":         true,
	"floor":         true,
	"owner_name":    true,
	"aliquot_share": true,
	"status":        true,
}

// BuildingSortFields contains allowed sort fields for buildings
var BuildingSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"city":       true,
	"status":     true,
}
