package domain

import "fmt"

// Severity classifies a load diagnostic.
type Severity string

const (
	// SeverityError aborts a load; no design is returned.
	SeverityError Severity = "error"
	// SeverityWarning is recorded and the load continues.
	SeverityWarning Severity = "warning"
)

// Diagnostic codes emitted while loading documents.
const (
	CodeVersionMissing      = "version_missing"
	CodeVersionIncompatible = "version_incompatible"
	CodeVersionMigrated     = "version_migrated"
	CodeHullNotFound        = "hull_not_found"
	CodeTypeNotFound        = "type_not_found"
	CodeReferenceOrphaned   = "reference_orphaned"
	CodeReferenceDropped    = "reference_dropped"
	CodeMigrationApplied    = "migration_applied"
	CodeMigrationSkipped    = "migration_skipped"
	CodeDuplicateID         = "duplicate_id"
)

// Diagnostic is a single load-time finding. Category and ID identify the
// affected entity when there is one.
type Diagnostic struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Category Category `json:"category,omitempty"`
	ID       string   `json:"id,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Category == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", d.Severity, d.Category, d.Message)
}

// Warningf builds a warning diagnostic.
func Warningf(code string, category Category, id, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityWarning, Category: category, ID: id, Message: fmt.Sprintf(format, args...)}
}

// Errorf builds an error diagnostic.
func Errorf(code string, category Category, id, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityError, Category: category, ID: id, Message: fmt.Sprintf(format, args...)}
}
