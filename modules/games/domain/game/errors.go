package game

import (
	"encoding/json"
	"fmt"
)

// Severity grades an import finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ImportError is one finding produced while parsing or validating an import
// payload. Row is the 1-based source row (0 when not row-scoped), Column the
// source column or field path.
type ImportError struct {
	Row      int      `json:"row,omitempty"`
	Column   string   `json:"column,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (e ImportError) Error() string {
	if e.Row > 0 && e.Column != "" {
		return fmt.Sprintf("row %d, %s: %s", e.Row, e.Column, e.Message)
	}
	if e.Column != "" {
		return fmt.Sprintf("%s: %s", e.Column, e.Message)
	}
	return e.Message
}

// UnmarshalJSON treats a missing severity as a warning. Older payload
// producers emitted findings without the field.
func (e *ImportError) UnmarshalJSON(data []byte) error {
	type alias ImportError
	a := alias{Severity: SeverityWarning}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Severity != SeverityError && a.Severity != SeverityWarning {
		a.Severity = SeverityWarning
	}
	*e = ImportError(a)
	return nil
}

// Errorf builds an error-severity finding.
func Errorf(row int, column, format string, args ...any) ImportError {
	return ImportError{Row: row, Column: column, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

// Warnf builds a warning-severity finding.
func Warnf(row int, column, format string, args ...any) ImportError {
	return ImportError{Row: row, Column: column, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

// SplitBySeverity partitions findings into errors and warnings.
func SplitBySeverity(findings []ImportError) (errs, warns []ImportError) {
	for _, f := range findings {
		if f.Severity == SeverityError {
			errs = append(errs, f)
		} else {
			warns = append(warns, f)
		}
	}
	return errs, warns
}
