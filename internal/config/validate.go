// This file adds a lightweight linter/validator for Config values. It
// performs static checks over a decoded Config and returns a list of issues
// (errors and warnings) that callers surface in the CLI or tests.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding surfaced to users without
	// blocking execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config (e.g. "tables[0].columns[2].kind").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error where needed.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// identRe matches the identifiers accepted for configured table and column
// names. Identifiers are trusted configuration, but they are still embedded
// in DDL, so they must satisfy the database's unquoted-identifier rules.
// Table names may carry a single schema qualifier ("public.tramites").
var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// maxIdentLen mirrors Postgres's identifier length limit.
const maxIdentLen = 63

func validIdent(s string) bool {
	return len(s) <= maxIdentLen && identRe.MatchString(s)
}

func validTableName(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if !validIdent(p) {
			return false
		}
	}
	return true
}

// Validate performs static validation of a Config. It does not mutate the
// config; callers decide whether warnings are fatal.
func Validate(c Config) []Issue {
	var issues []Issue

	switch c.Storage.Kind {
	case "postgres", "sqlite":
	case "":
		issues = append(issues, Issue{SeverityError, "storage.kind", "storage kind is required"})
	default:
		issues = append(issues, Issue{SeverityError, "storage.kind",
			fmt.Sprintf("unknown storage kind %q (expected postgres or sqlite)", c.Storage.Kind)})
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.dsn", "storage DSN is required"})
	}

	if len(c.Tables) == 0 {
		issues = append(issues, Issue{SeverityError, "tables", "at least one table schema is required"})
	}

	seenTables := map[string]bool{}
	for ti, tc := range c.Tables {
		tPath := fmt.Sprintf("tables[%d]", ti)
		if !validTableName(tc.Name) {
			issues = append(issues, Issue{SeverityError, tPath + ".name",
				fmt.Sprintf("invalid table name %q", tc.Name)})
		}
		if seenTables[tc.Name] {
			issues = append(issues, Issue{SeverityError, tPath + ".name",
				fmt.Sprintf("duplicate table %q", tc.Name)})
		}
		seenTables[tc.Name] = true

		if len(tc.Columns) == 0 {
			issues = append(issues, Issue{SeverityError, tPath + ".columns", "at least one column is required"})
		}
		seenCols := map[string]bool{}
		for ci, cc := range tc.Columns {
			cPath := fmt.Sprintf("%s.columns[%d]", tPath, ci)
			if !validIdent(cc.Name) {
				issues = append(issues, Issue{SeverityError, cPath + ".name",
					fmt.Sprintf("invalid column name %q", cc.Name)})
			}
			if seenCols[cc.Name] {
				issues = append(issues, Issue{SeverityError, cPath + ".name",
					fmt.Sprintf("duplicate column %q", cc.Name)})
			}
			seenCols[cc.Name] = true

			switch cc.Kind {
			case "", "text", "date":
			default:
				issues = append(issues, Issue{SeverityError, cPath + ".kind",
					fmt.Sprintf("unknown kind %q (expected text or date)", cc.Kind)})
			}
			for ai, a := range cc.Aliases {
				if !validIdent(a) {
					issues = append(issues, Issue{SeverityWarning,
						fmt.Sprintf("%s.aliases[%d]", cPath, ai),
						fmt.Sprintf("alias %q is not a normalized identifier and will never match", a)})
				}
			}
		}
	}

	if c.Runtime.BatchSize < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.batch_size", "batch size must not be negative"})
	}
	if utf8.RuneCountInString(c.Source.Delimiter) > 1 {
		issues = append(issues, Issue{SeverityWarning, "source.delimiter",
			"only the first rune of the delimiter is used"})
	}

	return issues
}

// HasErrors reports whether any issue is severity error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
