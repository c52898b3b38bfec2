package config

import (
	"strings"
	"testing"
)

func issueAt(issues []Issue, pathPrefix string) *Issue {
	for i := range issues {
		if strings.HasPrefix(issues[i].Path, pathPrefix) {
			return &issues[i]
		}
	}
	return nil
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	if issues := Validate(validConfig()); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

// TestValidate_Identifiers checks configured names are linted against the
// database's unquoted-identifier rules before any DDL is built from them.
func TestValidate_Identifiers(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Tables[0].Name = "Trámites; DROP TABLE x"
	cfg.Tables[0].Columns[0].Name = "1bad"
	issues := Validate(cfg)

	if i := issueAt(issues, "tables[0].name"); i == nil || i.Severity != SeverityError {
		t.Errorf("want error for invalid table name, got %v", issues)
	}
	if i := issueAt(issues, "tables[0].columns[0].name"); i == nil {
		t.Errorf("want error for invalid column name, got %v", issues)
	}
}

func TestValidate_SchemaQualifiedTableName(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Tables[0].Name = "public.tramites"
	if issues := Validate(cfg); HasErrors(issues) {
		t.Fatalf("qualified name rejected: %v", issues)
	}
}

func TestValidate_MissingPieces(t *testing.T) {
	t.Parallel()

	issues := Validate(Config{})
	for _, path := range []string{"storage.kind", "storage.dsn", "tables"} {
		if issueAt(issues, path) == nil {
			t.Errorf("want issue at %s, got %v", path, issues)
		}
	}
}

func TestValidate_DuplicatesAndKinds(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Tables[0].Columns = append(cfg.Tables[0].Columns,
		ColumnConfig{Name: "numerotramite"},
		ColumnConfig{Name: "x", Kind: "integer"},
	)
	issues := Validate(cfg)

	if issueAt(issues, "tables[0].columns[2].name") == nil {
		t.Errorf("want duplicate-column error, got %v", issues)
	}
	if i := issueAt(issues, "tables[0].columns[3].kind"); i == nil {
		t.Errorf("want unknown-kind error, got %v", issues)
	}
}

func TestValidate_DelimiterWarning(t *testing.T) {
	t.Parallel()

	// A single rune is fine even when it is multi-byte.
	cfg := validConfig()
	cfg.Source.Delimiter = "¦"
	if i := issueAt(Validate(cfg), "source.delimiter"); i != nil {
		t.Errorf("single-rune delimiter flagged: %v", i)
	}

	cfg.Source.Delimiter = ";;"
	i := issueAt(Validate(cfg), "source.delimiter")
	if i == nil || i.Severity != SeverityWarning {
		t.Errorf("want multi-rune delimiter warning, got %v", i)
	}
}

func TestValidate_AliasWarning(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Tables[0].Columns[0].Aliases = []string{"Not Normalized"}
	issues := Validate(cfg)
	i := issueAt(issues, "tables[0].columns[0].aliases[0]")
	if i == nil || i.Severity != SeverityWarning {
		t.Fatalf("want alias warning, got %v", issues)
	}
	if HasErrors(issues) {
		t.Fatalf("warnings must not be errors: %v", issues)
	}
}
