// Package config defines the JSON-serializable configuration model for the
// ingestion service: canonical table schemas, storage selection, source
// options, and runtime tuning. It is intentionally small and explicit so
// configs can be loaded from disk and passed through the program without
// additional glue code; decoding is performed by the standard library.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/adraguidev/dashboardproject-sub001/internal/schema"
)

// Config is the top-level object decoded from a config file.
type Config struct {
	// Tables lists the canonical schemas, one per target table.
	Tables []TableConfig `json:"tables"`

	// Storage selects and configures the repository backend.
	Storage StorageConfig `json:"storage"`

	// Source tunes how file bytes are parsed.
	Source SourceConfig `json:"source"`

	// Runtime controls batching.
	Runtime RuntimeConfig `json:"runtime"`
}

// TableConfig is the canonical schema for one target table.
type TableConfig struct {
	Name    string         `json:"name"`
	Columns []ColumnConfig `json:"columns"`
}

// ColumnConfig declares one canonical column.
type ColumnConfig struct {
	Name string `json:"name"`

	// Kind is "text" or "date"; empty defaults to "text".
	Kind string `json:"kind,omitempty"`

	// Aliases are additional normalized header names resolving to this
	// column (e.g. "fecha_ingreso" for "fechaexpediente").
	Aliases []string `json:"aliases,omitempty"`
}

// StorageConfig selects the repository backend.
type StorageConfig struct {
	// Kind is "postgres" or "sqlite".
	Kind string `json:"kind"`

	// DSN is the backend connection string.
	DSN string `json:"dsn"`
}

// SourceConfig tunes delimited-text parsing.
type SourceConfig struct {
	// Delimiter is the field separator for .csv inputs; first rune is used.
	// Empty defaults to ";", the separator the case-management exports use.
	Delimiter string `json:"delimiter,omitempty"`

	// LazyQuotes relaxes quote handling for known-dirty inputs.
	LazyQuotes bool `json:"lazy_quotes,omitempty"`
}

// RuntimeConfig controls batching.
type RuntimeConfig struct {
	// BatchSize is the insert flush threshold in rows; 0 means 500.
	BatchSize int `json:"batch_size,omitempty"`
}

// DefaultBatchSize is used when runtime.batch_size is unset.
const DefaultBatchSize = 500

// Load reads and decodes a config file.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// BatchSize returns the effective flush threshold.
func (c Config) BatchSize() int {
	if c.Runtime.BatchSize > 0 {
		return c.Runtime.BatchSize
	}
	return DefaultBatchSize
}

// DelimiterRune returns the effective delimiter for delimited text.
func (c Config) DelimiterRune() rune {
	if c.Source.Delimiter == "" {
		return ';'
	}
	return []rune(c.Source.Delimiter)[0]
}

// SchemaSet converts the table configs into schema.Table values keyed by
// table name. Call Validate first; SchemaSet assumes a valid config.
func (c Config) SchemaSet() map[string]schema.Table {
	out := make(map[string]schema.Table, len(c.Tables))
	for _, tc := range c.Tables {
		t := schema.Table{Name: tc.Name, Columns: make([]schema.Column, len(tc.Columns))}
		for i, cc := range tc.Columns {
			kind := schema.Kind(cc.Kind)
			if cc.Kind == "" {
				kind = schema.KindText
			}
			t.Columns[i] = schema.Column{Name: cc.Name, Kind: kind, Aliases: cc.Aliases}
		}
		out[tc.Name] = t
	}
	return out
}
