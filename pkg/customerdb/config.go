package customerdb

import (
	"fmt"
	"strings"
)

// Config is loaded with prefix DB. A postgres:// or postgresql:// DSN selects
// PostgreSQL; anything else is treated as a SQLite path or URI.
type Config struct {
	DSN  string `default:"data/customers.db"`
	Seed bool   `default:"true"`
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	return nil
}

func (c Config) isPostgres() bool {
	dsn := strings.ToLower(strings.TrimSpace(c.DSN))
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
