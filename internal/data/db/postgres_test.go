package db

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresConfigURL(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: "5432", User: "ql", Password: "p@ss word", Name: "questlog"}
	parsed, err := pgx.ParseConfig(cfg.URL())
	require.NoError(t, err)
	assert.Equal(t, "db", parsed.Host)
	assert.EqualValues(t, 5432, parsed.Port)
	assert.Equal(t, "ql", parsed.User)
	assert.Equal(t, "p@ss word", parsed.Password)
	assert.Equal(t, "questlog", parsed.Database)

	cfg.DSN = "postgres://other@h:6543/x"
	assert.Equal(t, cfg.DSN, cfg.URL())
}
