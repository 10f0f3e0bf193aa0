package main

import (
	"os"
	"testing"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/pinpoint?sslmode=disable":   "pgx5://u:p@db:5432/pinpoint?sslmode=disable",
		"postgresql://u:p@db:5432/pinpoint?sslmode=disable": "pgx5://u:p@db:5432/pinpoint?sslmode=disable",
		"pgx5://db/pinpoint":                                "pgx5://db/pinpoint",
	}
	for in, want := range tests {
		assert.Equal(t, want, databaseURL(in), in)
	}
}

func TestShippedMigrationsArePaired(t *testing.T) {
	entries, err := os.ReadDir("../../migrations")
	require.NoError(t, err)

	ups := map[uint]string{}
	downs := map[uint]string{}
	for _, e := range entries {
		m, err := source.Parse(e.Name())
		require.NoError(t, err, e.Name())
		switch m.Direction {
		case source.Up:
			ups[m.Version] = m.Identifier
		case source.Down:
			downs[m.Version] = m.Identifier
		}
	}

	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs, "every up migration needs a down migration with the same name")
	for _, v := range []uint{1, 2} {
		assert.Contains(t, ups, v)
	}
}
