package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConnURL(t *testing.T) {
	raw := buildConnURL("pc_inventory", "db.example.edu", "5432", "svc", "p@ss:word/")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "postgres", parsed.Scheme)
	assert.Equal(t, "db.example.edu:5432", parsed.Host)
	assert.Equal(t, "/pc_inventory", parsed.Path)
	assert.Equal(t, "svc", parsed.User.Username())
	password, _ := parsed.User.Password()
	assert.Equal(t, "p@ss:word/", password, "credentials must survive URL escaping")
	assert.Equal(t, "disable", parsed.Query().Get("sslmode"))
}
