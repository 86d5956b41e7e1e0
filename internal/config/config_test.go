package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults_DerivesDriver(t *testing.T) {
	cases := []struct {
		target string
		want   string
	}{
		{"local", "sqlite"},
		{"cloud-dev", "postgres"},
		{"cloud", "postgres"},
	}
	for _, c := range cases {
		cfg := Config{BuildTarget: c.target, DBDriver: "auto", EmbedProvider: "none", SearchTimeoutSeconds: 10}
		require.NoError(t, cfg.ResolveDefaults(), c.target)
		assert.Equal(t, c.want, cfg.DBDriver, c.target)
	}
}

func TestResolveDefaults_ExplicitDriverKept(t *testing.T) {
	cfg := Config{BuildTarget: "local", DBDriver: "postgres", EmbedProvider: "none", SearchTimeoutSeconds: 10}
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestResolveDefaults_Rejections(t *testing.T) {
	bad := []Config{
		{BuildTarget: "laptop", DBDriver: "auto", EmbedProvider: "none", SearchTimeoutSeconds: 10},
		{BuildTarget: "local", DBDriver: "oracle", EmbedProvider: "none", SearchTimeoutSeconds: 10},
		{BuildTarget: "local", DBDriver: "auto", EmbedProvider: "cohere", SearchTimeoutSeconds: 10},
		{BuildTarget: "local", DBDriver: "auto", EmbedProvider: "none", SearchTimeoutSeconds: 0},
	}
	for i := range bad {
		assert.Error(t, bad[i].ResolveDefaults(), "case %d", i)
	}
}
