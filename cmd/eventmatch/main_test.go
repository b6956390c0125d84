package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := rootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "seed-templates", "regenerate-qr", "reconcile-votes", "version"}, names)
}

func TestVersionCommand(t *testing.T) {
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "eventmatch version "+Version+"\n", out.String())
}

func TestMigrateAndSeed(t *testing.T) {
	t.Setenv("EVENTMATCH_DATABASE_URL", t.TempDir()+"/eventmatch.db")
	t.Setenv("EVENTMATCH_MEDIA_DIR", t.TempDir())

	for _, args := range [][]string{{"migrate"}, {"seed-templates"}, {"reconcile-votes"}, {"regenerate-qr"}} {
		root := rootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs(args)
		require.NoError(t, root.Execute(), args)
	}

	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"seed-templates"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "already exists")
}
