package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	t.Parallel()

	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"fetch", "generate", "publish", "run", "serve"}, names)
	require.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestStageCommandsRejectArgs(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	root.SetArgs([]string{"fetch", "extra"})
	err := root.Execute()
	require.Error(t, err)
}
