package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/triptap-rides/internal/cli"
)

func TestCommandTree(t *testing.T) {
	root := cli.NewRootCmd(&cli.App{})

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"routes", "fare", "request", "track"})

	req, _, err := root.Find([]string{"request"})
	if assert.NoError(t, err) {
		for _, flag := range []string{"origin", "destination", "vehicle", "name", "email", "phone", "date", "hour", "bags", "temperature", "music", "follow"} {
			assert.NotNil(t, req.Flags().Lookup(flag), "request --%s", flag)
		}
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("lang"))
}
