package cmd

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestDirectoryCommandTree(t *testing.T) {
	paths := [][]string{
		{"user", "add"},
		{"team", "add"},
		{"team", "member"},
		{"team", "grant"},
		{"project", "add"},
		{"repo", "add"},
		{"issue", "add"},
	}

	for _, path := range paths {
		current := directoryCmd
		for _, name := range path {
			var next *cobra.Command
			for _, sub := range current.Commands() {
				if sub.Name() == name {
					next = sub
					break
				}
			}
			if next == nil {
				t.Fatalf("command %v not registered under directory", path)
			}
			current = next
		}
	}
}
