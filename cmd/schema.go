package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/arbor/cli"
	"github.com/grovetools/arbor/config"
)

// NewSchemaCmd creates the `schema` command
func NewSchemaCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"schema",
		"Print the JSON schema for arbor.yml",
	)
	cmd.Long = `Print the JSON schema describing the arbor.yml configuration file.
Editors can use it for completion and validation.`

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		data, err := config.SchemaJSON()
		if err != nil {
			return handleError(cmd, err)
		}
		fmt.Println(string(data))
		return nil
	}

	return cmd
}
