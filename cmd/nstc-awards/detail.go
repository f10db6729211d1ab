package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(detailCmd)
}

var detailCmd = &cobra.Command{
	Use:   "detail <project_no>",
	Short: "Prints the full impact narrative of a project.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		impact, err := client.FetchDetail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if impact == "" {
			return fmt.Errorf("no impact text found for project %s", args[0])
		}

		fmt.Println(impact)
		return nil
	},
}
