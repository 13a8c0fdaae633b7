package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var databasesCmd = &cobra.Command{
	Use:   "databases [db]",
	Short: "List scraped databases, or the collections of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if len(args) == 1 {
			exists, err := env.Leads.DatabaseExists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !exists {
				fmt.Printf("database %s has not been scraped\n", args[0])
				return nil
			}
			collections, err := env.Leads.Collections(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, c := range collections {
				fmt.Println(c)
			}
			return nil
		}

		databases, err := env.Leads.Databases(cmd.Context())
		if err != nil {
			return err
		}
		for _, db := range databases {
			fmt.Println(db)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(databasesCmd)
}
