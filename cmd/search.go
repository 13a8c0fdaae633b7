package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veda-group/leadgen-cli/internal/export"
	"github.com/veda-group/leadgen-cli/internal/leadfilter"
)

var (
	searchQuery string
	searchPage  int
	searchSort  string
)

var searchCmd = &cobra.Command{
	Use:   "search <db> <collection>",
	Short: "Browse valid leads in a scraped collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		page, err := env.Leads.Results(cmd.Context(), args[0], args[1],
			searchQuery, searchPage, leadfilter.ParseSortKey(searchSort))
		if err != nil {
			return err
		}

		for _, lead := range page.Items {
			emails := export.JoinEmails(lead.Email)
			fmt.Printf("%-40s %-15s %s\n", lead.DisplayName(), leadfilter.Digits(lead.Phone), emails)
		}
		fmt.Println(strings.Repeat("-", 72))
		fmt.Printf("page %d of %d (%d leads)\n",
			page.Pagination.CurrentPage, page.Pagination.Pages, page.Pagination.Total)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "filter by name, email, phone, address, or category")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "result page")
	searchCmd.Flags().StringVar(&searchSort, "sort", "recent", "sort key: recent, name, or reviews")
	rootCmd.AddCommand(searchCmd)
}
