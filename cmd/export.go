package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/veda-group/leadgen-cli/internal/export"
	"github.com/veda-group/leadgen-cli/internal/leadfilter"
)

var (
	exportQuery  string
	exportSort   string
	exportFormat string
	exportDir    string
	exportAll    bool
)

var exportCmd = &cobra.Command{
	Use:   "export <db> [collection...]",
	Short: "Export valid leads to CSV or XLSX files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFormat != "csv" && exportFormat != "xlsx" {
			return eris.Errorf("unsupported format: %s (want csv or xlsx)", exportFormat)
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		dbName := args[0]
		collections := args[1:]
		if exportAll || len(collections) == 0 {
			collections, err = env.Leads.Collections(cmd.Context(), dbName)
			if err != nil {
				return err
			}
		}
		if len(collections) == 0 {
			return eris.Errorf("no collections found in %s", dbName)
		}

		sort := leadfilter.ParseSortKey(exportSort)

		// One file per collection, written concurrently.
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(4)
		for _, collection := range collections {
			g.Go(func() error {
				leadSet, err := env.Leads.ExportLeads(ctx, dbName, collection, exportQuery, sort)
				if err != nil {
					return err
				}

				name := export.Filename(dbName, collection, time.Now())
				if exportFormat == "xlsx" {
					name = strings.TrimSuffix(name, ".csv") + ".xlsx"
				}
				path := filepath.Join(exportDir, name)

				if exportFormat == "xlsx" {
					err = export.WriteXLSX(leadSet, path)
				} else {
					err = export.WriteCSV(leadSet, path)
				}
				if err != nil {
					return err
				}

				zap.L().Info("exported collection",
					zap.String("collection", collection),
					zap.Int("leads", len(leadSet)),
					zap.String("file", path))
				fmt.Printf("%s: %d leads -> %s\n", collection, len(leadSet), path)
				return nil
			})
		}
		return g.Wait()
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportQuery, "query", "q", "", "filter before export")
	exportCmd.Flags().StringVar(&exportSort, "sort", "recent", "sort key: recent, name, or reviews")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", ".", "output directory")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export every collection in the database")
	rootCmd.AddCommand(exportCmd)
}
