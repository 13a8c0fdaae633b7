package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/veda-group/leadgen-cli/internal/model"
)

var citiesCmd = &cobra.Command{
	Use:   "cities <query>",
	Short: "Look up postcode areas by city name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		matches, err := env.Cities.Search(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("no matching cities")
			return nil
		}

		for _, c := range matches {
			fmt.Printf("%-4s %-30s population %d\n", c.PostcodeArea, c.AreaCovered, c.Population2011)
		}
		return nil
	},
}

var citiesImportCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Load the postcode-area reference table from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[0])
		}
		defer f.Close()

		records, err := parseCityRecords(f)
		if err != nil {
			return err
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Store.ImportCities(cmd.Context(), records)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d cities\n", n)
		return nil
	},
}

// parseCityRecords reads the postcode-area CSV: postcode_area,
// area_covered, population_2011, households_2011, postcodes,
// active_postcodes, non_geographic_postcodes. A header row is detected
// and skipped; numeric columns tolerate blanks.
func parseCityRecords(r io.Reader) ([]model.City, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var cities []model.City
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "cities: read csv line %d", line)
		}
		if len(rec) < 2 {
			return nil, eris.Errorf("cities: line %d: want at least 2 columns, got %d", line, len(rec))
		}
		if line == 1 && rec[0] == "postcode_area" {
			continue
		}

		c := model.City{
			ID:           rec[0],
			PostcodeArea: rec[0],
			AreaCovered:  rec[1],
		}
		nums := []*int{
			&c.Population2011, &c.Households2011, &c.Postcodes,
			&c.ActivePostcodes, &c.NonGeographicPostcodes,
		}
		for i, dst := range nums {
			col := i + 2
			if col >= len(rec) || rec[col] == "" {
				continue
			}
			n, err := strconv.Atoi(rec[col])
			if err != nil {
				return nil, eris.Wrapf(err, "cities: line %d column %d", line, col+1)
			}
			*dst = n
		}
		cities = append(cities, c)
	}
	return cities, nil
}

func init() {
	citiesCmd.AddCommand(citiesImportCmd)
	rootCmd.AddCommand(citiesCmd)
}
