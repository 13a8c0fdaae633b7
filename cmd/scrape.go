package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veda-group/leadgen-cli/pkg/scraperapi"
)

var (
	scrapeKeyword string
	scrapeNoMaps  bool
	scrapeWait    bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Drive the external scraper service",
}

var scrapeCityCmd = &cobra.Command{
	Use:   "city <name>",
	Short: "Scrape postcode sectors for a city, then crawl its businesses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := initScraper()
		city := args[0]
		keyword := scrapeKeyword
		if keyword == "" {
			keyword = cfg.Scraper.DefaultKeyword
		}

		data, err := client.CheckPostcodeData(cmd.Context(), city, keyword)
		if err != nil {
			return err
		}
		if data.Exists && data.Collection != nil {
			fmt.Printf("postcode data already exists (collection %s)\n", data.Collection.Name)
		}

		resp, err := client.StartPostcodeScrape(cmd.Context(), city, keyword, !scrapeNoMaps)
		if err != nil {
			return err
		}

		taskID := resp.TaskID
		kind := scraperapi.JobPostcode
		if taskID == "" && resp.GmapsTaskID != "" {
			taskID = resp.GmapsTaskID
			kind = scraperapi.JobMaps
		}
		fmt.Printf("started %s task %s\n", kind, taskID)

		if !scrapeWait {
			return nil
		}
		return waitForTask(cmd, client, kind, taskID)
	},
}

var scrapeMapsCmd = &cobra.Command{
	Use:   "maps <db> <queue-collection>",
	Short: "Crawl business listings from a queued subsector collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := initScraper()
		resp, err := client.StartMapsScrape(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("started GM task %s\n", resp.TaskID)

		if !scrapeWait {
			return nil
		}
		return waitForTask(cmd, client, scraperapi.JobMaps, resp.TaskID)
	},
}

var scrapeEmailCmd = &cobra.Command{
	Use:   "email <db> <collection>",
	Short: "Enrich a scraped collection with email addresses",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := initScraper()
		resp, err := client.StartEmailScrape(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("started ES task %s\n", resp.TaskID)

		if !scrapeWait {
			return nil
		}
		return waitForTask(cmd, client, scraperapi.JobEmail, resp.TaskID)
	},
}

// waitForTask blocks until the task (and any maps handoff) finishes,
// printing progress as it goes.
func waitForTask(cmd *cobra.Command, client scraperapi.Client, kind scraperapi.JobKind, taskID string) error {
	lastPct := -1
	status, err := scraperapi.PollWorkflow(cmd.Context(), client, kind, taskID,
		scraperapi.WithPollInterval(pollInterval()),
		scraperapi.WithUpdateFunc(func(s *scraperapi.TaskStatusResponse) {
			if pct := s.Percent(); pct != lastPct {
				lastPct = pct
				fmt.Printf("  %3d%% %s\n", pct, s.Message)
			}
		}),
	)
	if err != nil {
		return err
	}

	zap.L().Info("scrape finished",
		zap.String("task", taskID),
		zap.String("status", string(status.Status)))
	fmt.Printf("task %s: %s\n", taskID, status.Status)
	return nil
}

func init() {
	scrapeCityCmd.Flags().StringVarP(&scrapeKeyword, "keyword", "k", "", "business keyword (default from config)")
	scrapeCityCmd.Flags().BoolVar(&scrapeNoMaps, "no-maps", false, "stop after the postcode scrape")
	scrapeCmd.PersistentFlags().BoolVarP(&scrapeWait, "wait", "w", false, "poll until the task finishes")
	scrapeCmd.AddCommand(scrapeCityCmd, scrapeMapsCmd, scrapeEmailCmd)
	rootCmd.AddCommand(scrapeCmd)
}
