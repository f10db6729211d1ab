package main

import (
	"fmt"
	"nstcaward-backend/internal/scrapers/nstc"
	"nstcaward-backend/internal/telemetry"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	baseUrl string
	timeout time.Duration
	workers int
	dumpDir string
	verbose bool

	year  int
	code  string
	name  string
	organ string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&baseUrl, "base-url", nstc.DefaultBaseUrl, "Base url of the award registry.")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", nstc.DefaultTimeout, "Timeout of every single request.")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", nstc.DefaultDetailWorkers, "Detail pages fetched at once.")
	rootCmd.PersistentFlags().StringVar(&dumpDir, "dump-dir", "", "Write every raw HTTP exchange into this directory.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")

	rootCmd.Flags().IntVar(&year, "year", 113, "ROC calendar year of the award.")
	rootCmd.Flags().StringVar(&code, "code", "QS01", "Award category code.")
	rootCmd.Flags().StringVar(&name, "name", "", "Principal investigator name.")
	rootCmd.Flags().StringVar(&organ, "organ", "", "Institution filter.")
	rootCmd.MarkFlagRequired("name")
}

func newClient() (*nstc.Client, error) {
	telemetry.InitSlog(verbose)
	tel := telemetry.SlogAPI{}

	opts := nstc.ClientOptions{
		BaseUrl:       baseUrl,
		Timeout:       timeout,
		DetailWorkers: workers,
	}
	if dumpDir != "" {
		output, err := telemetry.NewFilesystemOutput(dumpDir, tel)
		if err != nil {
			return nil, err
		}
		opts.MessageOutput = output
	}

	return nstc.NewClient(opts, tel)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func renderRecord(index int, record nstc.AwardRecord) {
	projectNo := "-"
	if record.ProjectNo != nil {
		projectNo = *record.ProjectNo
	}

	t := newTable()
	t.SetTitle(fmt.Sprintf("#%d", index+1))
	t.AppendRows([]table.Row{
		{"award_year", record.AwardYear},
		{"pi_name", record.PiName},
		{"organ", record.Organ},
		{"plan_name", record.PlanName},
		{"period", record.Period},
		{"total_amount", record.TotalAmount},
		{"impact", record.Impact},
		{"keywords_zh", record.KeywordsZh},
		{"keywords_en", record.KeywordsEn},
		{"project_no", projectNo},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 80},
	})
	t.Render()
}

var rootCmd = &cobra.Command{
	Use:   "nstc-awards",
	Short: "nstc-awards queries the NSTC award registry and prints every matched award.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		records, err := client.Search(cmd.Context(), nstc.SearchParams{
			Year:  year,
			Code:  code,
			Name:  name,
			Organ: organ,
		})
		if err != nil {
			return err
		}

		fmt.Printf("found %d awards\n", len(records))
		for i, record := range records {
			renderRecord(i, record)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
