package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/i474232898/covid-data-aggregation/internal/covid"
)

var jsonOutput bool

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute one view over the configured snapshot files and print it",
	}

	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "global",
		Short: "Global totals over the latest snapshot of every country",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, func(ctx context.Context, svc *covid.Service, w io.Writer) error {
				stats, err := svc.GlobalStats(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(w, stats)
				}
				lastUpdate := "-"
				if stats.LastUpdate != nil {
					lastUpdate = stats.LastUpdate.String()
				}
				table := newTable(w, []string{"Metric", "Value"})
				table.AppendBulk([][]string{
					{"total_cases", itoa(stats.TotalCases)},
					{"total_deaths", itoa(stats.TotalDeaths)},
					{"total_recovered", itoa(stats.TotalRecovered)},
					{"active_cases", itoa(stats.ActiveCases)},
					{"new_cases", itoa(stats.NewCases)},
					{"new_deaths", itoa(stats.NewDeaths)},
					{"countries_count", strconv.Itoa(stats.CountriesCount)},
					{"last_update", lastUpdate},
				})
				table.Render()
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cases",
		Short: "Latest record of every country",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, func(ctx context.Context, svc *covid.Service, w io.Writer) error {
				latest, err := svc.Latest(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(w, latest)
				}
				renderRecords(w, latest)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "countries",
		Short: "Every known country",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, func(ctx context.Context, svc *covid.Service, w io.Writer) error {
				countries, err := svc.Countries(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(w, map[string][]string{"countries": countries})
				}
				table := newTable(w, []string{"Country"})
				for _, c := range countries {
					table.Append([]string{c})
				}
				table.Render()
				return nil
			})
		},
	})

	cmd.AddCommand(timelineReportCmd())
	cmd.AddCommand(topReportCmd())
	cmd.AddCommand(compareReportCmd())

	return cmd
}

func timelineReportCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "timeline <country>",
		Short: "Trailing history of one country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, func(ctx context.Context, svc *covid.Service, w io.Writer) error {
				timeline, err := svc.Timeline(ctx, args[0], days)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(w, timeline)
				}
				fmt.Fprintf(w, "%s: %d records (temporal: %v)\n", timeline.Country, timeline.Days, timeline.Temporal)
				renderRecords(w, timeline.Data)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "number of trailing records")
	return cmd
}

func topReportCmd() *cobra.Command {
	var (
		limit  int
		metric string
	)

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Countries ranked by a metric",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, func(ctx context.Context, svc *covid.Service, w io.Writer) error {
				ranked, err := svc.Top(ctx, limit, metric)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(w, ranked)
				}
				table := newTable(w, []string{"#", "Country", metric, "Total Cases", "Total Deaths", "Last Update"})
				for i, r := range ranked {
					table.Append([]string{
						strconv.Itoa(i + 1),
						r.Country,
						optional(r.Value),
						itoa(r.TotalCases),
						itoa(r.TotalDeaths),
						r.LastUpdate.String(),
					})
				}
				table.Render()
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of countries")
	cmd.Flags().StringVar(&metric, "metric", string(covid.MetricTotalCases), "ranking metric")
	return cmd
}

func compareReportCmd() *cobra.Command {
	var metric string

	cmd := &cobra.Command{
		Use:   "compare <country>...",
		Short: "Latest figures and series length for several countries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, func(ctx context.Context, svc *covid.Service, w io.Writer) error {
				cmp, err := svc.Compare(ctx, args, metric)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(w, cmp)
				}
				fmt.Fprintf(w, "found %d of %d countries\n", cmp.CountriesFound, cmp.CountriesRequested)

				names := make([]string, 0, len(cmp.Series))
				for name := range cmp.Series {
					names = append(names, name)
				}
				sort.Strings(names)

				table := newTable(w, []string{"Country", "Points", "Last " + metric, "Total Cases", "Total Deaths", "Recovered", "Active"})
				for _, name := range names {
					s := cmp.Series[name]
					last := "-"
					if n := len(s.Values); n > 0 {
						last = itoa(s.Values[n-1])
					}
					table.Append([]string{
						s.Location,
						strconv.Itoa(len(s.Dates)),
						last,
						itoa(s.TotalCases),
						itoa(s.TotalDeaths),
						optional(s.TotalRecovered),
						optional(s.ActiveCases),
					})
				}
				table.Render()
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&metric, "metric", string(covid.MetricTotalCases), "comparison metric")
	return cmd
}

type reportFunc func(ctx context.Context, svc *covid.Service, w io.Writer) error

func runReport(cmd *cobra.Command, fn reportFunc) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	return fn(cmd.Context(), rt.service, os.Stdout)
}

func renderRecords(w io.Writer, records []covid.Record) {
	table := newTable(w, []string{
		"Location", "ISO", "Date", "Total Cases", "New Cases",
		"Total Deaths", "New Deaths", "Recovered", "Active",
	})
	for _, r := range records {
		table.Append([]string{
			r.Location,
			r.ISOCode,
			r.Date.Format("2006-01-02"),
			itoa(r.TotalCases),
			itoa(r.NewCases),
			itoa(r.TotalDeaths),
			itoa(r.NewDeaths),
			optional(r.TotalRecovered),
			optional(r.ActiveCases),
		})
	}
	table.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func optional(p *int64) string {
	if p == nil {
		return "-"
	}
	return itoa(*p)
}
