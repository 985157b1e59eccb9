package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/case-story-service/internal/pipeline"
)

type regionSummary struct {
	Region string    `json:"region"`
	Points int       `json:"points"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

func newRegionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the regions available in the data file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.opts.Output == jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summarize(st))
			}
			return printRegions(out, st)
		},
	}
}

func summarize(st *pipeline.State) []regionSummary {
	regions := st.Regions()
	out := make([]regionSummary, 0, len(regions))
	for _, region := range regions {
		series, _ := st.Series(region)
		out = append(out, regionSummary{
			Region: region,
			Points: len(series),
			From:   series[0].Date,
			To:     series.Last().Date,
		})
	}
	return out
}

func printRegions(w io.Writer, st *pipeline.State) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Region", "Points", "From", "To"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, s := range summarize(st) {
		data = append(data, []string{
			s.Region,
			strconv.Itoa(s.Points),
			s.From.Format(time.DateOnly),
			s.To.Format(time.DateOnly),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if n := st.Dropped(); n > 0 {
		_, err := fmt.Fprintln(w, color.YellowString("%d rows were dropped during ingestion", n))
		return err
	}
	return nil
}
