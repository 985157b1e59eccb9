package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/case-story-service/internal/domain"
	"github.com/couchcryptid/case-story-service/internal/story"
)

func newStoryCmd(a *app) *cobra.Command {
	var cursor int

	cmd := &cobra.Command{
		Use:   "story <region>",
		Short: "Build and print the annotated story of one region.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd)
			if err != nil {
				return err
			}

			result, err := st.Select(args[0], a.opts.Segments)
			var warn *domain.DegradedSegmentationWarning
			if errors.As(err, &warn) {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("warning: %v", warn))
			} else if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.opts.Output == jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printStory(out, result, cursor)
		},
	}

	cmd.Flags().Int("segments", 3, "number of story segments (1-5)")
	_ = a.v.BindPFlag("segments", cmd.Flags().Lookup("segments"))
	cmd.Flags().IntVar(&cursor, "cursor", -1, "show the story as seen at this annotation (-1 shows all)")
	return cmd
}

func printStory(w io.Writer, st domain.Story, cursor int) error {
	seq := story.NewSequencer(st.Annotations)
	visible := st.Annotations
	if cursor >= 0 {
		visible = seq.VisibleAt(cursor)
	}

	if _, err := fmt.Fprintf(w, "%s: %d points, %d segments %v\n",
		st.Region, len(st.Series), len(st.Segments), st.SegmentRanges()); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Date", "Anchor", "Interval", "Text"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	highlight := color.New(color.FgYellow, color.Bold).SprintFunc()
	var data [][]string
	for i, ann := range visible {
		if ann.IsSentinel() {
			continue
		}
		text := ann.Text
		if ann.Highlight {
			text = highlight(text)
		}
		data = append(data, []string{
			strconv.Itoa(i),
			ann.Title,
			strconv.Itoa(ann.AnchorIndex),
			fmt.Sprintf("%d-%d", ann.StartIndex, ann.EndIndex),
			text,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if cursor >= 0 {
		_, err := fmt.Fprintf(w, "cursor %d of %d, position %d\n", min(cursor, seq.Len()-1), seq.Len(), seq.Position(cursor))
		return err
	}
	return nil
}
