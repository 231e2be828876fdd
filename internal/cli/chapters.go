package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/alnah/go-audiobook/internal/chapters"
	"github.com/alnah/go-audiobook/internal/format"
	"github.com/alnah/go-audiobook/internal/merge"
)

// ChaptersCmd creates the chapters command: a dry run of merge that prints
// the chapter list it would embed.
// The env parameter provides injectable dependencies for testing.
func ChaptersCmd(env *Env) *cobra.Command {
	var (
		extensions string
		metadata   bool
	)

	cmd := &cobra.Command{
		Use:   "chapters <dir>",
		Short: "Preview the chapters a merge would create",
		Long: `Scan a directory, order its audio files, and measure them exactly as merge
would, then print the resulting chapter list. Nothing is written.`,
		Example: `  audiobook chapters ~/Audiobooks/Dune
  audiobook chapters . --metadata > chapters.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChapters(cmd.Context(), env, args[0], extensions, metadata)
		},
	}

	cmd.Flags().StringVar(&extensions, "ext", "", "Comma-separated input extensions (default: mp3)")
	cmd.Flags().BoolVar(&metadata, "metadata", false, "Print the FFMETADATA document instead of a table")

	return cmd
}

// runChapters computes the merge plan for dir and renders it to stdout.
func runChapters(ctx context.Context, env *Env, dir, extensions string, metadata bool) error {
	dir, err := checkDir(dir)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig(env)
	if err != nil {
		return err
	}
	mcfg, err := buildMergeConfig(cfg, mergeOptions{extensions: extensions})
	if err != nil {
		return err
	}

	prober, _, err := resolveTools(ctx, env, logger)
	if err != nil {
		return err
	}
	merger, err := merge.New(mcfg, nil, prober, merge.WithLogger(logger))
	if err != nil {
		return err
	}

	plan, err := merger.Plan(ctx, dir)
	if err != nil {
		return err
	}

	if metadata {
		_, err = fmt.Fprintln(env.Stdout, chapters.RenderMetadata(plan.Records))
		return err
	}
	return writeChapterTable(env.Stdout, plan.Records, env.IsTerminal(env.Stdout))
}

// writeChapterTable renders records as a table with a total footer.
// Rounded borders are used on terminals, plain ASCII otherwise.
func writeChapterTable(w io.Writer, records []chapters.Record, styled bool) error {
	tw := table.NewWriter()
	if styled {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	tw.AppendHeader(table.Row{"#", "Start", "End", "Length", "Title"})
	for i, r := range records {
		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			format.Timestamp(ms(r.Start)),
			format.Timestamp(ms(r.End)),
			format.Duration(r.Length()),
			r.Title,
		})
	}
	tw.AppendFooter(table.Row{"", "", "", format.Duration(chapters.Total(records)),
		fmt.Sprintf("%d chapters", len(records))})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
