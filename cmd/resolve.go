package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/colmeia-ooh/colmeia/internal/model"
	"github.com/colmeia-ooh/colmeia/internal/report"
	"github.com/colmeia-ooh/colmeia/internal/resolver"
)

var (
	resolveDescPK int64
	resolveSemana int
	resolveOut    string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Check which media points fall on their group's hexagons",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		hexagons, err := st.ListHexagons(ctx, hexagonQuery(resolveDescPK, cmd.Flags().Changed("semana"), resolveSemana))
		if err != nil {
			return eris.Wrap(err, "resolve")
		}
		points, err := st.ListMediaPoints(ctx, resolveDescPK)
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		r := resolver.New(hexagons)
		if r.Skipped() > 0 {
			zap.L().Warn("hexagons with unreadable geometry", zap.Int("skipped", r.Skipped()))
		}
		results, summary := r.ClassifyAll(points)
		formatSummary(os.Stdout, summary)

		if resolveOut != "" {
			accepted := make([]model.MediaPoint, 0, summary.Accepted)
			for _, res := range results {
				if res.Decision.Accepted {
					accepted = append(accepted, res.Point)
				}
			}
			f, err := report.WritePoints(accepted)
			if err != nil {
				return err
			}
			if err := f.Save(resolveOut); err != nil {
				return eris.Wrap(err, "resolve: save xlsx")
			}
		}
		return nil
	},
}

func formatSummary(out io.Writer, s resolver.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "TOTAL\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "ACCEPTED\t%d\n", s.Accepted)
	_, _ = fmt.Fprintf(w, "REJECTED\t%d\n", s.Rejected)
	_, _ = fmt.Fprintln(w, "\t")
	_, _ = fmt.Fprintln(w, "REASON\tPOINTS")
	_, _ = fmt.Fprintln(w, "------\t------")

	reasons := make([]string, 0, len(s.ByReason))
	for reason := range s.ByReason {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", reason, s.ByReason[resolver.Reason(reason)])
	}
	_ = w.Flush()
}

func init() {
	resolveCmd.Flags().Int64Var(&resolveDescPK, "desc-pk", 0, "roteiro description pk (required)")
	resolveCmd.Flags().IntVar(&resolveSemana, "semana", 0, "week number (default: whole plan, else earliest week per hexagon)")
	resolveCmd.Flags().StringVar(&resolveOut, "out", "", "write accepted points to this xlsx path")
	_ = resolveCmd.MarkFlagRequired("desc-pk")
	rootCmd.AddCommand(resolveCmd)
}
