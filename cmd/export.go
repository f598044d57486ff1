package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/colmeia-ooh/colmeia/internal/report"
)

var (
	exportDescPK int64
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a roteiro's media points with exhibitor and city totals to xlsx",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		points, err := st.ListMediaPoints(ctx, exportDescPK)
		if err != nil {
			return eris.Wrap(err, "export")
		}
		f, err := report.WritePoints(points)
		if err != nil {
			return err
		}
		if err := f.Save(exportOut); err != nil {
			return eris.Wrap(err, "export: save xlsx")
		}

		zap.L().Info("export complete",
			zap.Int64("desc_pk", exportDescPK),
			zap.Int("pontos", len(points)),
			zap.String("out", exportOut),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().Int64Var(&exportDescPK, "desc-pk", 0, "roteiro description pk (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output xlsx path (required)")
	_ = exportCmd.MarkFlagRequired("desc-pk")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
