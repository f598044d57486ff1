package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/colmeia-ooh/colmeia/internal/report"
)

var (
	importFile   string
	importDescPK int64
	importSemana int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import hexagon or media point spreadsheets into the store",
}

var importHexagonsCmd = &cobra.Command{
	Use:   "hexagonos",
	Short: "Import a roteiro's hexagon set for one week",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		hexagons, err := report.ReadHexagons(importFile)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.UpsertHexagons(ctx, importDescPK, importSemana, hexagons)
		if err != nil {
			return eris.Wrap(err, "import hexagonos")
		}

		zap.L().Info("import complete",
			zap.String("kind", "hexagonos"),
			zap.Int64("desc_pk", importDescPK),
			zap.Int("semana", importSemana),
			zap.Int("read", len(hexagons)),
			zap.Int64("written", n),
			zap.String("file", importFile),
		)
		return nil
	},
}

var importPointsCmd = &cobra.Command{
	Use:   "pontos",
	Short: "Import a roteiro's media points",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		points, err := report.ReadMediaPoints(importFile)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.UpsertMediaPoints(ctx, importDescPK, points)
		if err != nil {
			return eris.Wrap(err, "import pontos")
		}

		missing := 0
		for _, p := range points {
			if !p.HasLocation() {
				missing++
			}
		}
		zap.L().Info("import complete",
			zap.String("kind", "pontos"),
			zap.Int64("desc_pk", importDescPK),
			zap.Int("read", len(points)),
			zap.Int64("written", n),
			zap.Int("without_location", missing),
			zap.String("file", importFile),
		)
		return nil
	},
}

func init() {
	importCmd.PersistentFlags().StringVar(&importFile, "file", "", "path to the xlsx file (required)")
	importCmd.PersistentFlags().Int64Var(&importDescPK, "desc-pk", 0, "roteiro description pk (required)")
	_ = importCmd.MarkPersistentFlagRequired("file")
	_ = importCmd.MarkPersistentFlagRequired("desc-pk")
	importHexagonsCmd.Flags().IntVar(&importSemana, "semana", 0, "week number (0 for the whole plan)")

	importCmd.AddCommand(importHexagonsCmd, importPointsCmd)
	rootCmd.AddCommand(importCmd)
}
