package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/colmeia-ooh/colmeia/internal/model"
	"github.com/colmeia-ooh/colmeia/internal/optimizer"
	"github.com/colmeia-ooh/colmeia/internal/report"
)

var (
	optimizeDescPK int64
	optimizeSemana int
	optimizeFile   string
	optimizeFormat string
	optimizeXLSX   string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Analyze a hexagon set and suggest point relocations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if optimizeFile == "" && optimizeDescPK == 0 {
			return eris.New("optimize: --desc-pk or --file is required")
		}

		hexagons, err := loadHexagons(cmd.Context(), optimizeFile, hexagonQuery(optimizeDescPK, cmd.Flags().Changed("semana"), optimizeSemana))
		if err != nil {
			return err
		}

		analysis := optimizer.Optimize(hexagons)
		if analysis == nil {
			zap.L().Warn("no analysis available", zap.Int("hexagons", len(hexagons)))
		} else {
			zap.L().Info("analysis complete",
				zap.Int("hexagons", analysis.PlanoAtual.TotalHexagonos),
				zap.Int("sugestoes", len(analysis.PlanoOtimizado.Sugestoes)),
				zap.Float64("ganho_percentual", analysis.PlanoOtimizado.GanhoPercentual),
			)
		}

		if optimizeXLSX != "" {
			f, err := report.WriteAnalysis(analysis)
			if err != nil {
				return err
			}
			if err := f.Save(optimizeXLSX); err != nil {
				return eris.Wrap(err, "optimize: save xlsx")
			}
		}

		return writeOutput(os.Stdout, optimizeFormat, map[string]any{"analise": analysis})
	},
}

// loadHexagons reads the set from a spreadsheet when file is set, else from
// the store.
func loadHexagons(ctx context.Context, file string, q model.HexagonQuery) ([]model.Hexagon, error) {
	if file != "" {
		return report.ReadHexagons(file)
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck
	return st.ListHexagons(ctx, q)
}

func init() {
	optimizeCmd.Flags().Int64Var(&optimizeDescPK, "desc-pk", 0, "roteiro description pk")
	optimizeCmd.Flags().IntVar(&optimizeSemana, "semana", 0, "week number (default: whole plan, else earliest week per hexagon)")
	optimizeCmd.Flags().StringVar(&optimizeFile, "file", "", "read hexagons from an xlsx file instead of the store")
	optimizeCmd.Flags().StringVar(&optimizeFormat, "format", "json", "output format (json or yaml)")
	optimizeCmd.Flags().StringVar(&optimizeXLSX, "xlsx", "", "also write the analysis workbook to this path")
	rootCmd.AddCommand(optimizeCmd)
}
