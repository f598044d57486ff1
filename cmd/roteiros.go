package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/colmeia-ooh/colmeia/internal/model"
	"github.com/colmeia-ooh/colmeia/internal/pagination"
	"github.com/colmeia-ooh/colmeia/internal/store"
)

var roteirosCmd = &cobra.Command{
	Use:   "roteiros",
	Short: "List generated media plans",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		cidade, _ := cmd.Flags().GetString("cidade")
		page, size = pagination.Normalize(page, size)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		roteiros, total, err := st.ListRoteiros(ctx, store.RoteiroFilter{
			Cidade: cidade,
			Limit:  size,
			Offset: pagination.Offset(page, size),
		})
		if err != nil {
			return eris.Wrap(err, "roteiros")
		}

		if len(roteiros) == 0 {
			fmt.Fprintln(os.Stderr, "No roteiros found.")
			return nil
		}

		formatRoteiros(os.Stdout, roteiros, pagination.NewPage(page, size, total))
		return nil
	},
}

var roteirosAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a media plan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		pk, _ := cmd.Flags().GetInt64("pk")
		nome, _ := cmd.Flags().GetString("nome")
		cidade, _ := cmd.Flags().GetString("cidade")
		semanas, _ := cmd.Flags().GetInt("semanas")
		if semanas < 0 {
			return eris.New("roteiros add: --semanas must not be negative")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		r := &model.Roteiro{PK: pk, Nome: nome, Cidade: cidade, Semanas: semanas, CriadoEm: time.Now().UTC()}
		if err := st.UpsertRoteiro(ctx, r); err != nil {
			return eris.Wrap(err, "roteiros add")
		}
		zap.L().Info("roteiro saved", zap.Int64("pk", pk), zap.String("nome", nome))
		return nil
	},
}

func formatRoteiros(out io.Writer, roteiros []model.Roteiro, p pagination.Page) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PK\tNOME\tCIDADE\tSEMANAS\tCRIADO")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t-------\t------")

	for _, r := range roteiros {
		nome := r.Nome
		if len(nome) > 40 {
			nome = nome[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			r.PK, nome, r.Cidade, r.Semanas, r.CriadoEm.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\npage %d of %d (%d total)  %s\n", p.Number, p.TotalPages, p.Total, formatWindow(p.Window, p.Number))
}

// formatWindow renders a page window like "1 … [4] 5 … 9".
func formatWindow(window []int, current int) string {
	s := ""
	for i, n := range window {
		if i > 0 {
			s += " "
		}
		switch n {
		case pagination.Gap:
			s += "…"
		case current:
			s += fmt.Sprintf("[%d]", n)
		default:
			s += fmt.Sprintf("%d", n)
		}
	}
	return s
}

func init() {
	roteirosCmd.Flags().Int("page", 1, "page number")
	roteirosCmd.Flags().Int("size", pagination.DefaultSize, "page size")
	roteirosCmd.Flags().String("cidade", "", "filter by city")

	roteirosAddCmd.Flags().Int64("pk", 0, "roteiro description pk (required)")
	roteirosAddCmd.Flags().String("nome", "", "plan name (required)")
	roteirosAddCmd.Flags().String("cidade", "", "plan city")
	roteirosAddCmd.Flags().Int("semanas", 0, "number of weeks")
	_ = roteirosAddCmd.MarkFlagRequired("pk")
	_ = roteirosAddCmd.MarkFlagRequired("nome")

	roteirosCmd.AddCommand(roteirosAddCmd)
	rootCmd.AddCommand(roteirosCmd)
}
