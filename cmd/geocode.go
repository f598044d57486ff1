package main

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/colmeia-ooh/colmeia/internal/model"
	"github.com/colmeia-ooh/colmeia/pkg/geocode"
)

var (
	geocodeDescPK int64
	geocodeDryRun bool
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Fill missing media point coordinates from their addresses",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("geocode"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		points, err := st.ListMediaPoints(ctx, geocodeDescPK)
		if err != nil {
			return eris.Wrap(err, "geocode")
		}

		addrs := pendingAddresses(points)
		if len(addrs) == 0 {
			zap.L().Info("no points need geocoding", zap.Int64("desc_pk", geocodeDescPK))
			return nil
		}

		client := geocode.NewClient(
			geocode.WithGoogleAPIKey(cfg.Geocode.GoogleKey),
			geocode.WithRateLimit(cfg.Geocode.RateLimit),
			geocode.WithConcurrency(cfg.Geocode.Concurrency),
		)
		results, err := client.BatchGeocode(ctx, addrs)
		if err != nil {
			return err
		}

		var matched, updated int
		for _, res := range results {
			if !res.Matched {
				continue
			}
			matched++
			if geocodeDryRun {
				continue
			}
			pk, err := strconv.ParseInt(res.ID, 10, 64)
			if err != nil {
				return eris.Wrapf(err, "geocode: point id %q", res.ID)
			}
			if err := st.UpdatePointLocation(ctx, geocodeDescPK, pk, res.Latitude, res.Longitude); err != nil {
				return eris.Wrapf(err, "geocode: update point %d", pk)
			}
			updated++
		}

		zap.L().Info("geocode complete",
			zap.Int64("desc_pk", geocodeDescPK),
			zap.Int("pending", len(addrs)),
			zap.Int("matched", matched),
			zap.Int("updated", updated),
			zap.Bool("dry_run", geocodeDryRun),
		)
		return nil
	},
}

// pendingAddresses lists the points without coordinates that carry enough
// address text to geocode.
func pendingAddresses(points []model.MediaPoint) []geocode.AddressInput {
	var addrs []geocode.AddressInput
	for _, p := range points {
		if p.HasLocation() || p.Endereco == "" {
			continue
		}
		addrs = append(addrs, geocode.AddressInput{
			ID:       strconv.FormatInt(p.PK, 10),
			Endereco: p.Endereco,
			Cidade:   p.Cidade,
		})
	}
	return addrs
}

func init() {
	geocodeCmd.Flags().Int64Var(&geocodeDescPK, "desc-pk", 0, "roteiro description pk (required)")
	geocodeCmd.Flags().BoolVar(&geocodeDryRun, "dry-run", false, "geocode but do not write coordinates")
	_ = geocodeCmd.MarkFlagRequired("desc-pk")
	rootCmd.AddCommand(geocodeCmd)
}
