package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/claimgate/claimgate/internal/config"
	"github.com/claimgate/claimgate/internal/domain/claims"
	"github.com/claimgate/claimgate/internal/nphies"
	"github.com/claimgate/claimgate/internal/platform/telemetry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "claimgate",
		Short: "Claim mapping engine for the national insurance exchange",
	}

	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(pollRequestCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, claims.Settings, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, claims.Settings{}, zerolog.Nop(), err
	}
	logger := telemetry.NewLogger(cfg.LogLevel, cfg.IsDev())
	settings := claims.Settings{
		SenderLicense:       cfg.SenderLicense,
		ReceiverLicense:     cfg.ReceiverLicense,
		SourceEndpoint:      cfg.SourceEndpoint,
		DestinationEndpoint: cfg.DestinationEndpoint,
		DefaultCurrency:     cfg.DefaultCurrency,
	}
	return cfg, settings, logger, nil
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func buildCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build one claim envelope from a claim record JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, settings, logger, err := setup()
			if err != nil {
				return err
			}
			var rec claims.ClaimRecord
			if err := readJSONFile(file, &rec); err != nil {
				return err
			}
			registry := claims.NewRegistry(settings)
			bundle, err := registry.BuildEnvelope(&rec)
			if err != nil {
				return err
			}
			logger.Info().
				Str("claim_number", rec.ClaimNumber).
				Str("type", claims.NormalizeClaimType(rec.Type)).
				Str("bundle_id", bundle.ID).
				Msg("envelope built")
			return writeJSON(bundle)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "claim record JSON file")
	cmd.MarkFlagRequired("file")
	return cmd
}

func batchCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Validate and split a batch request into independent envelopes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, settings, logger, err := setup()
			if err != nil {
				return err
			}
			var req claims.BatchRequest
			if err := readJSONFile(file, &req); err != nil {
				return err
			}
			builder := claims.NewBatchBuilder(claims.NewRegistry(settings), settings, logger)
			envelopes, err := builder.Split(&req)
			if err != nil {
				return err
			}
			return writeJSON(envelopes)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "batch request JSON file")
	cmd.MarkFlagRequired("file")
	return cmd
}

func parseCmd() *cobra.Command {
	var file string
	var batch bool
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a response envelope into a normalized outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, logger, err := setup()
			if err != nil {
				return err
			}
			var bundle map[string]interface{}
			if err := readJSONFile(file, &bundle); err != nil {
				return err
			}
			expected := nphies.EventClaimResponse
			if batch {
				expected = nphies.EventBatchResponse
			}
			if structural := claims.ValidateResponseShape(bundle, expected); len(structural) > 0 {
				logger.Warn().Strs("errors", structural).Msg("response failed structural validation")
			}
			if batch {
				return writeJSON(claims.ParseBatchResponse(bundle))
			}
			return writeJSON(claims.ParseResponse(bundle))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "response envelope JSON file")
	cmd.Flags().BoolVar(&batch, "batch", false, "treat the envelope as a batch response")
	cmd.MarkFlagRequired("file")
	return cmd
}

func pollRequestCmd() *cobra.Command {
	var batchID string
	cmd := &cobra.Command{
		Use:   "poll-request",
		Short: "Build a poll envelope requesting deferred batch responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, settings, logger, err := setup()
			if err != nil {
				return err
			}
			builder := claims.NewBatchBuilder(claims.NewRegistry(settings), settings, logger)
			return writeJSON(builder.BuildPollRequest(batchID))
		},
	}
	cmd.Flags().StringVar(&batchID, "batch-id", "", "restrict the poll to one batch identifier")
	return cmd
}
