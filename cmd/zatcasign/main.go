// Command zatcasign signs UBL invoices and exchanges them with ZATCA.
package main

// SPDX-License-Identifier: MIT
// Grounded on l-d-t-fiskalhrgo's fiskalhr.go validate-inputs-then-construct-
// then-act shape (NewFiskalEntity, then EchoRequest/InvoiceRequest), wired
// into a github.com/spf13/cobra command tree: sign, compliance-check, clear
// and report subcommands sharing one persistent entity built from
// internal/config.

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mabumusa1/zatca-sub001/internal/config"
	"github.com/mabumusa1/zatca-sub001/internal/obslog"
	"github.com/mabumusa1/zatca-sub001/zatca"
	"github.com/mabumusa1/zatca-sub001/zatca/transport"
)

var invoicePath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zatcasign",
		Short: "Sign UBL invoices and exchange them with ZATCA",
	}
	root.PersistentFlags().StringVar(&invoicePath, "invoice", "", "path to the unsigned UBL invoice XML")
	root.AddCommand(newSignCmd(), newComplianceCmd(), newReportCmd(), newClearCmd())
	return root
}

func loadEntity() (*config.Config, *obslog.Logger, *zatca.SigningEntity, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := obslog.New(obslog.Config{Env: cfg.Log.Env, Level: cfg.Log.Level})

	httpTimeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	entity, err := zatca.NewSigningEntity(cfg.Entity.VATNumber, cfg.Entity.SellerName, cfg.Entity.DemoMode, cfg.Entity.CertPath, cfg.Entity.CertPassword, httpTimeout)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build signing entity: %w", err)
	}
	return cfg, log, entity, nil
}

func readInvoice() ([]byte, error) {
	if invoicePath == "" {
		return nil, fmt.Errorf("--invoice is required")
	}
	return os.ReadFile(invoicePath)
}

func newSignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign",
		Short: "Sign an invoice and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, entity, err := loadEntity()
			if err != nil {
				return err
			}
			unsigned, err := readInvoice()
			if err != nil {
				return err
			}

			result, err := zatca.Sign(cmd.Context(), unsigned, entity.Certificate(), entity.PrivateKey())
			if err != nil {
				return err
			}
			log.Info().Str("uuid", result.UUID).Msg("invoice signed")

			return json.NewEncoder(os.Stdout).Encode(map[string]string{
				"uuid":      result.UUID,
				"hash":      result.HashB64,
				"qr":        result.QRB64,
				"signature": result.SignatureB64,
				"signedXML": string(result.SignedXML),
			})
		},
	}
}

func signAndBuildRequest(ctx context.Context, entity *zatca.SigningEntity) (transport.ComplianceRequest, zatca.SignedResult, error) {
	unsigned, err := readInvoice()
	if err != nil {
		return transport.ComplianceRequest{}, zatca.SignedResult{}, err
	}
	result, err := zatca.Sign(ctx, unsigned, entity.Certificate(), entity.PrivateKey())
	if err != nil {
		return transport.ComplianceRequest{}, zatca.SignedResult{}, err
	}
	req := transport.ComplianceRequest{
		InvoiceHash: result.HashB64,
		UUID:        result.UUID,
		Invoice:     base64.StdEncoding.EncodeToString(result.SignedXML),
	}
	return req, result, nil
}

func newComplianceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compliance-check",
		Short: "Sign an invoice and submit it to ZATCA's compliance endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, entity, err := loadEntity()
			if err != nil {
				return err
			}
			req, result, err := signAndBuildRequest(cmd.Context(), entity)
			if err != nil {
				return err
			}
			resp, err := entity.Transport().CheckCompliance(cmd.Context(), req)
			if err != nil {
				return err
			}
			log.Info().Str("uuid", result.UUID).Str("status", resp.ValidationResults.Status).Msg("compliance check complete")
			return json.NewEncoder(os.Stdout).Encode(resp)
		},
	}
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Sign a simplified invoice and report it to ZATCA",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, entity, err := loadEntity()
			if err != nil {
				return err
			}
			req, result, err := signAndBuildRequest(cmd.Context(), entity)
			if err != nil {
				return err
			}
			resp, err := entity.Transport().ReportSimplified(cmd.Context(), req)
			if err != nil {
				return err
			}
			log.Info().Str("uuid", result.UUID).Str("status", resp.ReportingStatus).Msg("invoice reported")
			return json.NewEncoder(os.Stdout).Encode(resp)
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Sign a standard invoice and submit it to ZATCA for clearance",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, entity, err := loadEntity()
			if err != nil {
				return err
			}
			req, result, err := signAndBuildRequest(cmd.Context(), entity)
			if err != nil {
				return err
			}
			resp, err := entity.Transport().ClearStandard(cmd.Context(), req)
			if err != nil {
				return err
			}
			log.Info().Str("uuid", result.UUID).Str("status", resp.ClearanceStatus).Msg("invoice cleared")
			return json.NewEncoder(os.Stdout).Encode(resp)
		},
	}
}
