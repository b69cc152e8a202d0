// Package transport implements the HTTPS boundary between a signed invoice
// and the ZATCA reporting/clearance/compliance endpoints.
package transport

// SPDX-License-Identifier: MIT
// Grounded on l-d-t-fiskalhrgo's ciscomm.go GetResponse: same custom
// tls.Config + timeout-bound http.Client shape and the envelope/unmarshal/
// status-check flow, with the SOAP envelope replaced by ZATCA's JSON
// request/response bodies and HTTP Basic auth in place of XML signature
// verification of the response.

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 20 * time.Second

// Config wires a Client to one ZATCA environment's three endpoints.
type Config struct {
	ComplianceURL string
	ReportingURL  string
	ClearanceURL  string
	Timeout       time.Duration
}

// Client sends signed invoices to ZATCA's onboarding and e-invoicing APIs.
type Client struct {
	httpClient          *http.Client
	complianceURL       string
	reportingURL        string
	clearanceURL        string
	binarySecurityToken string
	secret              string
}

// NewClient builds a Client with a minimum-TLS-1.2 transport, matching
// ZATCA's published minimum. Credentials for Basic auth are set separately
// via WithCredentials since they are only available after compliance CSID
// issuance.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
			Timeout: timeout,
		},
		complianceURL: cfg.ComplianceURL,
		reportingURL:  cfg.ReportingURL,
		clearanceURL:  cfg.ClearanceURL,
	}
}

// WithCredentials returns a copy of c authenticated with the binary security
// token and secret issued by ZATCA's compliance CSID exchange.
func (c *Client) WithCredentials(binarySecurityToken, secret string) *Client {
	clone := *c
	clone.binarySecurityToken = binarySecurityToken
	clone.secret = secret
	return &clone
}

// ComplianceRequest is the body of a compliance-check call: a signed
// invoice plus its hash and UUID, as produced by zatca.Sign.
type ComplianceRequest struct {
	InvoiceHash string `json:"invoiceHash"`
	UUID        string `json:"uuid"`
	Invoice     string `json:"invoice"`
}

// ComplianceResponse reports ZATCA's validation results for a compliance
// check, without clearing or reporting the invoice.
type ComplianceResponse struct {
	ValidationResults ValidationResults `json:"validationResults"`
}

// ReportResponse is returned for simplified (B2C) invoice reporting.
type ReportResponse struct {
	ValidationResults ValidationResults `json:"validationResults"`
	ReportingStatus   string            `json:"reportingStatus"`
}

// ClearanceResponse is returned for standard (B2B) invoice clearance and
// carries the ZATCA-stamped, cleared invoice XML (base64) alongside the
// submitted one.
type ClearanceResponse struct {
	ValidationResults ValidationResults `json:"validationResults"`
	ClearanceStatus   string            `json:"clearanceStatus"`
	ClearedInvoice    string            `json:"clearedInvoice"`
}

// ValidationResults mirrors ZATCA's common warnings/errors envelope shared
// across all three operations.
type ValidationResults struct {
	InfoMessages    []ValidationMessage `json:"infoMessages,omitempty"`
	WarningMessages []ValidationMessage `json:"warningMessages,omitempty"`
	ErrorMessages   []ValidationMessage `json:"errorMessages,omitempty"`
	Status          string              `json:"status"`
}

// ValidationMessage is one entry in a ValidationResults list.
type ValidationMessage struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// CheckCompliance sends a signed invoice to ZATCA's compliance endpoint,
// the pre-production validation step every new CSID must pass before it may
// report or clear live invoices.
func (c *Client) CheckCompliance(ctx context.Context, req ComplianceRequest) (ComplianceResponse, error) {
	var resp ComplianceResponse
	err := c.postJSON(ctx, c.complianceURL, req, &resp)
	return resp, err
}

// ReportSimplified submits a signed simplified (B2C) invoice for reporting.
func (c *Client) ReportSimplified(ctx context.Context, req ComplianceRequest) (ReportResponse, error) {
	var resp ReportResponse
	err := c.postJSON(ctx, c.reportingURL, req, &resp)
	return resp, err
}

// ClearStandard submits a signed standard (B2B) invoice for clearance and
// returns ZATCA's cleared copy.
func (c *Client) ClearStandard(ctx context.Context, req ComplianceRequest) (ClearanceResponse, error) {
	var resp ClearanceResponse
	err := c.postJSON(ctx, c.clearanceURL, req, &resp)
	return resp, err
}

func (c *Client) postJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("zatca/transport: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("zatca/transport: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept-Version", "V2")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if c.binarySecurityToken != "" {
		httpReq.SetBasicAuth(c.binarySecurityToken, c.secret)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("zatca/transport: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("zatca/transport: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("zatca/transport: ZATCA returned %s: %s", resp.Status, string(respBody))
	}

	if len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("zatca/transport: unmarshal response: %w", err)
	}
	return nil
}
