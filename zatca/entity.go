package zatca

// SPDX-License-Identifier: MIT
// Adapted from l-d-t-fiskalhrgo's fiskalhr.go FiskalEntity/NewFiskalEntity:
// same validate-then-construct shape and demo/production URL switch, with
// OIB/locationID/sustPDV/centralizedInvoiceNumber dropped (no ZATCA
// equivalent) and the CIS SOAP calls replaced by transport.Client.

import (
	"crypto/ecdsa"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/mabumusa1/zatca-sub001/zatca/transport"
)

const (
	complianceURLDemo       = "https://gw-fatoora.zatca.gov.sa/e-invoicing/developer-portal/compliance"
	complianceURLProduction = "https://gw-fatoora.zatca.gov.sa/e-invoicing/core/compliance"
	reportingURLDemo        = "https://gw-fatoora.zatca.gov.sa/e-invoicing/developer-portal/invoices/reporting/single"
	reportingURLProduction  = "https://gw-fatoora.zatca.gov.sa/e-invoicing/core/invoices/reporting/single"
	clearanceURLDemo        = "https://gw-fatoora.zatca.gov.sa/e-invoicing/developer-portal/invoices/clearance/single"
	clearanceURLProduction  = "https://gw-fatoora.zatca.gov.sa/e-invoicing/core/invoices/clearance/single"
)

// SigningEntity bundles the credential and identity a seller signs invoices
// with, plus the transport client wired to the right ZATCA environment.
type SigningEntity struct {
	vatNumber     string
	sellerName    string
	demoMode      bool
	priv          *ecdsa.PrivateKey
	cert          *x509.Certificate
	complianceURL string
	reportingURL  string
	clearanceURL  string
	transport     *transport.Client
}

// NewSigningEntity validates vatNumber and the loaded credential, then
// returns an entity wired to either the ZATCA sandbox or production
// environment. A zero httpTimeout leaves transport.NewClient's own default
// in place.
func NewSigningEntity(vatNumber, sellerName string, demoMode bool, certPath, certPassword string, httpTimeout time.Duration) (*SigningEntity, error) {
	if !ValidateVATNumber(vatNumber) {
		return nil, errInvoiceParse("invalid VAT registration number", nil)
	}

	priv, cert, err := LoadFromP12(certPath, certPassword)
	if err != nil {
		return nil, fmt.Errorf("zatca: load signing credential: %w", err)
	}

	entity := &SigningEntity{
		vatNumber:  vatNumber,
		sellerName: sellerName,
		demoMode:   demoMode,
		priv:       priv,
		cert:       cert,
	}

	if demoMode {
		entity.complianceURL = complianceURLDemo
		entity.reportingURL = reportingURLDemo
		entity.clearanceURL = clearanceURLDemo
	} else {
		entity.complianceURL = complianceURLProduction
		entity.reportingURL = reportingURLProduction
		entity.clearanceURL = clearanceURLProduction
	}

	entity.transport = transport.NewClient(transport.Config{
		ComplianceURL: entity.complianceURL,
		ReportingURL:  entity.reportingURL,
		ClearanceURL:  entity.clearanceURL,
		Timeout:       httpTimeout,
	})

	return entity, nil
}

// VATNumber returns the seller's VAT registration number.
func (e *SigningEntity) VATNumber() string { return e.vatNumber }

// SellerName returns the seller's registered legal name.
func (e *SigningEntity) SellerName() string { return e.sellerName }

// DemoMode indicates whether the entity targets the ZATCA sandbox.
func (e *SigningEntity) DemoMode() bool { return e.demoMode }

// Certificate returns the entity's signing certificate.
func (e *SigningEntity) Certificate() *x509.Certificate { return e.cert }

// CertInfo wraps the entity's certificate for C3 projections.
func (e *SigningEntity) CertInfo() *CertInfo { return NewCertInfo(e.cert) }

// Transport returns the client wired to this entity's ZATCA environment.
func (e *SigningEntity) Transport() *transport.Client { return e.transport }

// PrivateKey returns the entity's signing key.
func (e *SigningEntity) PrivateKey() *ecdsa.PrivateKey { return e.priv }
