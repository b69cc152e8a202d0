package zatca

// SPDX-License-Identifier: MIT

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const unsignedInvoiceXML = `<?xml version="1.0" encoding="UTF-8"?>
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2" xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2" xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
	<cbc:ProfileID>reporting:1.0</cbc:ProfileID>
	<cbc:ID>SME00021</cbc:ID>
	<cbc:UUID>3cf5ee18-ee25-44ea-a444-2dedb2372112</cbc:UUID>
	<cbc:IssueDate>2024-06-01</cbc:IssueDate>
	<cbc:IssueTime>10:30:00</cbc:IssueTime>
	<cbc:InvoiceTypeCode name="0200000">388</cbc:InvoiceTypeCode>
	<cac:AccountingSupplierParty>
		<cac:Party>
			<cac:PartyLegalEntity>
				<cbc:RegistrationName>Acme Trading Co</cbc:RegistrationName>
			</cac:PartyLegalEntity>
			<cac:PartyTaxScheme>
				<cbc:CompanyID>300000000000003</cbc:CompanyID>
			</cac:PartyTaxScheme>
		</cac:Party>
	</cac:AccountingSupplierParty>
	<cac:TaxTotal>
		<cbc:TaxAmount>15.00</cbc:TaxAmount>
	</cac:TaxTotal>
	<cac:LegalMonetaryTotal>
		<cbc:TaxInclusiveAmount>115.00</cbc:TaxInclusiveAmount>
	</cac:LegalMonetaryTotal>
</Invoice>
`

func TestSignProducesAllResultFields(t *testing.T) {
	priv, cert := generateTestCert(t)
	clock := fixedClock{t: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)}

	result, err := SignWithClock(context.Background(), []byte(unsignedInvoiceXML), cert, priv, clock)
	require.NoError(t, err)

	require.Equal(t, "3cf5ee18-ee25-44ea-a444-2dedb2372112", result.UUID)
	require.NotEmpty(t, result.HashB64)
	require.NotEmpty(t, result.SignatureB64)
	require.NotEmpty(t, result.QRB64)
	require.Contains(t, string(result.SignedXML), "UBLExtension")
	require.Contains(t, string(result.SignedXML), "AdditionalDocumentReference")
	require.Contains(t, string(result.SignedXML), `xmlns:ext=`)
}

func TestSignIsDeterministicUnderFixedClock(t *testing.T) {
	priv, cert := generateTestCert(t)
	clock := fixedClock{t: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)}

	first, err := SignWithClock(context.Background(), []byte(unsignedInvoiceXML), cert, priv, clock)
	require.NoError(t, err)
	second, err := SignWithClock(context.Background(), []byte(unsignedInvoiceXML), cert, priv, clock)
	require.NoError(t, err)

	require.Equal(t, first.HashB64, second.HashB64)
	require.Equal(t, first.QRB64, second.QRB64)
}

func TestSignRejectsNilCredentials(t *testing.T) {
	_, err := Sign(context.Background(), []byte(unsignedInvoiceXML), nil, nil)
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	require.Equal(t, ErrNullArgument, zerr.Kind)
}

func TestSignRejectsMalformedXML(t *testing.T) {
	priv, cert := generateTestCert(t)
	_, err := Sign(context.Background(), []byte("<not-valid"), cert, priv)
	require.Error(t, err)
}

func TestComputeHashMatchesSignsHash(t *testing.T) {
	priv, cert := generateTestCert(t)
	clock := fixedClock{t: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)}

	result, err := SignWithClock(context.Background(), []byte(unsignedInvoiceXML), cert, priv, clock)
	require.NoError(t, err)

	hash, err := ComputeHash([]byte(unsignedInvoiceXML))
	require.NoError(t, err)
	require.Equal(t, result.HashB64, hash)
}

func TestBuildQRDecodesToExpectedFields(t *testing.T) {
	priv, cert := generateTestCert(t)
	clock := fixedClock{t: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)}

	result, err := SignWithClock(context.Background(), []byte(unsignedInvoiceXML), cert, priv, clock)
	require.NoError(t, err)

	fields, err := DecodeTLVBase64(result.QRB64)
	require.NoError(t, err)
	require.True(t, len(fields) >= 8)
	require.Equal(t, TagSellerName, fields[0].Tag)
	require.Equal(t, "Acme Trading Co", string(fields[0].Value))
	require.Equal(t, TagVATNumber, fields[1].Tag)
	require.Equal(t, "300000000000003", string(fields[1].Value))
}

func TestStripBlankLinesRemovesWhitespaceOnlyLines(t *testing.T) {
	out := stripBlankLines([]byte("a\n\nb\n   \nc"))
	require.False(t, strings.Contains(string(out), "\n\n"))
}
