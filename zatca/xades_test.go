package zatca

// SPDX-License-Identifier: MIT

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time { return f.t }

func TestSignatureBuilderRejectsNilSetters(t *testing.T) {
	b := NewSignatureBuilder(nil)

	require.Error(t, b.SetCertificate(nil))
	require.Error(t, b.SetInvoiceDigest(""))
	require.Error(t, b.SetSignatureValue(""))
}

func TestSignatureBuilderBuildFailsBeforeAllSettersCalled(t *testing.T) {
	b := NewSignatureBuilder(nil)
	_, err := b.Build(nil, nil)
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	require.Equal(t, ErrBuilderState, zerr.Kind)
}

func TestSignatureBuilderBuildsSignedPropertiesWithFixedClock(t *testing.T) {
	_, cert := generateTestCert(t)
	clock := fixedClock{t: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)}

	b := NewSignatureBuilder(clock)
	require.NoError(t, b.SetCertificate(cert))
	require.NoError(t, b.SetInvoiceDigest("deadbeef=="))

	sp, err := b.buildSignedProperties()
	require.NoError(t, err)
	require.NotNil(t, sp)

	signingTime := sp.FindElement(".//SigningTime")
	require.NotNil(t, signingTime)
	require.Equal(t, "2024-06-01T10:30:00Z", signingTime.Text())
}

func TestSignatureBuilderBuildProducesFullExtension(t *testing.T) {
	_, cert := generateTestCert(t)
	clock := fixedClock{t: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)}

	b := NewSignatureBuilder(clock)
	require.NoError(t, b.SetCertificate(cert))
	require.NoError(t, b.SetInvoiceDigest("aGFzaA=="))
	require.NoError(t, b.SetSignatureValue("c2ln"))

	sp, err := b.buildSignedProperties()
	require.NoError(t, err)

	si := buildSignedInfo("aGFzaA==", "c3BoYXNo")

	ext, err := b.Build(si, sp)
	require.NoError(t, err)
	require.NotNil(t, ext)

	require.NotNil(t, ext.FindElement(".//Signature"))
	require.NotNil(t, ext.FindElement(".//SignatureValue"))
	require.Equal(t, "c2ln", ext.FindElement(".//SignatureValue").Text())
	qualifyingProps := ext.FindElement(".//QualifyingProperties")
	require.NotNil(t, qualifyingProps)
	require.Equal(t, signatureElementID, qualifyingProps.SelectAttrValue("Target", ""))
}

func TestBuildSignedInfoHasTwoReferences(t *testing.T) {
	si := buildSignedInfo("invoiceDigest==", "spDigest==")
	refs := si.FindElements(".//Reference")
	require.Len(t, refs, 2)
	require.Equal(t, signedInfoReferenceURI, refs[0].SelectAttrValue("URI", ""))
	require.Equal(t, "#"+xadesSignedPropertiesID, refs[1].SelectAttrValue("URI", ""))
}
