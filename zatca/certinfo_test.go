package zatca

// SPDX-License-Identifier: MIT
// Generates a self-signed ECDSA-P256 certificate at test time rather than
// relying on embedded fixture files, since the pack's demo/production
// certificate bundles were not available to retrieve.

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func generateTestCert(t *testing.T) (*ecdsa.PrivateKey, *x509.Certificate) {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(123456789),
		Subject: pkix.Name{
			CommonName:   "TST-886431145-300000000000003",
			Organization: []string{"Acme Trading Co"},
			Country:      []string{"SA"},
		},
		Issuer: pkix.Name{
			CommonName:   "eInvoicing",
			Organization: []string{"Zakat, Tax and Customs Authority"},
			Country:      []string{"SA"},
		},
		NotBefore:             time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:              time.Date(2034, 1, 1, 0, 0, 0, 0, time.UTC),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		SignatureAlgorithm:    x509.ECDSAWithSHA256,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return priv, cert
}

func TestCertInfoRawBase64IsStableAndDecodable(t *testing.T) {
	_, cert := generateTestCert(t)
	info := NewCertInfo(cert)

	first := info.RawBase64()
	second := info.RawBase64()
	require.Equal(t, first, second)
	require.NotEmpty(t, first)

	decoded, err := base64.StdEncoding.DecodeString(first)
	require.NoError(t, err)
	require.Equal(t, cert.Raw, decoded)
}

func TestCertInfoCertHashB64OfHexIsTripleEncoded(t *testing.T) {
	_, cert := generateTestCert(t)
	info := NewCertInfo(cert)

	digest := info.CertHashB64OfHex()
	require.NotEmpty(t, digest)
	// base64 of a 64-character hex string should be longer than a base64 of
	// the raw 32-byte digest.
	require.Greater(t, len(digest), 44)
}

func TestCertInfoSubjectPublicKeyInfo(t *testing.T) {
	_, cert := generateTestCert(t)
	info := NewCertInfo(cert)

	spki, err := info.SubjectPublicKeyInfo()
	require.NoError(t, err)
	require.NotEmpty(t, spki)
}

func TestCertInfoCertSignatureBytes(t *testing.T) {
	_, cert := generateTestCert(t)
	info := NewCertInfo(cert)

	sig, err := info.CertSignatureBytes()
	require.NoError(t, err)
	require.NotEmpty(t, sig)
	require.Equal(t, cert.Signature, sig)
}

func TestCertInfoFormattedIssuerIsReversed(t *testing.T) {
	_, cert := generateTestCert(t)
	info := NewCertInfo(cert)

	// The certificate is self-signed, so x509.CreateCertificate takes its
	// issuer from the parent's (here the template's own) Subject, whose DER
	// order is C, O, CN; the template's Issuer field is not used.
	formatted := info.FormattedIssuer()
	require.Equal(t, "CN=TST-886431145-300000000000003, O=Acme Trading Co, C=SA", formatted)
}

func TestCertInfoSerialNumberDecimal(t *testing.T) {
	_, cert := generateTestCert(t)
	info := NewCertInfo(cert)

	require.Equal(t, "123456789", info.SerialNumberDecimal())
}

func TestSignSHA256ProducesVerifiableSignature(t *testing.T) {
	priv, _ := generateTestCert(t)
	data := []byte("hello zatca")

	sig, err := SignSHA256(priv, data)
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	digest := sha256.Sum256(data)
	require.True(t, ecdsa.VerifyASN1(&priv.PublicKey, digest[:], sig))
}
