package zatca

// SPDX-License-Identifier: MIT
// Adapted from l-d-t-fiskalhrgo's cert.go certManager: P12 loading and
// display-helper shape kept, RSA replaced with ECDSA-P256 per spec's
// credential model, and extended with the exact projections spec §4.3
// names. formatted_issuer's reversed-RDN requirement has no precedent in
// the pack; built directly against crypto/x509/pkix.Name.Names, which is
// the only stdlib view that preserves DER attribute order (pkix.Name.String
// already reverses it differently and cannot be relied on for ZATCA's
// documented order, so that path is not reused here).

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// CertInfo exposes the pure projections of an X.509 certificate that C3
// names. All projections are computed from the wrapped certificate; the
// derived encodings (RawBase64, CertHashB64OfHex, SubjectPublicKeyInfo,
// FormattedIssuer) are memoized on first access.
type CertInfo struct {
	cert *x509.Certificate

	rawBase64        string
	certHashB64OfHex string
	spki             []byte
	formattedIssuer  string
}

// NewCertInfo wraps cert. cert's public key must be ECDSA; callers load it
// via LoadFromP12 or LoadFromPEM, both of which enforce that.
func NewCertInfo(cert *x509.Certificate) *CertInfo {
	return &CertInfo{cert: cert}
}

// Certificate returns the wrapped certificate.
func (c *CertInfo) Certificate() *x509.Certificate { return c.cert }

// RawDER returns the DER bytes of the certificate.
func (c *CertInfo) RawDER() []byte { return c.cert.Raw }

// RawBase64 is base64 of RawDER, single line, no PEM wrappers.
func (c *CertInfo) RawBase64() string {
	if c.rawBase64 == "" {
		c.rawBase64 = base64.StdEncoding.EncodeToString(c.cert.Raw)
	}
	return c.rawBase64
}

// CertHashB64OfHex computes SHA-256 of RawBase64 (the ASCII bytes of the
// base64 string), hex-encodes the digest lowercase, then base64-encodes
// that hex string. This triple encoding is the value ZATCA expects at
// xades:CertDigest/ds:DigestValue (spec §4.3, §4.4).
func (c *CertInfo) CertHashB64OfHex() string {
	if c.certHashB64OfHex == "" {
		sum := sha256.Sum256([]byte(c.RawBase64()))
		hexDigest := hex.EncodeToString(sum[:])
		c.certHashB64OfHex = base64.StdEncoding.EncodeToString([]byte(hexDigest))
	}
	return c.certHashB64OfHex
}

// SubjectPublicKeyInfo returns the DER of the certificate's SPKI.
func (c *CertInfo) SubjectPublicKeyInfo() ([]byte, error) {
	if len(c.spki) == 0 {
		der, err := x509.MarshalPKIXPublicKey(c.cert.PublicKey)
		if err != nil {
			return nil, errCertificateDataMissing("subject_public_key_info")
		}
		c.spki = der
	}
	return c.spki, nil
}

// CertSignatureBytes returns the raw ASN.1 signatureValue BIT STRING
// content of the certificate — not a hash of anything.
func (c *CertInfo) CertSignatureBytes() ([]byte, error) {
	if len(c.cert.Signature) == 0 {
		return nil, errCertificateDataMissing("cert_signature_bytes")
	}
	return c.cert.Signature, nil
}

// FormattedIssuer joins the issuer's RDN components with ", " in reversed
// order relative to the DER encoding (e.g. DER order C=SA, O=..., CN=...
// becomes CN=..., O=..., C=SA).
func (c *CertInfo) FormattedIssuer() string {
	if c.formattedIssuer == "" {
		names := c.cert.Issuer.Names
		parts := make([]string, 0, len(names))
		for i := len(names) - 1; i >= 0; i-- {
			parts = append(parts, fmt.Sprintf("%s=%s", rdnAttrLabel(names[i].Type.String()), names[i].Value))
		}
		c.formattedIssuer = strings.Join(parts, ", ")
	}
	return c.formattedIssuer
}

// rdnAttrLabel maps common OID.String() forms to their short RDN labels.
// pkix does not expose this mapping directly for arbitrary Name.Names.
func rdnAttrLabel(oid string) string {
	switch oid {
	case "2.5.4.3":
		return "CN"
	case "2.5.4.6":
		return "C"
	case "2.5.4.7":
		return "L"
	case "2.5.4.8":
		return "ST"
	case "2.5.4.10":
		return "O"
	case "2.5.4.11":
		return "OU"
	default:
		return oid
	}
}

// SerialNumberDecimal returns the base-10 serial number.
func (c *CertInfo) SerialNumberDecimal() string {
	if c.cert.SerialNumber == nil {
		return new(big.Int).String()
	}
	return c.cert.SerialNumber.String()
}

// SignSHA256 signs data with priv using ECDSA-P256/SHA-256 and returns the
// ASN.1 DER SEQUENCE{r,s} bytes.
func SignSHA256(priv *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	sig, err := ecdsa.SignASN1(randReader(), priv, digest[:])
	if err != nil {
		return nil, errCryptoSign("ECDSA-P256-SHA256 signing failed", err)
	}
	return sig, nil
}

// LoadFromP12 loads an ECDSA private key and certificate from a PKCS#12
// bundle, grounded on l-d-t-fiskalhrgo's cert.go decodeP12Cert, reworked to
// require an ECDSA key instead of RSA.
func LoadFromP12(path, password string) (*ecdsa.PrivateKey, *x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errInvoiceParse("failed to read PKCS#12 bundle", err)
	}

	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return nil, nil, errCryptoSign("failed to decode PKCS#12 bundle", err)
	}

	var priv *ecdsa.PrivateKey
	var cert *x509.Certificate
	for _, block := range blocks {
		switch block.Type {
		case "PRIVATE KEY":
			// pkcs12.ToPEM re-encodes EC keys as SEC 1 under this block type.
			if ecKey, eerr := x509.ParseECPrivateKey(block.Bytes); eerr == nil {
				priv = ecKey
				continue
			}
			key, perr := x509.ParsePKCS8PrivateKey(block.Bytes)
			if perr != nil {
				return nil, nil, errCryptoSign("failed to parse private key", perr)
			}
			ecKey, ok := key.(*ecdsa.PrivateKey)
			if !ok {
				return nil, nil, errCryptoSign("private key is not ECDSA", nil)
			}
			priv = ecKey
		case "CERTIFICATE":
			parsed, cerr := x509.ParseCertificate(block.Bytes)
			if cerr != nil {
				return nil, nil, errInvoiceParse("failed to parse certificate", cerr)
			}
			if !parsed.IsCA {
				cert = parsed
			}
		}
	}

	if priv == nil {
		return nil, nil, errCertificateDataMissing("private key not found in bundle")
	}
	if cert == nil {
		return nil, nil, errCertificateDataMissing("leaf certificate not found in bundle")
	}
	return priv, cert, nil
}

// LoadFromPEM loads an ECDSA private key and certificate from PEM bytes.
func LoadFromPEM(certPEM, keyPEM []byte) (*ecdsa.PrivateKey, *x509.Certificate, error) {
	cert, err := parseCertPEM(certPEM)
	if err != nil {
		return nil, nil, err
	}
	priv, err := parseECKeyPEM(keyPEM)
	if err != nil {
		return nil, nil, err
	}
	return priv, cert, nil
}
