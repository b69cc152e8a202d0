package zatca

// SPDX-License-Identifier: MIT

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"io"
)

func randReader() io.Reader {
	return rand.Reader
}

func parseCertPEM(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errInvoiceParse("no CERTIFICATE PEM block found", nil)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, errInvoiceParse("failed to parse certificate", err)
	}
	return cert, nil
}

func parseECKeyPEM(keyPEM []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, errCryptoSign("no PEM block found for private key", nil)
	}

	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errCryptoSign("failed to parse EC private key", err)
	}
	ecKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errCryptoSign("private key is not ECDSA", nil)
	}
	return ecKey, nil
}
