package zatca

// SPDX-License-Identifier: MIT

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromPEMRoundTrips(t *testing.T) {
	priv, cert := generateTestCert(t)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})

	keyDER, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	loadedPriv, loadedCert, err := LoadFromPEM(certPEM, keyPEM)
	require.NoError(t, err)
	require.Equal(t, cert.SerialNumber, loadedCert.SerialNumber)
	require.Equal(t, priv.D, loadedPriv.D)
}

func TestLoadFromPEMRejectsMissingCertBlock(t *testing.T) {
	_, _, err := LoadFromPEM([]byte("not pem"), []byte("also not pem"))
	require.Error(t, err)
}

func TestLoadFromPEMRejectsRSAKey(t *testing.T) {
	_, cert := generateTestCert(t)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyDER, err := x509.MarshalPKCS8PrivateKey(rsaKey)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	_, _, err = LoadFromPEM(certPEM, keyPEM)
	require.Error(t, err)
	var zerr *Error
	require.ErrorAs(t, err, &zerr)
	require.Equal(t, ErrCryptoSign, zerr.Kind)
}
