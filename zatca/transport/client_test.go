package transport

// SPDX-License-Identifier: MIT
// Grounded on l-d-t-fiskalhrgo's ciscomm.go GetResponse test shape (spin up
// an httptest.Server standing in for CIS); here standing in for ZATCA.

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckComplianceSendsRequestAndParsesResponse(t *testing.T) {
	var gotBody ComplianceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ComplianceResponse{
			ValidationResults: ValidationResults{Status: "PASS"},
		})
	}))
	defer server.Close()

	client := NewClient(Config{ComplianceURL: server.URL})
	resp, err := client.CheckCompliance(context.Background(), ComplianceRequest{
		InvoiceHash: "hash==",
		UUID:        "uuid-1",
		Invoice:     "<Invoice/>",
	})
	require.NoError(t, err)
	require.Equal(t, "PASS", resp.ValidationResults.Status)
	require.Equal(t, "hash==", gotBody.InvoiceHash)
}

func TestClientReturnsErrorOnNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad invoice"}`))
	}))
	defer server.Close()

	client := NewClient(Config{ComplianceURL: server.URL})
	_, err := client.CheckCompliance(context.Background(), ComplianceRequest{})
	require.Error(t, err)
}

func TestClientSetsBasicAuthAfterWithCredentials(t *testing.T) {
	var gotUser, gotPass string
	var ok bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, ok = r.BasicAuth()
		_ = json.NewEncoder(w).Encode(ReportResponse{ReportingStatus: "REPORTED"})
	}))
	defer server.Close()

	client := NewClient(Config{ReportingURL: server.URL}).WithCredentials("token", "secret")
	_, err := client.ReportSimplified(context.Background(), ComplianceRequest{})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "token", gotUser)
	require.Equal(t, "secret", gotPass)
}
