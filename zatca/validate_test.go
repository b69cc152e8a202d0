package zatca

// SPDX-License-Identifier: MIT

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateVATNumber(t *testing.T) {
	require.True(t, ValidateVATNumber("300000000000003"))
	require.False(t, ValidateVATNumber("300000000000000"))
	require.False(t, ValidateVATNumber("12345"))
}

func TestValidateInvoiceTypeCode(t *testing.T) {
	require.True(t, ValidateInvoiceTypeCode("0100000"))
	require.True(t, ValidateInvoiceTypeCode("0200000"))
	require.False(t, ValidateInvoiceTypeCode("0300000"))
	require.False(t, ValidateInvoiceTypeCode("01000"))
}

func TestValidateUUID(t *testing.T) {
	require.True(t, ValidateUUID("3cf5ee18-ee25-44ea-a444-2dedb2372112"))
	require.False(t, ValidateUUID("not-a-uuid"))
}
