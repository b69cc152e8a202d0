package zatca

// SPDX-License-Identifier: MIT

import "fmt"

// ErrorKind tags the failure taxonomy the signing core surfaces. Callers
// branch on the kind rather than parsing error strings.
type ErrorKind string

const (
	ErrInvoiceParse           ErrorKind = "InvoiceParse"
	ErrEncoding               ErrorKind = "Encoding"
	ErrCryptoSign             ErrorKind = "CryptoSign"
	ErrCertificateDataMissing ErrorKind = "CertificateDataMissing"
	ErrBuilderState           ErrorKind = "BuilderState"
	ErrNullArgument           ErrorKind = "NullArgument"
)

// Error is the tagged variant every core operation returns on failure.
// It wraps an optional underlying error so callers can still use errors.Is
// / errors.As against lower-level causes.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("zatca: %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("zatca: %s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newErr(kind ErrorKind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}

func errInvoiceParse(detail string, cause error) error {
	return newErr(ErrInvoiceParse, detail, cause)
}

func errEncoding(detail string, cause error) error {
	return newErr(ErrEncoding, detail, cause)
}

func errCryptoSign(detail string, cause error) error {
	return newErr(ErrCryptoSign, detail, cause)
}

func errCertificateDataMissing(field string) error {
	return newErr(ErrCertificateDataMissing, field, nil)
}

func errBuilderState(missingField string) error {
	return newErr(ErrBuilderState, missingField, nil)
}

func errNullArgument(name string) error {
	return newErr(ErrNullArgument, name, nil)
}
