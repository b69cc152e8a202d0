package zatca

// SPDX-License-Identifier: MIT
// The ZKI guard-code idiom in l-d-t-fiskalhrgo's zki.go (concatenate fixed
// fields, hash/sign, encode) and the CUFE idiom shared by jhoicas's
// pkg/dian/cufe.go and arturoeanton-go-xml's xml/dian_utils.go motivate
// treating the QR block the same way: a small set of ordered byte-producing
// tags. ZATCA's exact tag/length/value framing (1-byte tag, 1-byte length)
// has no reusable library in the retrieved pack (backkem/matter's TLV uses a
// different, nested framing for the Matter protocol), so the encode/decode
// walk below is written directly from the wire format.

import (
	"encoding/base64"
)

// TLVTag identifies one of the nine ZATCA QR tags.
type TLVTag byte

const (
	TagSellerName    TLVTag = 1
	TagVATNumber     TLVTag = 2
	TagTimestamp     TLVTag = 3
	TagInvoiceTotal  TLVTag = 4
	TagVATTotal      TLVTag = 5
	TagInvoiceHash   TLVTag = 6
	TagSignature     TLVTag = 7
	TagPublicKey     TLVTag = 8
	TagCertSignature TLVTag = 9
)

// TLVField is one decoded tag/value pair.
type TLVField struct {
	Tag   TLVTag
	Value []byte
}

// EncodeTLV concatenates fields as tag||length||value and returns the raw
// byte stream (not yet base64-encoded). Each value must be <= 255 bytes;
// that always holds for the nine ZATCA tags on realistic invoice data.
func EncodeTLV(fields []TLVField) ([]byte, error) {
	out := make([]byte, 0, 64)
	for _, f := range fields {
		if len(f.Value) > 255 {
			return nil, errEncoding("TLV value exceeds 255 bytes", nil)
		}
		out = append(out, byte(f.Tag), byte(len(f.Value)))
		out = append(out, f.Value...)
	}
	return out, nil
}

// EncodeTLVBase64 is EncodeTLV followed by base64 encoding, the form that is
// embedded in the invoice's QR AdditionalDocumentReference.
func EncodeTLVBase64(fields []TLVField) (string, error) {
	raw, err := EncodeTLV(fields)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeTLV walks a raw TLV byte stream (after base64 decoding) back into an
// ordered slice of fields, for inspecting or self-verifying a QR payload
// (S6-style).
func DecodeTLV(raw []byte) ([]TLVField, error) {
	var fields []TLVField
	for i := 0; i < len(raw); {
		if i+2 > len(raw) {
			return nil, errEncoding("truncated TLV tag/length header", nil)
		}
		tag := TLVTag(raw[i])
		length := int(raw[i+1])
		i += 2
		if i+length > len(raw) {
			return nil, errEncoding("truncated TLV value", nil)
		}
		value := make([]byte, length)
		copy(value, raw[i:i+length])
		fields = append(fields, TLVField{Tag: tag, Value: value})
		i += length
	}
	return fields, nil
}

// DecodeTLVBase64 base64-decodes then decodes TLV fields.
func DecodeTLVBase64(b64 string) ([]TLVField, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, errEncoding("invalid base64 QR payload", err)
	}
	return DecodeTLV(raw)
}

// isSimplifiedInvoiceType implements the §4.1 tie-break: a 7-character code
// starting with "02" is simplified, "01" is standard, anything else is
// treated as standard.
func isSimplifiedInvoiceType(typeCode string) bool {
	if len(typeCode) < 2 {
		return false
	}
	return typeCode[:2] == "02"
}
