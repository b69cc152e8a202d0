package zatca

// SPDX-License-Identifier: MIT
// Grounded on l-d-t-fiskalhrgo's signandverify.go signXML (parse →
// canonicalize → digest → sign → assemble → reinsert), with crypto/ecdsa
// replacing crypto/rsa and the reinsertion step rewritten per spec §4.5/§9:
// the teacher reinserts via doc.WriteToBytes() (a full DOM re-serialize),
// which spec's design notes call out as exactly the whitespace-reflowing
// hazard to avoid. This orchestrator instead splices the new fragments
// directly into the original byte slice at the two textual anchor points.

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// SignedResult is the tuple returned by Sign.
type SignedResult struct {
	SignedXML    []byte
	HashB64      string
	QRB64        string
	SignatureB64 string
	UUID         string
}

// Sign implements C5: the full signing orchestrator. ctx is checked once,
// before any work starts; parsing, hashing and signing are not interrupted
// by a later cancellation.
func Sign(ctx context.Context, unsignedXML []byte, cert *x509.Certificate, priv *ecdsa.PrivateKey) (SignedResult, error) {
	return SignWithClock(ctx, unsignedXML, cert, priv, systemClock{})
}

// SignWithClock is Sign with an injectable Clock, used by tests to pin
// SigningTime and by callers who need deterministic output (P2).
func SignWithClock(ctx context.Context, unsignedXML []byte, cert *x509.Certificate, priv *ecdsa.PrivateKey, clock Clock) (SignedResult, error) {
	if err := ctx.Err(); err != nil {
		return SignedResult{}, errInvoiceParse("context cancelled before signing started", err)
	}
	if cert == nil {
		return SignedResult{}, errNullArgument("certificate")
	}
	if priv == nil {
		return SignedResult{}, errNullArgument("private_key")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(unsignedXML); err != nil {
		return SignedResult{}, errInvoiceParse("malformed invoice XML", err)
	}
	root := doc.Root()
	if root == nil {
		return SignedResult{}, errInvoiceParse("invoice has no root element", nil)
	}

	uuid := invoiceUUID(root)
	if uuid != "" && !ValidateUUID(uuid) {
		return SignedResult{}, errInvoiceParse("invoice UUID is malformed", nil)
	}
	if typeCode := invoiceTypeCodeName(root); !ValidateInvoiceTypeCode(typeCode) {
		return SignedResult{}, errInvoiceParse("invoice type code name is missing or malformed", nil)
	}

	_, hashB64, err := hashInvoice(root)
	if err != nil {
		return SignedResult{}, err
	}

	builder := NewSignatureBuilder(clock)
	if err := builder.SetCertificate(cert); err != nil {
		return SignedResult{}, err
	}
	if err := builder.SetInvoiceDigest(hashB64); err != nil {
		return SignedResult{}, err
	}

	signedProperties, err := builder.buildSignedProperties()
	if err != nil {
		return SignedResult{}, err
	}

	spCanon, err := canonicalize11(signedProperties)
	if err != nil {
		return SignedResult{}, fmt.Errorf("zatca: canonicalize SignedProperties: %w", err)
	}
	spDigest := sha256.Sum256(spCanon)
	spDigestB64 := base64.StdEncoding.EncodeToString(spDigest[:])

	signedInfo := buildSignedInfo(hashB64, spDigestB64)
	siCanon, err := canonicalize11(signedInfo)
	if err != nil {
		return SignedResult{}, fmt.Errorf("zatca: canonicalize SignedInfo: %w", err)
	}

	sigBytes, err := SignSHA256(priv, siCanon)
	if err != nil {
		return SignedResult{}, err
	}
	sigB64 := base64.StdEncoding.EncodeToString(sigBytes)
	if err := builder.SetSignatureValue(sigB64); err != nil {
		return SignedResult{}, err
	}

	ublExtension, err := builder.Build(signedInfo, signedProperties)
	if err != nil {
		return SignedResult{}, err
	}

	qrB64, err := buildQRFromRoot(root, cert, hashB64, sigB64)
	if err != nil {
		return SignedResult{}, err
	}

	extensionXML, err := fragmentToBytes(ublExtension)
	if err != nil {
		return SignedResult{}, err
	}
	qrRefXML, signatureStubXML := buildQRReferenceXML(qrB64)

	signedXML, err := reinsertFragments(unsignedXML, extensionXML, qrRefXML, signatureStubXML)
	if err != nil {
		return SignedResult{}, err
	}

	return SignedResult{
		SignedXML:    signedXML,
		HashB64:      hashB64,
		QRB64:        qrB64,
		SignatureB64: sigB64,
		UUID:         uuid,
	}, nil
}

func hashInvoice(root *etree.Element) ([]byte, string, error) {
	stripped := stripForHash(root)
	canon, err := canonicalize11(stripped)
	if err != nil {
		return nil, "", fmt.Errorf("zatca: canonicalize invoice: %w", err)
	}
	sum := sha256.Sum256(canon)
	return sum[:], base64.StdEncoding.EncodeToString(sum[:]), nil
}

// ComputeHash implements the compute_hash external operation.
func ComputeHash(unsignedXML []byte) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(unsignedXML); err != nil {
		return "", errInvoiceParse("malformed invoice XML", err)
	}
	root := doc.Root()
	if root == nil {
		return "", errInvoiceParse("invoice has no root element", nil)
	}
	_, hashB64, err := hashInvoice(root)
	return hashB64, err
}

// buildQRFromRoot assembles C1's TLV fields from the invoice DOM plus the
// outputs of hashing and signing.
func buildQRFromRoot(root *etree.Element, cert *x509.Certificate, hashB64, sigB64 string) (string, error) {
	info := NewCertInfo(cert)
	spki, err := info.SubjectPublicKeyInfo()
	if err != nil {
		return "", err
	}

	fields := []TLVField{
		{Tag: TagSellerName, Value: []byte(sellerName(root))},
		{Tag: TagVATNumber, Value: []byte(sellerVATNumber(root))},
		{Tag: TagTimestamp, Value: []byte(invoiceTimestamp(root))},
		{Tag: TagInvoiceTotal, Value: []byte(invoiceTotalInclVAT(root))},
		{Tag: TagVATTotal, Value: []byte(vatTotal(root))},
		{Tag: TagInvoiceHash, Value: []byte(hashB64)},
		{Tag: TagSignature, Value: []byte(sigB64)},
		{Tag: TagPublicKey, Value: spki},
	}

	if isSimplifiedInvoiceType(invoiceTypeCodeName(root)) {
		certSig, err := info.CertSignatureBytes()
		if err != nil {
			return "", err
		}
		fields = append(fields, TLVField{Tag: TagCertSignature, Value: certSig})
	}

	return EncodeTLVBase64(fields)
}

// buildQRReferenceXML renders the QR AdditionalDocumentReference and, if the
// caller needs one, a minimally-shaped cac:Signature stub per spec step 7.
func buildQRReferenceXML(qrB64 string) (qrRefXML []byte, signatureStubXML []byte) {
	qrRef := etree.NewElement("cac:AdditionalDocumentReference")
	qrRef.Space, qrRef.Tag = "cac", "AdditionalDocumentReference"

	id := qrRef.CreateElement("cbc:ID")
	id.Space, id.Tag = "cbc", "ID"
	id.SetText("QR")

	attachment := qrRef.CreateElement("cac:Attachment")
	attachment.Space, attachment.Tag = "cac", "Attachment"

	embedded := attachment.CreateElement("cbc:EmbeddedDocumentBinaryObject")
	embedded.Space, embedded.Tag = "cbc", "EmbeddedDocumentBinaryObject"
	embedded.CreateAttr("mimeCode", "text/plain")
	embedded.SetText(qrB64)

	qrRefBytes, _ := fragmentToBytes(qrRef)

	sigStub := etree.NewElement("cac:Signature")
	sigStub.Space, sigStub.Tag = "cac", "Signature"

	sigID := sigStub.CreateElement("cbc:ID")
	sigID.Space, sigID.Tag = "cbc", "ID"
	sigID.SetText(referencedSignatureID)

	sigMethod := sigStub.CreateElement("cbc:SignatureMethod")
	sigMethod.Space, sigMethod.Tag = "cbc", "SignatureMethod"
	sigMethod.SetText(extensionURI)

	sigStubBytes, _ := fragmentToBytes(sigStub)

	return qrRefBytes, sigStubBytes
}

// reinsertFragments performs spec §4.5 step 7-8: textual splicing at the
// two anchor points, followed by blank-line cleanup. It never re-serializes
// the original document through a DOM, preserving byte-identical whitespace
// everywhere except at the two insertion points.
func reinsertFragments(original, extensionXML, qrRefXML, signatureStubXML []byte) ([]byte, error) {
	working := ensureExtNamespaceDeclared(original)

	profileIdx := bytes.Index(working, []byte("<cbc:ProfileID"))
	if profileIdx < 0 {
		return nil, errInvoiceParse("cbc:ProfileID not found for UBLExtensions insertion", nil)
	}
	extensions := append([]byte("<ext:UBLExtensions>"), extensionXML...)
	extensions = append(extensions, "</ext:UBLExtensions>"...)
	working = spliceBefore(working, profileIdx, extensions)

	sigIdx := bytes.Index(working, []byte("<cac:Signature"))
	if sigIdx >= 0 {
		working = spliceBefore(working, sigIdx, qrRefXML)
	} else {
		supplierIdx := bytes.Index(working, []byte("<cac:AccountingSupplierParty"))
		if supplierIdx < 0 {
			return nil, errInvoiceParse("neither cac:Signature nor cac:AccountingSupplierParty found", nil)
		}
		combined := append(append([]byte{}, qrRefXML...), signatureStubXML...)
		working = spliceBefore(working, supplierIdx, combined)
	}

	return stripBlankLines(working), nil
}

func spliceBefore(doc []byte, idx int, fragment []byte) []byte {
	out := make([]byte, 0, len(doc)+len(fragment))
	out = append(out, doc[:idx]...)
	out = append(out, fragment...)
	out = append(out, doc[idx:]...)
	return out
}

// ensureExtNamespaceDeclared adds xmlns:ext to the root Invoice opening tag
// if it is not already declared anywhere in the document.
func ensureExtNamespaceDeclared(xml []byte) []byte {
	if bytes.Contains(xml, []byte("xmlns:ext=")) {
		return xml
	}
	searchFrom := 0
	if decl := bytes.Index(xml, []byte("?>")); decl >= 0 {
		searchFrom = decl + len("?>")
	}
	rootTagEnd := bytes.IndexByte(xml[searchFrom:], '>')
	if rootTagEnd < 0 {
		return xml
	}
	openTagEnd := searchFrom + rootTagEnd
	decl := []byte(` xmlns:ext="` + nsExt + `"`)
	out := make([]byte, 0, len(xml)+len(decl))
	out = append(out, xml[:openTagEnd]...)
	out = append(out, decl...)
	out = append(out, xml[openTagEnd:]...)
	return out
}

// stripBlankLines removes lines that contain only whitespace, the final
// textual cleanup spec step 8 requires.
func stripBlankLines(xml []byte) []byte {
	lines := strings.Split(string(xml), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return []byte(strings.Join(out, "\n"))
}

// BuildQR implements the build_qr external operation: given an already
// signed (or unsigned) invoice plus the hash/signature values, produce the
// QR base64 payload independently of a full Sign call.
func BuildQR(signedXML []byte, cert *x509.Certificate, hashB64, signatureB64 string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(signedXML); err != nil {
		return "", errInvoiceParse("malformed invoice XML", err)
	}
	root := doc.Root()
	if root == nil {
		return "", errInvoiceParse("invoice has no root element", nil)
	}
	if cert == nil {
		return "", errCertificateDataMissing("certificate")
	}
	return buildQRFromRoot(root, cert, hashB64, signatureB64)
}
