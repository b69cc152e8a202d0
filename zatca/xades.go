package zatca

// SPDX-License-Identifier: MIT
// Grounded on l-d-t-fiskalhrgo's signandverify.go createSignedInfoElement/
// createSignatureElement (etree-element-construction style) and jhoicas's
// internal/infrastructure/dian/signature.go (XAdES SignedProperties shape,
// namespace constants). The teacher's orchestrator signs in a single pass;
// spec §4.4 requires a three-phase builder with explicit BuilderState/
// NullArgument errors, which is new code here built in the teacher's
// validate-then-act constructor style (see fiskalhr.go's NewFiskalEntity).

import (
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const (
	nsDS    = "http://www.w3.org/2000/09/xmldsig#"
	nsXAdES = "http://uri.etsi.org/01903/v1.3.2#"
	nsExt   = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	nsSig   = "urn:oasis:names:specification:ubl:schema:xsd:UBLDocumentSignatures-2"
	nsSac   = "urn:oasis:names:specification:ubl:schema:xsd:SignatureAggregateComponents-2"
	nsSbc   = "urn:oasis:names:specification:ubl:schema:xsd:SignatureBasicComponents-2"
	nsCbc   = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	xadesSignedPropertiesID    = "xadesSignedProperties"
	signatureElementID         = "signature"
	extensionURI               = "urn:oasis:names:specification:ubl:dsig:enveloped:xades"
	signatureInformationID     = "urn:oasis:names:specification:ubl:signature:1"
	referencedSignatureID      = "urn:oasis:names:specification:ubl:signature:Invoice"
	signedInfoReferenceURI     = "invoiceSignedData"
	xpathAlgorithm             = "http://www.w3.org/TR/1999/REC-xpath-19991116"
	ecdsaSHA256SignatureMethod = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha256"
	sha256DigestMethod         = "http://www.w3.org/2001/04/xmlenc#sha256"
	xadesSignedPropertiesType  = "http://uri.etsi.org/01903#SignedProperties"
)

// Clock supplies the current time, injected so SigningTime (and therefore
// the whole signed output, per P2/S1/S3) can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock, used outside of tests.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SignatureBuilder assembles the C4 XAdES fragment. It must see
// SetCertificate, SetInvoiceDigest, and SetSignatureValue, in any order,
// before Build is called.
type SignatureBuilder struct {
	clock Clock

	cert          *x509.Certificate
	invoiceDigest string
	signatureB64  string
	signingTime   time.Time
}

// NewSignatureBuilder creates a builder using clock for SigningTime.
func NewSignatureBuilder(clock Clock) *SignatureBuilder {
	if clock == nil {
		clock = systemClock{}
	}
	return &SignatureBuilder{clock: clock}
}

// SetCertificate sets the signing certificate.
func (b *SignatureBuilder) SetCertificate(cert *x509.Certificate) error {
	if cert == nil {
		return errNullArgument("certificate")
	}
	b.cert = cert
	return nil
}

// SetInvoiceDigest sets Reference #1's DigestValue (tag 6's value).
func (b *SignatureBuilder) SetInvoiceDigest(hashB64 string) error {
	if hashB64 == "" {
		return errNullArgument("invoice_digest")
	}
	b.invoiceDigest = hashB64
	return nil
}

// SetSignatureValue sets ds:SignatureValue's text.
func (b *SignatureBuilder) SetSignatureValue(sigB64 string) error {
	if sigB64 == "" {
		return errNullArgument("signature_value")
	}
	b.signatureB64 = sigB64
	return nil
}

// buildSignedProperties constructs xades:SignedProperties. Exposed
// separately from Build because C5 needs to digest this fragment before
// the outer SignedInfo (and therefore the full Signature) can be built.
func (b *SignatureBuilder) buildSignedProperties() (*etree.Element, error) {
	if b.cert == nil {
		return nil, errBuilderState("certificate")
	}
	if b.signingTime.IsZero() {
		b.signingTime = b.clock.Now()
	}

	info := NewCertInfo(b.cert)

	sp := etree.NewElement("xades:SignedProperties")
	sp.Space = "xades"
	sp.Tag = "SignedProperties"
	sp.CreateAttr("Id", xadesSignedPropertiesID)

	ssp := sp.CreateElement("xades:SignedSignatureProperties")
	ssp.Space = "xades"
	ssp.Tag = "SignedSignatureProperties"

	signingTime := ssp.CreateElement("xades:SigningTime")
	signingTime.Space = "xades"
	signingTime.Tag = "SigningTime"
	signingTime.SetText(b.signingTime.Format("2006-01-02T15:04:05Z"))

	signingCert := ssp.CreateElement("xades:SigningCertificate")
	signingCert.Space = "xades"
	signingCert.Tag = "SigningCertificate"

	certEl := signingCert.CreateElement("xades:Cert")
	certEl.Space = "xades"
	certEl.Tag = "Cert"

	certDigest := certEl.CreateElement("xades:CertDigest")
	certDigest.Space = "xades"
	certDigest.Tag = "CertDigest"

	digestMethod := certDigest.CreateElement("ds:DigestMethod")
	digestMethod.Space = "ds"
	digestMethod.Tag = "DigestMethod"
	digestMethod.CreateAttr("Algorithm", sha256DigestMethod)

	digestValue := certDigest.CreateElement("ds:DigestValue")
	digestValue.Space = "ds"
	digestValue.Tag = "DigestValue"
	digestValue.SetText(info.CertHashB64OfHex())

	issuerSerial := certEl.CreateElement("xades:IssuerSerial")
	issuerSerial.Space = "xades"
	issuerSerial.Tag = "IssuerSerial"

	issuerName := issuerSerial.CreateElement("ds:X509IssuerName")
	issuerName.Space = "ds"
	issuerName.Tag = "X509IssuerName"
	issuerName.SetText(info.FormattedIssuer())

	serialNumber := issuerSerial.CreateElement("ds:X509SerialNumber")
	serialNumber.Space = "ds"
	serialNumber.Tag = "X509SerialNumber"
	serialNumber.SetText(info.SerialNumberDecimal())

	return sp, nil
}

// buildSignedInfo constructs ds:SignedInfo given the already-computed
// SignedProperties digest.
func buildSignedInfo(invoiceDigestB64, spDigestB64 string) *etree.Element {
	si := etree.NewElement("ds:SignedInfo")
	si.Space = "ds"
	si.Tag = "SignedInfo"

	cm := si.CreateElement("ds:CanonicalizationMethod")
	cm.Space, cm.Tag = "ds", "CanonicalizationMethod"
	cm.CreateAttr("Algorithm", c14n11AlgorithmID)

	sm := si.CreateElement("ds:SignatureMethod")
	sm.Space, sm.Tag = "ds", "SignatureMethod"
	sm.CreateAttr("Algorithm", ecdsaSHA256SignatureMethod)

	ref1 := si.CreateElement("ds:Reference")
	ref1.Space, ref1.Tag = "ds", "Reference"
	ref1.CreateAttr("URI", signedInfoReferenceURI)

	transforms := ref1.CreateElement("ds:Transforms")
	transforms.Space, transforms.Tag = "ds", "Transforms"

	addXPathTransform(transforms, "not(//ancestor-or-self::ext:UBLExtensions)")
	addXPathTransform(transforms, "not(//ancestor-or-self::cac:Signature)")
	addXPathTransform(transforms, "not(//ancestor-or-self::cac:AdditionalDocumentReference[cbc:ID='QR'])")

	c14nTransform := transforms.CreateElement("ds:Transform")
	c14nTransform.Space, c14nTransform.Tag = "ds", "Transform"
	c14nTransform.CreateAttr("Algorithm", c14n11AlgorithmID)

	digestMethod1 := ref1.CreateElement("ds:DigestMethod")
	digestMethod1.Space, digestMethod1.Tag = "ds", "DigestMethod"
	digestMethod1.CreateAttr("Algorithm", sha256DigestMethod)

	digestValue1 := ref1.CreateElement("ds:DigestValue")
	digestValue1.Space, digestValue1.Tag = "ds", "DigestValue"
	digestValue1.SetText(invoiceDigestB64)

	ref2 := si.CreateElement("ds:Reference")
	ref2.Space, ref2.Tag = "ds", "Reference"
	ref2.CreateAttr("URI", "#"+xadesSignedPropertiesID)
	ref2.CreateAttr("Type", xadesSignedPropertiesType)

	digestMethod2 := ref2.CreateElement("ds:DigestMethod")
	digestMethod2.Space, digestMethod2.Tag = "ds", "DigestMethod"
	digestMethod2.CreateAttr("Algorithm", sha256DigestMethod)

	digestValue2 := ref2.CreateElement("ds:DigestValue")
	digestValue2.Space, digestValue2.Tag = "ds", "DigestValue"
	digestValue2.SetText(spDigestB64)

	return si
}

func addXPathTransform(parent *etree.Element, xpath string) {
	transform := parent.CreateElement("ds:Transform")
	transform.Space, transform.Tag = "ds", "Transform"
	transform.CreateAttr("Algorithm", xpathAlgorithm)
	xp := transform.CreateElement("ds:XPath")
	xp.Space, xp.Tag = "ds", "XPath"
	xp.SetText(xpath)
}

// Build assembles the full ext:UBLExtension fragment (spec §4.4's literal
// shape). Must be called after SetCertificate, SetInvoiceDigest, and
// SetSignatureValue all succeeded, and after signedInfo was built and
// signed (callers pass signedInfo and signedProperties in; the signature
// value comes from SetSignatureValue).
func (b *SignatureBuilder) Build(signedInfo *etree.Element, signedProperties *etree.Element) (*etree.Element, error) {
	if b.cert == nil {
		return nil, errBuilderState("certificate")
	}
	if b.invoiceDigest == "" {
		return nil, errBuilderState("invoice_digest")
	}
	if b.signatureB64 == "" {
		return nil, errBuilderState("signature_value")
	}
	if signedInfo == nil || signedProperties == nil {
		return nil, errBuilderState("signed_info")
	}

	info := NewCertInfo(b.cert)

	ublExtension := etree.NewElement("ext:UBLExtension")
	ublExtension.Space, ublExtension.Tag = "ext", "UBLExtension"

	extURI := ublExtension.CreateElement("ext:ExtensionURI")
	extURI.Space, extURI.Tag = "ext", "ExtensionURI"
	extURI.SetText(extensionURI)

	extContent := ublExtension.CreateElement("ext:ExtensionContent")
	extContent.Space, extContent.Tag = "ext", "ExtensionContent"

	docSigs := extContent.CreateElement("sig:UBLDocumentSignatures")
	docSigs.Space, docSigs.Tag = "sig", "UBLDocumentSignatures"
	docSigs.CreateAttr("xmlns:sig", nsSig)
	docSigs.CreateAttr("xmlns:sac", nsSac)
	docSigs.CreateAttr("xmlns:sbc", nsSbc)

	sigInfo := docSigs.CreateElement("sac:SignatureInformation")
	sigInfo.Space, sigInfo.Tag = "sac", "SignatureInformation"

	id := sigInfo.CreateElement("cbc:ID")
	id.Space, id.Tag = "cbc", "ID"
	id.SetText(signatureInformationID)

	refID := sigInfo.CreateElement("sbc:ReferencedSignatureID")
	refID.Space, refID.Tag = "sbc", "ReferencedSignatureID"
	refID.SetText(referencedSignatureID)

	dsSignature := sigInfo.CreateElement("ds:Signature")
	dsSignature.Space, dsSignature.Tag = "ds", "Signature"
	dsSignature.CreateAttr("Id", signatureElementID)
	dsSignature.CreateAttr("xmlns:ds", nsDS)

	dsSignature.AddChild(signedInfo.Copy())

	sigValue := dsSignature.CreateElement("ds:SignatureValue")
	sigValue.Space, sigValue.Tag = "ds", "SignatureValue"
	sigValue.SetText(b.signatureB64)

	keyInfo := dsSignature.CreateElement("ds:KeyInfo")
	keyInfo.Space, keyInfo.Tag = "ds", "KeyInfo"
	x509Data := keyInfo.CreateElement("ds:X509Data")
	x509Data.Space, x509Data.Tag = "ds", "X509Data"
	x509Cert := x509Data.CreateElement("ds:X509Certificate")
	x509Cert.Space, x509Cert.Tag = "ds", "X509Certificate"
	x509Cert.SetText(info.RawBase64())

	object := dsSignature.CreateElement("ds:Object")
	object.Space, object.Tag = "ds", "Object"

	qualifyingProps := object.CreateElement("xades:QualifyingProperties")
	qualifyingProps.Space, qualifyingProps.Tag = "xades", "QualifyingProperties"
	qualifyingProps.CreateAttr("Target", signatureElementID)
	qualifyingProps.CreateAttr("xmlns:xades", nsXAdES)

	qualifyingProps.AddChild(signedProperties.Copy())

	return ublExtension, nil
}

func fragmentToBytes(el *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	var out strings.Builder
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("zatca: serialize fragment: %w", err)
	}
	return []byte(out.String()), nil
}
