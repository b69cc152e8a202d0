package zatca

// SPDX-License-Identifier: MIT
// Spec §3 treats the invoice as "opaque to the core... bytes plus a
// DOM-like view", so there is no typed invoice struct analogous to
// l-d-t-fiskalhrgo's RacunType; this file is the DOM-accessor layer C1/C5
// need, in the same spirit as that struct but reading exactly the UBL paths
// named in spec §4.1.

import (
	"strings"

	"github.com/beevik/etree"
)

func firstText(root *etree.Element, path string) string {
	el := root.FindElement(path)
	if el == nil {
		return ""
	}
	return el.Text()
}

// sellerName reads tag 1's source.
func sellerName(root *etree.Element) string {
	return firstText(root, ".//AccountingSupplierParty/Party/PartyLegalEntity/RegistrationName")
}

// sellerVATNumber reads tag 2's source.
func sellerVATNumber(root *etree.Element) string {
	return firstText(root, ".//AccountingSupplierParty/Party/PartyTaxScheme/CompanyID")
}

// invoiceTimestamp reads tag 3's source, appending "Z" unless IssueTime
// already ends in "Z" (B3).
func invoiceTimestamp(root *etree.Element) string {
	date := firstText(root, "./IssueDate")
	t := firstText(root, "./IssueTime")
	if date == "" && t == "" {
		return ""
	}
	if t != "" && !strings.HasSuffix(t, "Z") {
		t += "Z"
	}
	return date + "T" + t
}

// invoiceTotalInclVAT reads tag 4's source.
func invoiceTotalInclVAT(root *etree.Element) string {
	return firstText(root, ".//LegalMonetaryTotal/TaxInclusiveAmount")
}

// vatTotal reads tag 5's source.
func vatTotal(root *etree.Element) string {
	return firstText(root, ".//TaxTotal/TaxAmount")
}

// invoiceTypeCodeName reads the @name attribute used to classify
// standard vs. simplified invoices (§4.1).
func invoiceTypeCodeName(root *etree.Element) string {
	el := root.FindElement("./InvoiceTypeCode")
	if el == nil {
		return ""
	}
	return el.SelectAttrValue("name", "")
}

// invoiceUUID reads cbc:UUID, or "" if absent.
func invoiceUUID(root *etree.Element) string {
	return firstText(root, "./UUID")
}
