package zatca

// SPDX-License-Identifier: MIT
// Canonicalization is adapted from l-d-t/fiskalhrgo's canonicalization.go,
// which is itself adapted from github.com/russellhaering/goxmldsig. Only the
// non-exclusive Canonical XML 1.1 path is kept: ZATCA requires
// http://www.w3.org/2006/12/xml-c14n11, never the exclusive C14N10 variant,
// so the exclusive canonicalizer and its etreeutils.TransformExcC14n
// dependency were not carried over.

import (
	"bytes"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

const c14n11AlgorithmID = "http://www.w3.org/2006/12/xml-c14n11"

const nsSpace = "xmlns"

// sortedAttrs implements sort.Interface over etree attributes in the order
// C14N requires: namespace declarations first (xmlns before xmlns:*, then
// alphabetically by prefix), then other attributes sorted by namespace
// prefix, then local name. Prefixes are compared as written; they are not
// resolved to namespace URIs, so two prefixed attributes whose prefix order
// differs from their URI order come out in prefix order.
type sortedAttrs []etree.Attr

func (a sortedAttrs) Len() int      { return len(a) }
func (a sortedAttrs) Swap(i, j int) { a[i], a[j] = a[j], a[i] }

func (a sortedAttrs) Less(i, j int) bool {
	ai, aj := a[i], a[j]
	aiNS := ai.Space == nsSpace || (ai.Space == "" && ai.Key == nsSpace)
	ajNS := aj.Space == nsSpace || (aj.Space == "" && aj.Key == nsSpace)
	if aiNS != ajNS {
		return aiNS
	}
	if aiNS && ajNS {
		return attrSortKey(ai) < attrSortKey(aj)
	}
	if ai.Space != aj.Space {
		return ai.Space < aj.Space
	}
	return ai.Key < aj.Key
}

func attrSortKey(a etree.Attr) string {
	if a.Space == "" {
		return ""
	}
	return a.Key
}

// canonicalize11 renders el in non-exclusive Canonical XML 1.1 form, without
// comments, per spec §4.2: sorted attributes, stripped re-declared
// namespaces, preserved element order and text.
func canonicalize11(el *etree.Element) ([]byte, error) {
	prepared := canonicalPrep(el, make(map[string]string))
	return canonicalSerialize(prepared)
}

func canonicalPrep(el *etree.Element, seenSoFar map[string]string) *etree.Element {
	inherited := make(map[string]string, len(seenSoFar))
	for k, v := range seenSoFar {
		inherited[k] = v
	}

	ne := el.Copy()
	sort.Sort(sortedAttrs(ne.Attr))

	n := 0
	for _, attr := range ne.Attr {
		if attr.Space != nsSpace && !(attr.Space == "" && attr.Key == nsSpace) {
			ne.Attr[n] = attr
			n++
			continue
		}
		if attr.Space == nsSpace {
			key := attr.Space + ":" + attr.Key
			if uri, seen := inherited[key]; !seen || attr.Value != uri {
				ne.Attr[n] = attr
				n++
				inherited[key] = attr.Value
			}
		} else {
			if uri, seen := inherited[nsSpace]; (!seen && attr.Value != "") || attr.Value != uri {
				ne.Attr[n] = attr
				n++
				inherited[nsSpace] = attr.Value
			}
		}
	}
	ne.Attr = ne.Attr[:n]

	c := 0
	for c < len(ne.Child) {
		if _, ok := ne.Child[c].(*etree.Comment); ok {
			ne.RemoveChildAt(c)
		} else {
			c++
		}
	}

	for i, token := range ne.Child {
		if childElement, ok := token.(*etree.Element); ok {
			ne.Child[i] = canonicalPrep(childElement, inherited)
		}
	}

	return ne
}

func canonicalSerialize(el *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	doc.WriteSettings = etree.WriteSettings{
		CanonicalAttrVal: true,
		CanonicalEndTags: true,
		CanonicalText:    true,
	}
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// stripForHash removes the three elements spec §4.2 names from a copy of
// doc's root, leaving the rest of the tree untouched. It never errors: a
// missing element is a no-op per spec's edge policy.
func stripForHash(root *etree.Element) *etree.Element {
	working := root.Copy()

	removeAllMatching(working, func(e *etree.Element) bool {
		return localName(e.Tag) == "UBLExtensions"
	})
	removeAllMatching(working, func(e *etree.Element) bool {
		return localName(e.Tag) == "Signature"
	})
	removeAllMatching(working, func(e *etree.Element) bool {
		if localName(e.Tag) != "AdditionalDocumentReference" {
			return false
		}
		id := e.FindElement("./ID")
		if id == nil {
			id = e.FindElement(".//*[local-name()='ID']")
		}
		return id != nil && strings.TrimSpace(id.Text()) == "QR"
	})

	return working
}

// removeAllMatching walks the tree once, collecting matches first (mutating
// while iterating children confuses etree's slice-backed child list), then
// detaches every match from its actual parent.
func removeAllMatching(root *etree.Element, match func(*etree.Element) bool) {
	var matches []*etree.Element
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		if match(e) {
			matches = append(matches, e)
			return
		}
		for _, child := range e.ChildElements() {
			walk(child)
		}
	}
	for _, child := range root.ChildElements() {
		walk(child)
	}
	for _, m := range matches {
		if p := m.Parent(); p != nil {
			p.RemoveChild(m)
		}
	}
}

func localName(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

// PrepareForHash implements C2: parse, strip, canonicalize. The returned
// bytes are the hash input only — never the document shipped to ZATCA.
func PrepareForHash(xml []byte) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xml); err != nil {
		return nil, errInvoiceParse("malformed invoice XML", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errInvoiceParse("invoice has no root element", nil)
	}

	stripped := stripForHash(root)
	return canonicalize11(stripped)
}

// CanonicalizeForVerification re-derives the stripped, canonicalized bytes
// from an already-signed invoice, for external re-hashing (§6).
func CanonicalizeForVerification(signedXML []byte) ([]byte, error) {
	return PrepareForHash(signedXML)
}
