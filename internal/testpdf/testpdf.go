// Package testpdf writes small uncompressed PDFs with a correct xref table for
// tests that exercise the real parsers.
package testpdf

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Page describes one page of a fixture document.
type Page struct {
	Width, Height float64
	// Contents holds one content stream per entry; more than one produces a
	// Contents array.
	Contents []string
	// Fonts maps resource names to font dictionary source, e.g.
	// "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>".
	Fonts map[string]string
	// Forms maps resource names to form XObjects.
	Forms map[string]Form
}

// Form is a form XObject with its own content and optional matrix, fonts
// and nested forms.
type Form struct {
	Content string
	Matrix  string // e.g. "[1 0 0 1 100 0]"; empty for identity
	Fonts   map[string]string
	Forms   map[string]Form
}

// FixedWidthFont returns a simple font dictionary whose glyphs for codes
// first..last all have the given width.
func FixedWidthFont(first, last int, width int) string {
	ws := make([]string, 0, last-first+1)
	for c := first; c <= last; c++ {
		ws = append(ws, fmt.Sprint(width))
	}
	return fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar %d /LastChar %d /Widths [%s] >>",
		first, last, strings.Join(ws, " "))
}

type builder struct {
	buf     bytes.Buffer
	offsets []int
}

func (b *builder) reserve() int {
	b.offsets = append(b.offsets, 0)
	return len(b.offsets)
}

func (b *builder) object(num int, body string) {
	b.offsets[num-1] = b.buf.Len()
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func (b *builder) stream(num int, dict, data string) {
	if dict != "" {
		dict = " " + dict
	}
	b.object(num, fmt.Sprintf("<< /Length %d%s >>\nstream\n%s\nendstream", len(data), dict, data))
}

// Build writes a document with the given pages in order.
func Build(pages ...Page) []byte {
	b := &builder{}
	b.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	catalog := b.reserve()
	tree := b.reserve()

	kids := make([]string, 0, len(pages))
	for _, p := range pages {
		pageNum := b.reserve()
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))

		var contentRefs []string
		for _, c := range p.Contents {
			n := b.reserve()
			b.stream(n, "", c)
			contentRefs = append(contentRefs, fmt.Sprintf("%d 0 R", n))
		}

		res := "<< /Font " + b.fontResources(p.Fonts)
		if xobjs := b.formResources(p.Forms); xobjs != "" {
			res += " /XObject " + xobjs
		}
		res += " >>"

		page := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %s %s] /Resources %s",
			tree, num(p.Width), num(p.Height), res)
		switch len(contentRefs) {
		case 0:
		case 1:
			page += " /Contents " + contentRefs[0]
		default:
			page += " /Contents [" + strings.Join(contentRefs, " ") + "]"
		}
		page += " >>"
		b.object(pageNum, page)
	}

	b.object(tree, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	b.object(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", tree))

	xrefOff := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n0000000000 65535 f \n", len(b.offsets)+1)
	for _, off := range b.offsets {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(b.offsets)+1, catalog, xrefOff)
	return b.buf.Bytes()
}

// formResources writes forms, and any forms they invoke, returning the
// XObject dictionary that names them or "" when there are none.
func (b *builder) formResources(forms map[string]Form) string {
	if len(forms) == 0 {
		return ""
	}
	entries := make([]string, 0, len(forms))
	for _, name := range sortedKeys(forms) {
		f := forms[name]
		n := b.reserve()
		dict := "/Type /XObject /Subtype /Form /BBox [0 0 1000 1000]"
		if f.Matrix != "" {
			dict += " /Matrix " + f.Matrix
		}
		var res []string
		if len(f.Fonts) > 0 {
			res = append(res, "/Font "+b.fontResources(f.Fonts))
		}
		if nested := b.formResources(f.Forms); nested != "" {
			res = append(res, "/XObject "+nested)
		}
		if len(res) > 0 {
			dict += " /Resources << " + strings.Join(res, " ") + " >>"
		}
		b.stream(n, dict, f.Content)
		entries = append(entries, fmt.Sprintf("/%s %d 0 R", name, n))
	}
	return "<< " + strings.Join(entries, " ") + " >>"
}

func (b *builder) fontResources(fonts map[string]string) string {
	entries := make([]string, 0, len(fonts))
	for _, name := range sortedKeys(fonts) {
		n := b.reserve()
		b.object(n, fonts[name])
		entries = append(entries, fmt.Sprintf("/%s %d 0 R", name, n))
	}
	return "<< " + strings.Join(entries, " ") + " >>"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func num(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}
