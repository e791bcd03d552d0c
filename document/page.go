package document

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdfredact/builder"
	"github.com/wudi/pdfredact/contentstream"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/pdferr"
)

// Page records drawing calls for one page. It implements builder.Page.
type Page struct {
	index         int
	width, height float64
	dict          types.Dict
	inh           *model.InheritedPageAttrs
	canvas        *builder.Canvas

	flushed int
	wrapped bool
}

var _ builder.Page = (*Page)(nil)

// Size is the media box size in points.
func (p *Page) Size() (float64, float64) { return p.width, p.height }

func (p *Page) DrawRectangle(x, y, width, height float64, opts builder.RectOptions) {
	p.canvas.DrawRectangle(x, y, width, height, opts)
}

func (p *Page) DrawText(text string, x, y float64, opts builder.TextOptions) {
	p.canvas.DrawText(text, x, y, opts)
}

// Operations returns everything drawn on the page so far.
func (p *Page) Operations() []contentstream.Operation { return p.canvas.Operations() }

// FontName is the resource name the page uses for drawn text.
func (p *Page) FontName() string { return p.canvas.FontName }

// commit appends operations drawn since the last commit to every touched page.
// The original content is wrapped in q/Q once so its graphics state does not
// leak into the appended stream.
func (d *Document) commit() error {
	for i := 0; i < d.PageCount(); i++ {
		p, ok := d.pages[i]
		if !ok {
			continue
		}
		if err := p.canvas.Err(); err != nil {
			return pdferr.Parse("draw", i, err)
		}
		ops := p.canvas.Operations()
		if len(ops) == p.flushed {
			continue
		}
		if err := d.commitPage(p, ops[p.flushed:]); err != nil {
			return pdferr.Parse("commit page", i, err)
		}
		p.flushed = len(ops)
	}
	return nil
}

func (d *Document) commitPage(p *Page, ops []contentstream.Operation) error {
	if err := d.registerFont(p); err != nil {
		return err
	}
	ref, err := d.newStream(contentstream.Serialize(ops))
	if err != nil {
		return err
	}
	existing, err := d.contentRefs(p.dict)
	if err != nil {
		return err
	}
	d.log.Debug("appending page content",
		observability.Int("page", p.index),
		observability.Int("operations", len(ops)),
		observability.Bool("wrap_original", !p.wrapped && len(existing) > 0))
	if p.wrapped || len(existing) == 0 {
		p.dict["Contents"] = append(existing, *ref)
		p.wrapped = true
		return nil
	}
	open, closer, err := d.wrapStreams()
	if err != nil {
		return err
	}
	contents := make(types.Array, 0, len(existing)+3)
	contents = append(contents, *open)
	contents = append(contents, existing...)
	contents = append(contents, *closer, *ref)
	p.dict["Contents"] = contents
	p.wrapped = true
	return nil
}

// contentRefs flattens a page's Contents entry to an array of objects.
func (d *Document) contentRefs(page types.Dict) (types.Array, error) {
	obj, found := page.Find("Contents")
	if !found || obj == nil {
		return nil, nil
	}
	if ref, ok := obj.(types.IndirectRef); ok {
		target, err := d.ctx.Dereference(ref)
		if err != nil {
			return nil, fmt.Errorf("contents: %w", err)
		}
		if arr, ok := target.(types.Array); ok {
			return append(types.Array(nil), arr...), nil
		}
		return types.Array{ref}, nil
	}
	if arr, ok := obj.(types.Array); ok {
		return append(types.Array(nil), arr...), nil
	}
	return nil, fmt.Errorf("contents: unexpected %T", obj)
}

// wrapStreams returns the shared "q" and "Q" streams, creating them once.
func (d *Document) wrapStreams() (*types.IndirectRef, *types.IndirectRef, error) {
	for i, op := range []string{"q\n", "Q\n"} {
		if d.wrapRefs[i] != nil {
			continue
		}
		ref, err := d.newStream([]byte(op))
		if err != nil {
			return nil, nil, err
		}
		d.wrapRefs[i] = ref
	}
	return d.wrapRefs[0], d.wrapRefs[1], nil
}

func (d *Document) newStream(content []byte) (*types.IndirectRef, error) {
	sd, err := d.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, fmt.Errorf("new stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("encode stream: %w", err)
	}
	ref, err := d.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, fmt.Errorf("register stream: %w", err)
	}
	return ref, nil
}

// registerFont adds the shared font object to the page's font resources
// under the page's font name.
func (d *Document) registerFont(p *Page) error {
	if d.fontRef == nil {
		font := types.Dict(map[string]types.Object{
			"Type":     types.Name("Font"),
			"Subtype":  types.Name("Type1"),
			"BaseFont": types.Name(d.baseFont),
			"Encoding": types.Name("WinAnsiEncoding"),
		})
		ref, err := d.ctx.IndRefForNewObject(font)
		if err != nil {
			return fmt.Errorf("register font: %w", err)
		}
		d.fontRef = ref
	}
	res, err := d.pageResources(p.dict, p.inh)
	if err != nil {
		return err
	}
	fonts, err := d.subDict(res, "Font")
	if err != nil {
		return err
	}
	fonts[p.FontName()] = *d.fontRef
	return nil
}

// pageResources returns the page's own resource dictionary, materializing a
// copy of the inherited one when the page has none.
func (d *Document) pageResources(page types.Dict, inh *model.InheritedPageAttrs) (types.Dict, error) {
	if obj, found := page.Find("Resources"); found && obj != nil {
		res, err := d.ctx.DereferenceDict(obj)
		if err != nil {
			return nil, fmt.Errorf("resources: %w", err)
		}
		if res != nil {
			return res, nil
		}
	}
	res := types.Dict{}
	if inh != nil {
		for k, v := range inh.Resources {
			res[k] = v
		}
	}
	page["Resources"] = res
	return res, nil
}

func (d *Document) subDict(parent types.Dict, key string) (types.Dict, error) {
	if obj, found := parent.Find(key); found && obj != nil {
		sub, err := d.ctx.DereferenceDict(obj)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if sub != nil {
			return sub, nil
		}
	}
	sub := types.Dict{}
	parent[key] = sub
	return sub, nil
}

// freeFontName picks a font resource name not already used by the page.
func (d *Document) freeFontName(page types.Dict, inh *model.InheritedPageAttrs) (string, error) {
	used := map[string]bool{}
	collect := func(res types.Dict) error {
		if res == nil {
			return nil
		}
		obj, found := res.Find("Font")
		if !found || obj == nil {
			return nil
		}
		fonts, err := d.ctx.DereferenceDict(obj)
		if err != nil {
			return err
		}
		for name := range fonts {
			used[name] = true
		}
		return nil
	}
	if obj, found := page.Find("Resources"); found && obj != nil {
		res, err := d.ctx.DereferenceDict(obj)
		if err != nil {
			return "", err
		}
		if err := collect(res); err != nil {
			return "", err
		}
	}
	if inh != nil {
		if err := collect(inh.Resources); err != nil {
			return "", err
		}
	}
	for n := 1; ; n++ {
		name := fmt.Sprintf("RF%d", n)
		if !used[name] {
			return name, nil
		}
	}
}
