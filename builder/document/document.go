// Package document transliterates the prose of Markdown documents while
// leaving code, raw HTML and math untouched.
package document

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/gohugoio/hugo-goldmark-extensions/passthrough"
	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/Kush-Singh-26/aksara/builder/metrics"
	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/services"
	"github.com/Kush-Singh-26/aksara/builder/utils"
)

// Options are the converter defaults. Front matter keys variant,
// direction and stem override them per document.
type Options struct {
	Variant   models.Variant
	Direction models.Direction
	Stem      bool
	Minify    bool
	// Highlight names a chroma style for fenced code in HTML output;
	// empty leaves code blocks plain.
	Highlight string
	// Cache stores converted output keyed by document path; nil disables it.
	Cache   services.CacheService
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Converter transliterates Markdown documents. It is safe for concurrent
// use.
type Converter struct {
	engine services.Engine
	opts   Options
	md     goldmark.Markdown
	min    *minify.M
	logger *slog.Logger
}

// Settings are the effective options of one document.
type Settings struct {
	Variant   models.Variant
	Direction models.Direction
	Stem      bool
}

// NewConverter creates a converter over engine.
func NewConverter(engine services.Engine, opts Options) *Converter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Direction == "" {
		opts.Direction = models.LatinToPegon
	}

	m := minify.New()
	m.AddFunc("text/html", minhtml.Minify)

	return &Converter{
		engine: engine,
		opts:   opts,
		md:     newMarkdown(opts.Highlight),
		min:    m,
		logger: logger,
	}
}

func codeBlockWrapper(w util.BufWriter, c highlighting.CodeBlockContext, entering bool) {
	if entering {
		lang := "text"
		if l, ok := c.Language(); ok && len(l) > 0 {
			lang = string(util.EscapeHTML(l))
		}
		_, _ = w.WriteString(`<div class="code-wrapper" dir="ltr" data-lang="` + lang + `">`)
	} else {
		_, _ = w.WriteString(`</div>`)
	}
}

func newMarkdown(style string) goldmark.Markdown {
	exts := []goldmark.Extender{
		extension.GFM,
		meta.Meta,
		passthrough.New(passthrough.Config{
			InlineDelimiters: []passthrough.Delimiters{{Open: "$", Close: "$"}, {Open: "\\(", Close: "\\)"}},
			BlockDelimiters:  []passthrough.Delimiters{{Open: "$$", Close: "$$"}, {Open: "\\[", Close: "\\]"}},
		}),
	}
	if style != "" {
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(style),
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			highlighting.WithWrapperRenderer(codeBlockWrapper),
		))
	}
	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// parsed is a document whose prose has been transliterated but not yet
// written out.
type parsed struct {
	src      []byte
	doc      ast.Node
	runs     []textRun
	settings Settings
}

// textRun is a stretch of adjacent text nodes with no gap between their
// segments. The inline parser splits text at delimiter characters such as
// _ and `, which reversible Latin uses inside words, so a run is
// transliterated as a whole.
type textRun struct {
	nodes []*ast.Text
	out   string
}

func (r *textRun) start() int { return r.nodes[0].Segment.Start }
func (r *textRun) stop() int  { return r.nodes[len(r.nodes)-1].Segment.Stop }

// joins reports whether t continues the run.
func (r *textRun) joins(t *ast.Text) bool {
	last := r.nodes[len(r.nodes)-1]
	return t.PreviousSibling() == ast.Node(last) &&
		last.Segment.Stop == t.Segment.Start &&
		!last.SoftLineBreak() && !last.HardLineBreak()
}

// groupRuns splits nodes, in source order, into runs.
func groupRuns(nodes []*ast.Text) []textRun {
	var runs []textRun
	for _, t := range nodes {
		if n := len(runs); n > 0 && runs[n-1].joins(t) {
			runs[n-1].nodes = append(runs[n-1].nodes, t)
			continue
		}
		runs = append(runs, textRun{nodes: []*ast.Text{t}})
	}
	return runs
}

func (c *Converter) parse(src []byte) (*parsed, error) {
	pc := parser.NewContext()
	doc := c.md.Parser().Parse(text.NewReader(src), parser.WithContext(pc))

	settings, err := c.settings(pc)
	if err != nil {
		return nil, err
	}

	p := &parsed{src: src, doc: doc, settings: settings}
	var nodes []*ast.Text
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if skipped(n) {
			return ast.WalkSkipChildren, nil
		}
		if t, ok := n.(*ast.Text); ok && t.Segment.Len() > 0 {
			nodes = append(nodes, t)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Segment.Start < nodes[j].Segment.Start
	})
	p.runs = groupRuns(nodes)
	for i := range p.runs {
		r := &p.runs[i]
		out, err := c.engine.Transliterate(string(src[r.start():r.stop()]), settings.Variant, settings.Direction, settings.Stem)
		if err != nil {
			return nil, fmt.Errorf("failed to transliterate document: %w", err)
		}
		r.out = out
	}
	c.opts.Metrics.IncDocuments()
	return p, nil
}

// skipped reports whether n's text must be copied verbatim.
func skipped(n ast.Node) bool {
	switch n.Kind() {
	case ast.KindCodeSpan, ast.KindCodeBlock, ast.KindFencedCodeBlock,
		ast.KindHTMLBlock, ast.KindRawHTML, ast.KindAutoLink,
		passthrough.KindPassthroughInline, passthrough.KindPassthroughBlock:
		return true
	}
	return false
}

func (c *Converter) settings(pc parser.Context) (Settings, error) {
	s := Settings{Variant: c.opts.Variant, Direction: c.opts.Direction, Stem: c.opts.Stem}

	fm, err := meta.TryGet(pc)
	if err != nil {
		return s, fmt.Errorf("failed to parse front matter: %w", err)
	}
	if name, ok := fm["variant"].(string); ok {
		v, err := models.ParseVariant(name)
		if err != nil {
			return s, err
		}
		s.Variant = v
	}
	if name, ok := fm["direction"].(string); ok {
		d, err := models.ParseDirection(name)
		if err != nil {
			return s, err
		}
		s.Direction = d
	}
	if stem, ok := fm["stem"].(bool); ok {
		s.Stem = stem
	}
	return s, nil
}

// Convert returns src with the prose transliterated. Front matter, code,
// raw HTML and math are copied byte for byte.
func (c *Converter) Convert(src []byte) ([]byte, error) {
	p, err := c.parse(src)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Grow(len(src) * 2)
	pos := 0
	for _, r := range p.runs {
		if r.start() < pos {
			continue
		}
		out.Write(src[pos:r.start()])
		out.WriteString(r.out)
		pos = r.stop()
	}
	out.Write(src[pos:])
	return out.Bytes(), nil
}

// RenderHTML converts src and renders it as an HTML fragment wrapped in
// an article carrying the script direction.
func (c *Converter) RenderHTML(src []byte) ([]byte, error) {
	p, err := c.parse(src)
	if err != nil {
		return nil, err
	}

	// Point the first node of every run at its transliteration, appended
	// after the original source, so the renderer escapes it like any other
	// text. The rest of the run renders empty.
	extended := make([]byte, len(src), len(src)*3)
	copy(extended, src)
	for _, r := range p.runs {
		start := len(extended)
		extended = append(extended, r.out...)
		r.nodes[0].Segment = text.NewSegment(start, len(extended))
		for _, t := range r.nodes[1:] {
			t.Segment = text.NewSegment(len(extended), len(extended))
		}
	}

	buf := utils.Buffers.Get()
	defer utils.Buffers.Put(buf)

	dir := "ltr"
	if p.settings.Direction == models.LatinToPegon {
		dir = "rtl"
	}
	if p.settings.Variant != "" {
		fmt.Fprintf(buf, "<article dir=%q data-variant=%q>\n", dir, p.settings.Variant)
	} else {
		fmt.Fprintf(buf, "<article dir=%q>\n", dir)
	}
	if err := c.md.Renderer().Render(buf, extended, p.doc); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	buf.WriteString("</article>\n")

	if c.opts.Minify {
		out, err := c.min.Bytes("text/html", buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("failed to minify document: %w", err)
		}
		return out, nil
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Settings reports the effective options of src.
func (c *Converter) Settings(src []byte) (Settings, error) {
	pc := parser.NewContext()
	c.md.Parser().Parse(text.NewReader(src), parser.WithContext(pc))
	return c.settings(pc)
}
