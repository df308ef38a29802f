// Package chunker splits raw legal text into retrieval-sized,
// boundary-respecting units.
//
// Structural boundaries characteristic of legal drafting (numbered
// articles and sections, Arabic or Latin) are detected first. A structural
// unit exceeding the maximum size falls back to sentence-boundary
// segmentation. A single sentence exceeding the maximum size is emitted
// unsplit: splitting inside a sentence damages retrieval quality.
package chunker

import (
	"iter"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxSize is the default maximum chunk size in runes.
const DefaultMaxSize = 1500

// DefaultMinSize is the default merge threshold for small fragments.
const DefaultMinSize = 200

// Span is a chunk of the input text. Spans tile the input exactly:
// text[Start:End] == Content, and concatenating all spans in order
// reconstructs the input.
type Span struct {
	// Content is the span text.
	Content string

	// Start is the byte offset of the span in the input.
	Start int

	// End is the byte offset one past the span in the input.
	End int

	// ArticleNumber is the article marker opening this span, if any.
	ArticleNumber string

	// SectionTitle is the heading line opening this span, if any.
	SectionTitle string
}

// headingPattern matches structural headings at the start of a line:
// Arabic article/section markers (with Arabic-Indic or Latin digits) and
// their common Latin equivalents.
var headingPattern = regexp.MustCompile(
	`(?m)^[ \t]*(?:` +
		`(?:ال)?(?:مادة|ماده|فصل|باب|قسم)[ \t]*[:.\-）)]?[ \t]*[0-9٠-٩]+` +
		`|(?:Article|ARTICLE|Section|SECTION|Clause|CLAUSE)[ \t]+[0-9]+` +
		`)`,
)

// numberPattern extracts the numeral from a matched heading.
var numberPattern = regexp.MustCompile(`[0-9٠-٩]+`)

// Chunker splits text along structural and sentence boundaries.
type Chunker struct {
	maxSize int
	minSize int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxSize sets the maximum chunk size in runes.
func WithMaxSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// WithMinSize sets the merge threshold in runes. Fragments shorter than
// this are merged with a neighbour, preferring the following fragment.
func WithMinSize(size int) Option {
	return func(c *Chunker) {
		if size >= 0 {
			c.minSize = size
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxSize: DefaultMaxSize,
		minSize: DefaultMinSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	// A merge threshold at or above the target size would glue everything.
	if c.minSize >= c.maxSize {
		c.minSize = c.maxSize / 4
	}

	return c
}

// Chunk returns the spans of text as a lazy, finite, restartable sequence.
// Ranging over the result again restarts the segmentation; stopping early
// costs nothing for unconsumed spans. Empty or whitespace-only input
// yields an empty sequence.
func (c *Chunker) Chunk(text string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}

		for _, unit := range c.structuralUnits(text) {
			for _, span := range c.splitUnit(text, unit) {
				if !yield(span) {
					return
				}
			}
		}
	}
}

// unit is a structural segment of the input, opened by a heading or by
// the start of text.
type unit struct {
	start   int // byte offset
	end     int
	article string // numeral of the opening heading, "" for preamble
	title   string // full heading line, "" for preamble
}

// structuralUnits segments text at legal heading boundaries.
// Text before the first heading forms a preamble unit.
func (c *Chunker) structuralUnits(text string) []unit {
	matches := headingPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []unit{{start: 0, end: len(text)}}
	}

	units := make([]unit, 0, len(matches)+1)

	if matches[0][0] > 0 {
		units = append(units, unit{start: 0, end: matches[0][0]})
	}

	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		heading := text[m[0]:m[1]]
		units = append(units, unit{
			start:   m[0],
			end:     end,
			article: numberPattern.FindString(heading),
			title:   strings.TrimSpace(heading),
		})
	}

	return units
}

// splitUnit produces the spans for one structural unit. Units within the
// size limit pass through whole; oversized units are packed from sentence
// fragments, and undersized fragments are merged forward.
func (c *Chunker) splitUnit(text string, u unit) []Span {
	body := text[u.start:u.end]

	if utf8.RuneCountInString(body) <= c.maxSize {
		return []Span{{
			Content:       body,
			Start:         u.start,
			End:           u.end,
			ArticleNumber: u.article,
			SectionTitle:  u.title,
		}}
	}

	fragments := c.packSentences(body)

	spans := make([]Span, len(fragments))
	for i, f := range fragments {
		spans[i] = Span{
			Content:       body[f.start:f.end],
			Start:         u.start + f.start,
			End:           u.start + f.end,
			ArticleNumber: u.article,
			SectionTitle:  u.title,
		}
	}

	return spans
}

// fragment is a byte range within a structural unit, with its rune length.
type fragment struct {
	start int
	end   int
	runes int
}

// isSentenceEnd reports whether r terminates a sentence. Arabic question
// mark, semicolon and full stop are included alongside Latin enders;
// newlines end sentences too, matching how statutes list items.
func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '؟', '؛', '۔', '\n':
		return true
	}
	return false
}

// sentences splits body at sentence boundaries, returning tiling ranges.
// Whitespace after an ender belongs to the following sentence.
func sentences(body string) []fragment {
	var out []fragment
	start := 0
	runes := 0
	ended := false

	for i, r := range body {
		if ended && !unicode.IsSpace(r) {
			out = append(out, fragment{start: start, end: i, runes: runes})
			start = i
			runes = 0
			ended = false
		}
		runes++
		if isSentenceEnd(r) {
			ended = true
		}
	}

	if start < len(body) {
		out = append(out, fragment{start: start, end: len(body), runes: runes})
	}

	return out
}

// packSentences greedily packs sentences into fragments no longer than
// maxSize runes. A single sentence over the limit is kept whole, as an
// atomic unit. A trailing fragment under minSize merges backward when the
// combined size still fits; mid-stream small fragments always merge
// forward, which greedy packing already guarantees.
func (c *Chunker) packSentences(body string) []fragment {
	sents := sentences(body)
	if len(sents) == 0 {
		return []fragment{{start: 0, end: len(body), runes: utf8.RuneCountInString(body)}}
	}

	var packed []fragment
	cur := sents[0]

	for _, s := range sents[1:] {
		if cur.runes+s.runes <= c.maxSize {
			cur.end = s.end
			cur.runes += s.runes
			continue
		}
		packed = append(packed, cur)
		cur = s
	}
	packed = append(packed, cur)

	// Merge an undersized tail into its predecessor if it fits.
	if n := len(packed); n > 1 && packed[n-1].runes < c.minSize &&
		packed[n-2].runes+packed[n-1].runes <= c.maxSize {
		packed[n-2].end = packed[n-1].end
		packed[n-2].runes += packed[n-1].runes
		packed = packed[:n-1]
	}

	return packed
}
