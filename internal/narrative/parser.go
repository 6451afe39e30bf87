package narrative

import (
	"fmt"
	"html"
	"strings"

	"github.com/seenimoa/stockinsight/pkg/models"
)

// Markup fragments produced for section bodies.
const (
	fragSectionTitle = `<p class="section-title">%s</p>`
	fragItemTitle    = `<p class="item-title">%s</p>`
	fragItemContent  = `<p class="item-content">%s</p>`
	fragPlain        = `<p>%s</p>`
)

// parser segments a response into sections. State is the active section and the raw
// lines buffered for it.
type parser struct {
	sections models.SectionMap
	active   string
	buf      []string
}

// Parse converts a fixed-format narrative response into the five canonical sections.
// Text before the first header is discarded, sections may appear in any order or not
// at all, and unvisited sections stay empty. Parse never fails.
func Parse(text string) models.SectionMap {
	p := &parser{}
	for _, raw := range strings.Split(text, "\n") {
		p.feed(Lex(raw))
	}
	if p.active != "" && len(p.buf) > 0 {
		p.flush()
	}
	return p.sections
}

func (p *parser) feed(ln Line) {
	switch ln.Kind {
	case LineBlank:
	case LineSummaryMarker:
		// The summary marker flushes even an empty buffer.
		if p.active != "" {
			p.flush()
		}
		p.active = models.SectionSummary
		p.buf = []string{ln.Text}
	case LineTopHeader:
		if p.active != "" && len(p.buf) > 0 {
			p.flush()
		}
		p.active = ln.Section
		p.buf = nil
	default:
		if p.active != "" {
			p.buf = append(p.buf, ln.Text)
		}
	}
}

func (p *parser) flush() {
	p.sections.Set(p.active, RenderBody(p.buf))
}

// RenderBody converts buffered section lines into newline-joined markup fragments.
// Numbered sub-headers after earlier output are preceded by an empty separator line;
// label lines with an empty value are dropped. Response text is HTML-escaped.
func RenderBody(lines []string) string {
	var out []string
	for _, raw := range lines {
		ln := LexBody(raw)
		switch ln.Kind {
		case LineBlank, LineReserved:
		case LineNumbered:
			if len(out) > 0 {
				out = append(out, "")
			}
			out = append(out, fmt.Sprintf(fragSectionTitle, html.EscapeString(ln.Text)))
		case LineLabeled:
			if ln.Value != "" {
				out = append(out,
					fmt.Sprintf(fragItemTitle, html.EscapeString(ln.Label+ln.Sep)),
					fmt.Sprintf(fragItemContent, html.EscapeString(ln.Value)),
				)
			}
		default:
			out = append(out, fmt.Sprintf(fragPlain, html.EscapeString(ln.Text)))
		}
	}
	return strings.Join(out, "\n")
}
