package report

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/stockinsight/pkg/utils"
)

// Text renders the report as plain text for terminals.
func (r *Report) Text() string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	fmt.Fprintf(&sb, "  %s\n", Title)
	fmt.Fprintf(&sb, "  生成时间: %s\n", r.GeneratedAtText())
	sb.WriteString(line + "\n")

	for _, sr := range r.Stocks {
		fmt.Fprintf(&sb, "\n  %s  %s\n", sr.Stock.DisplayName(), utils.FormatDateCST(sr.Date))
		sb.WriteString(thinLine + "\n")

		fmt.Fprintf(&sb, "\n  ■ %s\n", SectionBasic)
		for _, f := range sr.Basic {
			fmt.Fprintf(&sb, "    %s %s\n", padLabel(f.Label, 12), f.Value)
		}

		fmt.Fprintf(&sb, "\n  ■ %s\n", SectionIndicators)
		for _, g := range sr.Indicators {
			fmt.Fprintf(&sb, "    [%s]\n", g.Name)
			for _, f := range g.Fields {
				fmt.Fprintf(&sb, "      %s %s\n", padLabel(f.Label, 32), f.Value)
			}
		}

		fmt.Fprintf(&sb, "\n  ■ %s\n", SectionSignals)
		for _, s := range sr.Signals {
			fmt.Fprintf(&sb, "    • %s\n", s)
		}

		if n := sr.Narrative; n != nil {
			fmt.Fprintf(&sb, "\n  ■ %s\n", SectionNarrative)
			if p := n.Placeholder(); p != "" {
				fmt.Fprintf(&sb, "    %s\n", p)
			}
			for _, key := range n.Sections.Keys() {
				fmt.Fprintf(&sb, "    [%s]\n", key)
				for _, l := range markupLines(n.Sections.Get(key)) {
					fmt.Fprintf(&sb, "      %s\n", l)
				}
			}
		}
		sb.WriteString(thinLine + "\n")
	}

	if len(r.Failures) > 0 {
		sb.WriteString("\n  ■ 未能完成分析\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&sb, "    %s: %s\n", f.Stock.DisplayName(), errorText(f.Err))
		}
		sb.WriteString(thinLine + "\n")
	}

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  本报告由程序自动生成，仅供学习研究参考，不构成任何投资建议。\n")
	sb.WriteString(line + "\n")
	return sb.String()
}

// markupLines flattens section markup into display lines. An item title and the
// content paragraph after it share one line; text without paragraphs is kept as is.
func markupLines(markup string) []string {
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return []string{markup}
	}
	paras := doc.Find("p")
	if paras.Length() == 0 {
		return []string{strings.TrimSpace(doc.Text())}
	}

	var lines []string
	paras.Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		switch {
		case s.HasClass("item-content") && len(lines) > 0:
			lines[len(lines)-1] += text
		case s.HasClass("section-title") && len(lines) > 0:
			lines = append(lines, "", text)
		default:
			lines = append(lines, text)
		}
	})
	return lines
}

// padLabel pads s to width display columns, counting CJK runes as two.
func padLabel(s string, width int) string {
	w := 0
	for _, r := range s {
		if r >= 0x2E80 {
			w += 2
		} else {
			w++
		}
	}
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
