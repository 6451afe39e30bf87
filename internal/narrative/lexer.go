package narrative

import (
	"strings"

	"github.com/seenimoa/stockinsight/pkg/models"
)

// LineKind enumerates the line classes of a narrative response.
type LineKind int

const (
	LineBlank         LineKind = iota
	LineTopHeader              // 技术分析, 走势分析, ... on a line of its own
	LineSummaryMarker          // 总体总结[：text]
	LineNumbered               // 1. / 2. / 3. sub-header
	LineLabeled                // label: value
	LinePlain                  // anything else
	LineReserved               // a header word inside a section body
)

var lineKindNames = map[LineKind]string{
	LineBlank:         "BLANK",
	LineTopHeader:     "HEADER",
	LineSummaryMarker: "SUMMARY",
	LineNumbered:      "NUMBERED",
	LineLabeled:       "LABELED",
	LinePlain:         "PLAIN",
	LineReserved:      "RESERVED",
}

func (k LineKind) String() string {
	if name, ok := lineKindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// summaryPrefix opens the summary section; its text follows the first full-width colon.
const summaryPrefix = "总体总结"

// reservedLines are structural words that never become body markup.
var reservedLines = map[string]bool{
	models.SectionTechnical: true,
	models.SectionTrend:     true,
	models.SectionAdvice:    true,
	models.SectionRisk:      true,
	models.SectionSummary:   true,
	summaryPrefix:           true,
}

var numberedPrefixes = []string{"1.", "2.", "3."}

// Line is one classified, trimmed input line.
type Line struct {
	Kind LineKind
	Text string // trimmed line; for LineSummaryMarker the seeded summary text

	Section string // LineTopHeader: the section it opens
	Label   string // LineLabeled
	Sep     string // LineLabeled: the colon that split the line
	Value   string // LineLabeled: trimmed, possibly empty
}

// Lex classifies a raw response line for the section state machine. Only blank lines,
// headers and the summary marker are structural; every other line is body text and is
// classified further by LexBody when its section is flushed.
func Lex(raw string) Line {
	line := strings.TrimSpace(raw)
	switch {
	case line == "":
		return Line{Kind: LineBlank}
	case strings.HasPrefix(line, summaryPrefix):
		seed := line
		if _, after, ok := strings.Cut(line, "："); ok {
			seed = after
		}
		return Line{Kind: LineSummaryMarker, Text: seed}
	case models.IsSectionKey(line):
		return Line{Kind: LineTopHeader, Text: line, Section: line}
	}
	return LexBody(line)
}

// LexBody classifies a line of section body text.
func LexBody(raw string) Line {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Line{Kind: LineBlank}
	}
	if reservedLines[line] {
		return Line{Kind: LineReserved, Text: line}
	}
	for _, p := range numberedPrefixes {
		if strings.HasPrefix(line, p) {
			return Line{Kind: LineNumbered, Text: line}
		}
	}
	if i, sep := firstColon(line); i >= 0 {
		return Line{
			Kind:  LineLabeled,
			Text:  line,
			Label: line[:i],
			Sep:   sep,
			Value: strings.TrimSpace(line[i+len(sep):]),
		}
	}
	return Line{Kind: LinePlain, Text: line}
}

// firstColon finds the earliest ASCII or full-width colon.
func firstColon(s string) (int, string) {
	ascii := strings.Index(s, ":")
	wide := strings.Index(s, "：")
	switch {
	case ascii < 0 && wide < 0:
		return -1, ""
	case wide < 0 || (ascii >= 0 && ascii < wide):
		return ascii, ":"
	default:
		return wide, "："
	}
}
