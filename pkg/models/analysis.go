package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrDegenerateInput is returned when a history cannot be analyzed at all:
// fewer than two rows, misaligned indicator rows, or a zero previous close.
var ErrDegenerateInput = errors.New("degenerate input")

// FailureKind classifies why a narrative analysis could not be produced.
type FailureKind string

const (
	FailureNone            FailureKind = ""
	FailureDegenerateInput FailureKind = "degenerate_input"
	FailureTimeout         FailureKind = "timeout"
	FailureConnection      FailureKind = "connection_error"
	FailureRateLimited     FailureKind = "rate_limited"
	FailureServiceBusy     FailureKind = "service_busy"
	FailureServiceError    FailureKind = "service_error"
	FailureEmptyEnvelope   FailureKind = "empty_envelope"
)

// Reason returns the human-readable failure reason shown in reports.
func (k FailureKind) Reason() string {
	switch k {
	case FailureDegenerateInput:
		return "历史数据不足，无法分析"
	case FailureTimeout:
		return "API请求超时"
	case FailureConnection:
		return "API连接失败"
	case FailureRateLimited:
		return "API请求频率受限"
	case FailureServiceBusy:
		return "API服务器繁忙，返回空响应"
	case FailureServiceError:
		return "API服务错误"
	case FailureEmptyEnvelope:
		return "无法获取API响应"
	default:
		return ""
	}
}

// Canonical narrative section keys, in display order.
const (
	SectionTechnical = "技术分析"
	SectionTrend     = "走势分析"
	SectionAdvice    = "投资建议"
	SectionRisk      = "风险提示"
	SectionSummary   = "总结"
)

// SectionKeys lists the five canonical sections in display order.
var SectionKeys = []string{SectionTechnical, SectionTrend, SectionAdvice, SectionRisk, SectionSummary}

// SectionMap maps the five canonical section keys to markup. It always carries
// exactly those keys; unvisited sections are empty strings.
type SectionMap struct {
	values [5]string
}

func sectionIndex(key string) int {
	for i, k := range SectionKeys {
		if k == key {
			return i
		}
	}
	return -1
}

// IsSectionKey reports whether key is one of the canonical sections.
func IsSectionKey(key string) bool {
	return sectionIndex(key) >= 0
}

// Get returns the markup for key, or "" for unknown keys.
func (m SectionMap) Get(key string) string {
	if i := sectionIndex(key); i >= 0 {
		return m.values[i]
	}
	return ""
}

// Set stores markup for a canonical key. Unknown keys are ignored.
func (m *SectionMap) Set(key, markup string) bool {
	i := sectionIndex(key)
	if i < 0 {
		return false
	}
	m.values[i] = markup
	return true
}

// Keys returns the canonical keys in display order.
func (m SectionMap) Keys() []string {
	return append([]string(nil), SectionKeys...)
}

// IsEmpty reports whether every section is empty.
func (m SectionMap) IsEmpty() bool {
	for _, v := range m.values {
		if v != "" {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the sections as an object in display order.
func (m SectionMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := m.writeFields(&buf, false); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m SectionMap) writeFields(buf *bytes.Buffer, leadingComma bool) error {
	for i, k := range SectionKeys {
		if i > 0 || leadingComma {
			buf.WriteByte(',')
		}
		if err := writeJSONPair(buf, k, m.values[i]); err != nil {
			return err
		}
	}
	return nil
}

// NarrativeResult is the AI analysis block of a report. A failed result carries the
// failure kind, a reason and the placeholder sections of FailureSections.
type NarrativeResult struct {
	Failed   bool
	Kind     FailureKind
	Reason   string
	Sections SectionMap
}

// Failure status and placeholder texts of the canonical failure template.
const (
	StatusFailed        = "分析失败"
	placeholderAnalysis = "数据获取失败，无法提供分析。"
	placeholderAdvice   = "由于数据获取失败，暂不提供投资建议。"
	placeholderRisk     = "数据不完整，投资决策需谨慎。"
)

// FailureSections returns the placeholder sections used by every failed analysis.
func FailureSections() SectionMap {
	var m SectionMap
	m.Set(SectionTechnical, placeholderAnalysis)
	m.Set(SectionTrend, placeholderAnalysis)
	m.Set(SectionAdvice, placeholderAdvice)
	m.Set(SectionRisk, placeholderRisk)
	return m
}

// FailedNarrative builds the canonical failure result for kind.
func FailedNarrative(kind FailureKind) *NarrativeResult {
	return &NarrativeResult{
		Failed:   true,
		Kind:     kind,
		Reason:   kind.Reason(),
		Sections: FailureSections(),
	}
}

// Placeholder returns the visible "分析失败: <reason>" line for a failed result.
func (r *NarrativeResult) Placeholder() string {
	if r == nil || !r.Failed {
		return ""
	}
	return StatusFailed + ": " + r.Reason
}

// MarshalJSON encodes the result as {"分析状态", "失败原因", sections...} on failure
// and as the bare sections on success.
func (r NarrativeResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	comma := false
	if r.Failed {
		if err := writeJSONPair(&buf, "分析状态", StatusFailed); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		if err := writeJSONPair(&buf, "失败原因", r.Reason); err != nil {
			return nil, err
		}
		comma = true
	}
	if err := r.Sections.writeFields(&buf, comma); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RemoteResult is the outcome of one remote narrative call: either Text, or a
// failure Kind with the underlying error.
type RemoteResult struct {
	Text string
	Kind FailureKind
	Err  error
}

// OK reports whether the call produced a text payload.
func (r RemoteResult) OK() bool { return r.Kind == FailureNone }

// NoSignal is the sentinel entry of a SignalList in which no rule fired.
const NoSignal = "当前无明显交易信号"

// SignalList is the ordered output of the signal rule engine. It is never empty.
type SignalList []string

// HasSignals reports whether any rule fired.
func (s SignalList) HasSignals() bool {
	return len(s) > 0 && !(len(s) == 1 && s[0] == NoSignal)
}

// writeJSONPair writes "key":"value" without HTML escaping, since values carry markup.
func writeJSONPair(buf *bytes.Buffer, key, value string) error {
	if err := writeJSONString(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	return writeJSONString(buf, value)
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
