package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/seenimoa/stockinsight/pkg/utils"
)

// member is one key of an ordered JSON object.
type member struct {
	Key   string
	Value any
}

// object is a JSON object that keeps its insertion order.
type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeTo(&buf, m.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeTo(&buf, m.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeTo writes v without HTML escaping, since narrative values carry markup.
func encodeTo(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

func fieldsObject(fields []Field) object {
	o := make(object, 0, len(fields))
	for _, f := range fields {
		o = append(o, member{f.Label, f.Value})
	}
	return o
}

func (sr *StockReport) object() object {
	groups := make(object, 0, len(sr.Indicators))
	for _, g := range sr.Indicators {
		groups = append(groups, member{g.Name, fieldsObject(g.Fields)})
	}
	o := object{
		{"名称", sr.Stock.Name},
		{"代码", sr.Stock.Code},
		{"日期", utils.FormatDateCST(sr.Date)},
		{SectionBasic, fieldsObject(sr.Basic)},
		{SectionIndicators, groups},
		{SectionSignals, []string(sr.Signals)},
	}
	if sr.Narrative != nil {
		o = append(o, member{SectionNarrative, *sr.Narrative})
	}
	return o
}

// MarshalJSON encodes the instrument block with its sections in display order.
func (sr *StockReport) MarshalJSON() ([]byte, error) {
	return sr.object().MarshalJSON()
}

func (r *Report) object() object {
	stocks := make([]object, 0, len(r.Stocks))
	for _, sr := range r.Stocks {
		stocks = append(stocks, sr.object())
	}
	o := object{
		{"标题", Title},
		{"生成时间", r.GeneratedAtText()},
		{"股票", stocks},
	}
	if len(r.Failures) > 0 {
		failures := make([]object, 0, len(r.Failures))
		for _, f := range r.Failures {
			failures = append(failures, object{
				{"名称", f.Stock.Name},
				{"代码", f.Stock.Code},
				{"错误", errorText(f.Err)},
			})
		}
		o = append(o, member{"失败", failures})
	}
	return o
}

// MarshalJSON encodes the report with a stable key order.
func (r *Report) MarshalJSON() ([]byte, error) {
	return r.object().MarshalJSON()
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
