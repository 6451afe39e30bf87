package narrative

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/stockinsight/pkg/models"
)

// fragments parses section markup and returns the class ("" for plain) and text of
// every <p> fragment in order.
func fragments(t *testing.T, markup string) [][2]string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	var out [][2]string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		out = append(out, [2]string{class, s.Text()})
	})
	return out
}

func TestParseLiteralResponse(t *testing.T) {
	text := "技术分析\n1. 长期趋势分析：\n趋势判断：上涨\n走势分析\n当前趋势：强\n总体总结：整体乐观"
	sections := Parse(text)

	assert.Equal(t, [][2]string{
		{"section-title", "1. 长期趋势分析："},
		{"item-title", "趋势判断："},
		{"item-content", "上涨"},
	}, fragments(t, sections.Get(models.SectionTechnical)))

	assert.Equal(t, [][2]string{
		{"item-title", "当前趋势："},
		{"item-content", "强"},
	}, fragments(t, sections.Get(models.SectionTrend)))

	assert.Contains(t, sections.Get(models.SectionSummary), "整体乐观")
	assert.Equal(t, "<p>整体乐观</p>", sections.Get(models.SectionSummary))
	assert.Empty(t, sections.Get(models.SectionAdvice))
	assert.Empty(t, sections.Get(models.SectionRisk))
}

func TestParseExactMarkup(t *testing.T) {
	text := strings.Join([]string{
		"前言会被忽略",
		"投资建议",
		"1. 操作策略：",
		"总体建议: 逢低吸纳",
		"仓位控制：",
		"2. 具体参数：",
		"止损位设置：9.50元",
		"激进投资者可适当加仓",
	}, "\n")

	expected := strings.Join([]string{
		`<p class="section-title">1. 操作策略：</p>`,
		`<p class="item-title">总体建议:</p>`,
		`<p class="item-content">逢低吸纳</p>`,
		``,
		`<p class="section-title">2. 具体参数：</p>`,
		`<p class="item-title">止损位设置：</p>`,
		`<p class="item-content">9.50元</p>`,
		`<p>激进投资者可适当加仓</p>`,
	}, "\n")

	assert.Equal(t, expected, Parse(text).Get(models.SectionAdvice))
}

func TestParseRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 50; iter++ {
		keys := append([]string(nil), models.SectionKeys...)
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		present := keys[:1+rng.Intn(len(keys))]

		var b strings.Builder
		for _, key := range present {
			b.WriteString(key + "\n")
			fmt.Fprintf(&b, "1. %s要点\n", key)
			fmt.Fprintf(&b, "%s指标：%s数值\n", key, key)
			b.WriteString("\n")
		}

		sections := Parse(b.String())
		for _, key := range models.SectionKeys {
			markup := sections.Get(key)
			if !contains(present, key) {
				assert.Empty(t, markup, key)
				continue
			}
			frags := fragments(t, markup)
			require.Len(t, frags, 3, key)
			assert.Equal(t, [2]string{"section-title", "1. " + key + "要点"}, frags[0])
			assert.Equal(t, [2]string{"item-title", key + "指标："}, frags[1])
			assert.Equal(t, [2]string{"item-content", key + "数值"}, frags[2])
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestParseGarbage(t *testing.T) {
	for _, text := range []string{
		"",
		"\n\n   \n\t\n",
		"这是一段没有任何标题的分析。\n股价可能上涨: 也可能下跌\n1. 随便说说",
	} {
		sections := Parse(text)
		assert.True(t, sections.IsEmpty(), "%q", text)
		assert.Equal(t, models.SectionKeys, sections.Keys())
	}
}

func TestParseHeaderFlushRules(t *testing.T) {
	// A header over an empty buffer keeps the previous section's content.
	sections := Parse("技术分析\n走势分析\n放量上涨")
	assert.Empty(t, sections.Get(models.SectionTechnical))
	assert.Equal(t, "<p>放量上涨</p>", sections.Get(models.SectionTrend))

	// A repeated section replaces the earlier content.
	sections = Parse("技术分析\n第一次\n走势分析\n中间\n技术分析\n第二次")
	assert.Equal(t, "<p>第二次</p>", sections.Get(models.SectionTechnical))
	assert.Equal(t, "<p>中间</p>", sections.Get(models.SectionTrend))

	// The summary marker flushes the active section even when its buffer is empty.
	sections = Parse("技术分析\n内容\n技术分析\n总体总结：看多")
	assert.Empty(t, sections.Get(models.SectionTechnical))
	assert.Equal(t, "<p>看多</p>", sections.Get(models.SectionSummary))
}

func TestParseSummaryVariants(t *testing.T) {
	sections := Parse("风险提示\n注意回调\n总体总结\n整体向好\n仍需谨慎")
	assert.Equal(t, "<p>注意回调</p>", sections.Get(models.SectionRisk))
	assert.Equal(t, "<p>整体向好</p>\n<p>仍需谨慎</p>", sections.Get(models.SectionSummary))

	sections = Parse("总结\n短期震荡")
	assert.Equal(t, "<p>短期震荡</p>", sections.Get(models.SectionSummary))

	sections = Parse("总体总结：")
	assert.Empty(t, sections.Get(models.SectionSummary))
}

func TestParseWhitespaceTolerance(t *testing.T) {
	text := "  \r\n  走势分析  \r\n\r\n   量价关系：  配合良好 \r\n"
	sections := Parse(text)
	assert.Equal(t, [][2]string{
		{"item-title", "量价关系："},
		{"item-content", "配合良好"},
	}, fragments(t, sections.Get(models.SectionTrend)))
}

func TestRenderBody(t *testing.T) {
	assert.Equal(t, "", RenderBody(nil))
	assert.Equal(t, "", RenderBody([]string{"技术分析", "总体总结", "  ", "标签："}))
	assert.Equal(t,
		"<p class=\"section-title\">1. 第一</p>",
		RenderBody([]string{"1. 第一"}),
		"no separator before the first fragment",
	)
}

func TestRenderBodyEscapesText(t *testing.T) {
	body := RenderBody([]string{
		"1. <b>要点</b>",
		"风险<script>：<script>alert(1)</script>",
		"A&B 公司 \"龙头\"",
	})

	assert.NotContains(t, body, "<script>")
	assert.NotContains(t, body, "<b>")
	assert.Equal(t, [][2]string{
		{"section-title", "1. <b>要点</b>"},
		{"item-title", "风险<script>："},
		{"item-content", "<script>alert(1)</script>"},
		{"", "A&B 公司 \"龙头\""},
	}, fragments(t, body))
}
