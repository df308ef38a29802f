package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(c *Chunker, text string) []Span {
	var spans []Span
	for span := range c.Chunk(text) {
		spans = append(spans, span)
	}
	return spans
}

func TestChunk_EmptyInput(t *testing.T) {
	c := New()

	assert.Empty(t, collect(c, ""))
	assert.Empty(t, collect(c, "   \n\t  "))
}

func TestChunk_SmallTextSingleSpan(t *testing.T) {
	c := New()
	text := "هذا نص قانوني قصير."

	spans := collect(c, text)

	require.Len(t, spans, 1)
	assert.Equal(t, text, spans[0].Content)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, len(text), spans[0].End)
	assert.Empty(t, spans[0].ArticleNumber)
}

func TestChunk_SpansTileInput(t *testing.T) {
	c := New(WithMaxSize(50), WithMinSize(10))
	text := "المادة 1\nيلتزم صاحب العمل بدفع الأجر. يستحق العامل إجازة سنوية. " +
		"المادة 2\nلا يجوز فصل العامل دون سبب مشروع. تكون مدة الاختبار ثلاثة أشهر."

	spans := collect(c, text)
	require.NotEmpty(t, spans)

	// Concatenating all spans in order reconstructs the input exactly.
	var sb strings.Builder
	offset := 0
	for _, span := range spans {
		assert.Equal(t, offset, span.Start)
		assert.Equal(t, text[span.Start:span.End], span.Content)
		sb.WriteString(span.Content)
		offset = span.End
	}
	assert.Equal(t, text, sb.String())
}

func TestChunk_ArabicArticleHeadings(t *testing.T) {
	c := New()
	text := "مقدمة النظام.\nالمادة 1\nنص المادة الأولى.\nمادة 2\nنص المادة الثانية."

	spans := collect(c, text)

	require.Len(t, spans, 3)
	assert.Empty(t, spans[0].ArticleNumber, "preamble carries no article number")
	assert.Equal(t, "1", spans[1].ArticleNumber)
	assert.Equal(t, "المادة 1", spans[1].SectionTitle)
	assert.Equal(t, "2", spans[2].ArticleNumber)
}

func TestChunk_ArabicIndicDigits(t *testing.T) {
	c := New()
	text := "المادة ٥\nيعاقب كل من خالف أحكام هذا النظام."

	spans := collect(c, text)

	require.Len(t, spans, 1)
	assert.Equal(t, "٥", spans[0].ArticleNumber)
}

func TestChunk_LatinHeadings(t *testing.T) {
	c := New()
	text := "Article 7\nThe employer shall pay wages monthly.\nSection 8\nProbation shall not exceed ninety days."

	spans := collect(c, text)

	require.Len(t, spans, 2)
	assert.Equal(t, "7", spans[0].ArticleNumber)
	assert.Equal(t, "8", spans[1].ArticleNumber)
}

func TestChunk_OversizedUnitSplitsAtSentences(t *testing.T) {
	c := New(WithMaxSize(40), WithMinSize(5))
	text := "المادة 3\n" + strings.Repeat("جملة قصيرة تنتهي هنا. ", 10)

	spans := collect(c, text)

	require.Greater(t, len(spans), 1)
	for _, span := range spans {
		// Every span keeps the unit's article marker.
		assert.Equal(t, "3", span.ArticleNumber)
		assert.LessOrEqual(t, len([]rune(span.Content)), 40+len([]rune("جملة قصيرة تنتهي هنا. ")),
			"span should not exceed max size by more than one sentence")
	}
}

func TestChunk_OversizedSentenceKeptWhole(t *testing.T) {
	c := New(WithMaxSize(20), WithMinSize(5))
	long := strings.Repeat("كلمة ", 20) + "."

	spans := collect(c, long)

	// A single sentence longer than the limit is never split inside.
	require.Len(t, spans, 1)
	assert.Equal(t, long, spans[0].Content)
}

func TestChunk_UndersizedTailMergesBackward(t *testing.T) {
	c := New(WithMaxSize(60), WithMinSize(20))
	// Two full sentences then a tiny tail that fits into the previous span.
	text := strings.Repeat("a", 49) + ". " + strings.Repeat("b", 49) + ". end."

	spans := collect(c, text)

	require.NotEmpty(t, spans)
	last := spans[len(spans)-1].Content
	assert.Greater(t, len([]rune(last)), 20, "tiny tail should have merged into its predecessor")
}

func TestChunk_Restartable(t *testing.T) {
	c := New(WithMaxSize(30), WithMinSize(5))
	text := "المادة 1\nنص أول. نص ثان. نص ثالث. نص رابع. نص خامس."
	seq := c.Chunk(text)

	first := func() []Span {
		var out []Span
		for span := range seq {
			out = append(out, span)
		}
		return out
	}

	a := first()
	b := first()
	assert.Equal(t, a, b, "ranging twice over the same sequence yields the same spans")
}

func TestChunk_EarlyStop(t *testing.T) {
	c := New(WithMaxSize(30), WithMinSize(5))
	text := "المادة 1\nنص أول. نص ثان. نص ثالث. نص رابع. نص خامس."

	count := 0
	for range c.Chunk(text) {
		count++
		if count == 1 {
			break
		}
	}
	assert.Equal(t, 1, count)
}

func TestNew_MinSizeClampedBelowMaxSize(t *testing.T) {
	c := New(WithMaxSize(100), WithMinSize(500))

	assert.Equal(t, 100, c.maxSize)
	assert.Equal(t, 25, c.minSize)
}
