package csvio

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\r\n  \n"} {
		got := Parse(in)
		assert.Empty(t, got.Headers, "input %q", in)
		assert.Empty(t, got.Rows, "input %q", in)
		assert.NotNil(t, got.Headers)
		assert.NotNil(t, got.Rows)
	}
}

func TestParse_ExtraFieldsDropped(t *testing.T) {
	got := Parse("a,b\n1,\"x,y\",,2")

	require.Equal(t, []string{"a", "b"}, got.Headers)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, map[string]string{"a": "1", "b": "x,y"}, got.Rows[0])
}

func TestParse_MissingFieldsDefaultEmpty(t *testing.T) {
	got := Parse("a,b\n1")

	require.Len(t, got.Rows, 1)
	assert.Equal(t, map[string]string{"a": "1", "b": ""}, got.Rows[0])
}

func TestParse_CRLFAndBlankLines(t *testing.T) {
	got := Parse("\r\nName,Email\r\n\r\nAda,ada@example.com\n   \nBob,bob@example.com\r\n")

	assert.Equal(t, []string{"Name", "Email"}, got.Headers)
	assert.Equal(t, []map[string]string{
		{"Name": "Ada", "Email": "ada@example.com"},
		{"Name": "Bob", "Email": "bob@example.com"},
	}, got.Rows)
}

func TestParse_QuotesAndTrimming(t *testing.T) {
	got := Parse(`h1, h2 ,h3` + "\n" + `  plain  , "he said ""hi""" , " keep "`)

	assert.Equal(t, []string{"h1", "h2", "h3"}, got.Headers)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "plain", got.Rows[0]["h1"])
	assert.Equal(t, `he said "hi"`, got.Rows[0]["h2"])
	assert.Equal(t, " keep ", got.Rows[0]["h3"])
}

func TestParse_TextAfterClosingQuote(t *testing.T) {
	got := Parse("a,b\n\"x\" y,z\n\"x\"  ,\"p\"q ")

	require.Len(t, got.Rows, 2)
	assert.Equal(t, "x y", got.Rows[0]["a"])
	assert.Equal(t, "z", got.Rows[0]["b"])
	assert.Equal(t, "x", got.Rows[1]["a"])
	assert.Equal(t, "pq", got.Rows[1]["b"])
}

func TestParse_UnterminatedQuoteIsBestEffort(t *testing.T) {
	got := Parse("a,b\n\"open,still open")

	require.Len(t, got.Rows, 1)
	assert.Equal(t, "open,still open", got.Rows[0]["a"])
	assert.Equal(t, "", got.Rows[0]["b"])
}

func TestParse_DuplicateHeadersLaterWins(t *testing.T) {
	got := Parse("x,x\nfirst,second")

	assert.Equal(t, []string{"x", "x"}, got.Headers)
	assert.Equal(t, map[string]string{"x": "second"}, got.Rows[0])
}

func TestGenerate_Escaping(t *testing.T) {
	out := Generate([]string{"a", "b"}, []map[string]string{
		{"a": `he said "hi"`, "b": "ok"},
	})

	assert.Equal(t, "a,b\n\"he said \"\"hi\"\"\",ok", out)
}

func TestGenerate_CommaNewlineAndMissingKey(t *testing.T) {
	out := Generate([]string{"name", "note", "phone"}, []map[string]string{
		{"name": "Acme, Inc.", "note": "line1\nline2"},
	})

	assert.Equal(t, "name,note,phone\n\"Acme, Inc.\",\"line1\nline2\",", out)
}

func TestGenerate_NoHeaders(t *testing.T) {
	assert.Equal(t, "", Generate(nil, []map[string]string{{"a": "1"}}))
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const alphabet = `abcXYZ019 ,"'.-@`

	randValue := func() string {
		n := 1 + rng.Intn(8)
		var b strings.Builder
		for b.Len() < n {
			b.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
		// surrounding whitespace is not preserved for unquoted fields
		v := strings.TrimSpace(b.String())
		if v == "" {
			return "v"
		}
		return v
	}

	for iter := 0; iter < 200; iter++ {
		headers := make([]string, 1+rng.Intn(5))
		for i := range headers {
			headers[i] = "col" + string(rune('A'+i))
		}
		rows := make([]map[string]string, rng.Intn(6))
		for i := range rows {
			row := make(map[string]string, len(headers))
			for _, h := range headers {
				row[h] = randValue()
			}
			rows[i] = row
		}

		got := Parse(Generate(headers, rows))

		require.Equal(t, headers, got.Headers, "iteration %d", iter)
		require.Equal(t, rows, got.Rows, "iteration %d", iter)
	}
}
