// Package csvio reads and writes the comma-separated lead files that
// campaigns are imported from and exported to.
package csvio

import (
	"regexp"
	"strings"
)

// Table is a parsed CSV document: ordered column names plus one
// column-name → value map per data row.
type Table struct {
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
}

var lineBreak = regexp.MustCompile(`\r\n|\n`)

// Parse turns CSV text into a Table. It never fails: malformed quoting is
// parsed best effort, short rows are padded with "" and extra fields are
// dropped. Lines are split before fields, so a quoted field cannot span
// lines.
func Parse(text string) Table {
	t := Table{Headers: []string{}, Rows: []map[string]string{}}
	if strings.TrimSpace(text) == "" {
		return t
	}

	headerSeen := false
	for _, line := range lineBreak.Split(text, -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := splitLine(line)
		if !headerSeen {
			t.Headers = fields
			headerSeen = true
			continue
		}

		row := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			v := ""
			if i < len(fields) {
				v = fields[i]
			}
			row[h] = v
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}

// splitLine splits one CSV line on commas outside double quotes.
func splitLine(line string) []string {
	var (
		fields   []string
		buf      strings.Builder
		quoted   bool
		inQuotes bool
		closedAt int
	)

	flush := func() {
		v := buf.String()
		switch {
		case inQuotes:
			// unterminated quote runs to the end of the line as is
		case quoted:
			// text after the closing quote loses only its trailing padding
			v = v[:closedAt] + strings.TrimRight(v[closedAt:], " \t")
		default:
			v = strings.TrimSpace(v)
		}
		fields = append(fields, v)
		buf.Reset()
		quoted = false
		closedAt = 0
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuotes:
			if c != '"' {
				buf.WriteByte(c)
				continue
			}
			if i+1 < len(line) && line[i+1] == '"' {
				buf.WriteByte('"')
				i++
				continue
			}
			inQuotes = false
			closedAt = buf.Len()
		case c == '"':
			// whitespace before an opening quote is not part of the value
			if !quoted && strings.TrimSpace(buf.String()) == "" {
				buf.Reset()
			}
			quoted = true
			inQuotes = true
		case c == ',':
			flush()
		default:
			buf.WriteByte(c)
		}
	}
	flush()

	return fields
}

// Generate renders headers and rows as CSV, one line per row joined by "\n".
// Values are looked up by header; a missing key is written as "".
func Generate(headers []string, rows []map[string]string) string {
	if len(headers) == 0 {
		return ""
	}

	var b strings.Builder
	writeLine(&b, headers)
	fields := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			fields[i] = row[h]
		}
		b.WriteByte('\n')
		writeLine(&b, fields)
	}

	return b.String()
}

func writeLine(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeField(f))
	}
}

func escapeField(f string) string {
	if !strings.ContainsAny(f, ",\"\n") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}
