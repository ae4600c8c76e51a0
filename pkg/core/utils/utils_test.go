package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestDecodeLenient_Strict(t *testing.T) {
	var s sample
	got, err := DecodeLenient([]byte(`{"name": "unit 4", "value": 550000}`), &s)
	require.NoError(t, err)
	assert.Equal(t, StrategyJSON, got)
	assert.Equal(t, "unit 4", s.Name)
}

func TestDecodeLenient_Tolerant(t *testing.T) {
	cases := map[string]string{
		"trailing comma": `{"name": "unit 4", "value": 550000,}`,
		"single quotes":  `{'name': 'unit 4', 'value': 550000}`,
		"fenced":         "```json\n{\"name\": \"unit 4\", \"value\": 550000}\n```",
		"hjson":          "{\n  # comment\n  name: unit 4\n  value: 550000\n}",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			var s sample
			_, err := DecodeLenient([]byte(input), &s)
			require.NoError(t, err)
			assert.Equal(t, "unit 4", s.Name)
			assert.Equal(t, 550000.0, s.Value)
		})
	}
}

func TestDecodeLenient_HJSONStrategy(t *testing.T) {
	var s sample
	got, err := DecodeLenient([]byte("{\n  // note\n  name: unit 4\n  value: 1\n}"), &s)
	require.NoError(t, err)
	assert.Equal(t, StrategyHJSON, got)
}

func TestDecodeLenient_Empty(t *testing.T) {
	var s sample
	_, err := DecodeLenient([]byte("   "), &s)
	if !errors.Is(err, ErrUndecodable) {
		t.Errorf("expected ErrUndecodable, got %v", err)
	}
}

func TestParseHJSON(t *testing.T) {
	out, err := ParseHJSON([]byte("{\n  # comment\n  name: unit 4\n  value: 12\n}"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"unit 4","value":12}`, string(out))
}

func TestCleanMarkdown(t *testing.T) {
	in := "```markdown\n## Summary\n\nBreaks even in 2031.\n```"
	assert.Equal(t, "## Summary\n\nBreaks even in 2031.", CleanMarkdown(in))
	assert.Equal(t, "plain", CleanMarkdown("  plain  "))
}

func TestValidateMarkdown(t *testing.T) {
	assert.True(t, ValidateMarkdown("# Title\n\nbody"))
	assert.False(t, ValidateMarkdown("  \n "))
}

func TestHeadings(t *testing.T) {
	got := Headings("# Report\n\ntext\n\n## Key figures\n\n## Yearly projection\n")
	assert.Equal(t, []string{"Report", "Key figures", "Yearly projection"}, got)
}

func TestRenderHTML_Table(t *testing.T) {
	html, err := RenderHTML("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.True(t, strings.Contains(html, "<table>"), html)
	assert.True(t, strings.Contains(html, "<td>2</td>"), html)
}
