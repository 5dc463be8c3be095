package teamrankings

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statTableHTML = `
<html><body>
<table class="datatable">
<thead><tr><th>Rank</th><th>Team</th><th>2024</th><th>Last 3</th></tr></thead>
<tbody>
<tr><td>1</td><td>Baltimore</td><td>6.3</td><td>6.1</td></tr>
<tr><td>2</td><td>Detroit</td><td>6.1</td><td>5.9</td></tr>
<tr><td>3</td><td>Carolina</td><td>--</td><td>4.2</td></tr>
</tbody>
</table>
</body></html>`

func TestParseStatTable(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(statTableHTML))
	require.NoError(t, err)

	stats, err := parseStatTable(doc, 2024)
	require.NoError(t, err)
	require.Len(t, stats, 2) // the placeholder row is dropped

	assert.Equal(t, "Baltimore", stats[0].Team)
	assert.InDelta(t, 6.3, stats[0].Value, 1e-9)
	assert.Equal(t, 2024, stats[0].Season)
	assert.Equal(t, "Detroit", stats[1].Team)
}

func TestParseStatTableEmpty(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)

	_, err = parseStatTable(doc, 2024)
	assert.Error(t, err)
}
