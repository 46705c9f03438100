package core_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logredact/logredact/pkg/core"
)

func TestRedact(t *testing.T) {
	set, err := core.BuildRules("secrets", nil)
	require.NoError(t, err)

	in := strings.NewReader("Authorization: Bearer abc.def.ghi\nplain line\n")
	var out bytes.Buffer
	res, err := core.Redact(in, &out, set)
	require.NoError(t, err)

	assert.NotContains(t, out.String(), "abc.def.ghi")
	assert.Contains(t, out.String(), "plain line\n")
	assert.Equal(t, 2, res.Stats.LinesTotal)
	assert.Greater(t, res.Stats.RedactionsTotal, 0)
	assert.True(t, res.Changed)
}

func TestRedactWithReport(t *testing.T) {
	set, err := core.BuildRules("", []string{})
	require.NoError(t, err)

	in := strings.NewReader("password=hunter2\n")
	var out, rep bytes.Buffer
	res, err := core.RedactWithReport(in, &out, &rep, set)
	require.NoError(t, err)

	assert.Greater(t, res.Stats.RedactionsTotal, 0)
	assert.Contains(t, rep.String(), `"line":1`)
	assert.Contains(t, rep.String(), `"rule_id"`)
}

func TestStatsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := core.Stats{
		LinesTotal:       5,
		RedactionsTotal:  2,
		RedactionsByRule: map[string]int{"tok1": 2},
	}
	require.NoError(t, core.MarshalStats(&buf, in))

	out, err := core.UnmarshalStats(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestUnmarshalStatsNilMap(t *testing.T) {
	out, err := core.UnmarshalStats(strings.NewReader(`{"lines_total":1,"redactions_total":0}`))
	require.NoError(t, err)
	assert.NotNil(t, out.RedactionsByRule)
}
