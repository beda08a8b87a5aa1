package exposition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_FamiliesInCallOrder(t *testing.T) {
	out, err := Encode(
		Counter("zeta_total", "Last alphabetically, first in output.", 3),
		GaugeVec("alpha_ratio", "Labeled gauge.", "type", []LabeledValue{
			{Label: "b", Value: 0.5},
			{Label: "a", Value: 2},
		}),
	)
	require.NoError(t, err)

	want := "# HELP zeta_total Last alphabetically, first in output.\n" +
		"# TYPE zeta_total counter\n" +
		"zeta_total 3\n" +
		"\n" +
		"# HELP alpha_ratio Labeled gauge.\n" +
		"# TYPE alpha_ratio gauge\n" +
		"alpha_ratio{type=\"b\"} 0.5\n" +
		"alpha_ratio{type=\"a\"} 2\n"
	assert.Equal(t, want, out)
}

func TestEncode_EscapesLabelValues(t *testing.T) {
	out, err := Encode(CounterVec("hits", "Hits.", "page", []LabeledValue{
		{Label: `say "hi"`, Value: 1},
	}))
	require.NoError(t, err)
	assert.Contains(t, out, `hits{page="say \"hi\""} 1`)
}

func TestEncode_Empty(t *testing.T) {
	out, err := Encode()
	require.NoError(t, err)
	assert.Empty(t, out)
}
