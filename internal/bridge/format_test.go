package bridge

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMetrics() Metrics {
	return Metrics{
		Realtime: Realtime{ActiveUsers: 5, PageViews: 12},
		Daily: Daily{
			Users: 80, PageViews: 200, Sessions: 95, BounceRate: 0.35,
			DemoClicks:      DemoClicks{Chat: 7, Dashboard: 3},
			UniqueCountries: 11,
		},
		Weekly:      Weekly{Users: 500, PageViews: 1400, Sessions: 620},
		Performance: Performance{AvgPageLoadMillis: 1234.5, AvgSessionSeconds: 95},
		Engagement:  Engagement{ContactSubmissions: 2, ProjectViews: 40, PagesPerSession: 2.5},
		LastUpdated: time.Unix(1760860800, 0),
		Source:      ModeSimulated,
	}
}

func TestFormatExposition_FamilyOrder(t *testing.T) {
	out, err := FormatExposition(sampleMetrics())
	require.NoError(t, err)

	var order []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "# TYPE ") {
			order = append(order, strings.Fields(line)[2])
		}
	}
	assert.Equal(t, []string{
		"ga4_active_users",
		"ga4_realtime_page_views",
		"ga4_daily_users",
		"ga4_daily_page_views",
		"ga4_daily_sessions",
		"ga4_bounce_rate",
		"ga4_demo_clicks",
		"ga4_unique_countries",
		"ga4_weekly_users",
		"ga4_weekly_page_views",
		"ga4_weekly_sessions",
		"ga4_performance_metrics",
		"ga4_engagement_metrics",
		"ga4_last_updated_timestamp",
	}, order)
}

func TestFormatExposition_Values(t *testing.T) {
	out, err := FormatExposition(sampleMetrics())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# ga4 source: simulated\n"))
	for _, line := range []string{
		"ga4_active_users 5",
		"ga4_bounce_rate 0.35",
		`ga4_demo_clicks{demo_type="chat"} 7`,
		`ga4_demo_clicks{demo_type="dashboard"} 3`,
		`ga4_performance_metrics{type="avg_page_load_ms"} 1234.5`,
		`ga4_engagement_metrics{type="pages_per_session"} 2.5`,
		"ga4_last_updated_timestamp 1.7608608e+09",
	} {
		assert.Contains(t, out, line+"\n")
	}
	// 每个指标族前都有 HELP/TYPE，族之间空行分隔
	assert.Equal(t, 14, strings.Count(out, "# HELP "))
	assert.Equal(t, 13, strings.Count(out, "\n\n# HELP "))
}

func TestFormatExposition_IsPure(t *testing.T) {
	m := sampleMetrics()
	a, err := FormatExposition(m)
	require.NoError(t, err)
	b, err := FormatExposition(m)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFormatExposition_ZeroValue(t *testing.T) {
	out, err := FormatExposition(Metrics{})
	require.NoError(t, err)
	assert.Contains(t, out, "ga4_last_updated_timestamp 0\n")
	assert.Contains(t, out, "# ga4 source: simulated\n")
}
