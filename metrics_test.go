package tokenbridge

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	metrics := &NoopMetrics{}

	metrics.IncCounter("test_counter", map[string]string{"tag": "value"})
	metrics.ObserveHistogram("test_histogram", 1.5, map[string]string{"tag": "value"})
	metrics.SetGauge("test_gauge", 2.5, map[string]string{"tag": "value"})
}

func TestPrometheusMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	t.Run("IncCounter", func(t *testing.T) {
		tags := map[string]string{"tag1": "value1", "tag2": "value2"}

		metrics.IncCounter("test_counter", tags)
		metrics.IncCounter("test_counter", tags)

		metric := &dto.Metric{}
		err := metrics.counters["test_counter"].With(prometheus.Labels(tags)).(prometheus.Metric).Write(metric)
		require.NoError(t, err)
		assert.Equal(t, float64(2), metric.GetCounter().GetValue())
	})

	t.Run("ObserveHistogram", func(t *testing.T) {
		tags := map[string]string{"outcome": "issued"}

		metrics.ObserveHistogram("test_histogram", 2.5, tags)

		families, err := registry.Gather()
		require.NoError(t, err)
		family := findFamily(families, "test_histogram")
		require.NotNil(t, family)
		assert.Equal(t, uint64(1), family.GetMetric()[0].GetHistogram().GetSampleCount())
		assert.Equal(t, 2.5, family.GetMetric()[0].GetHistogram().GetSampleSum())
	})

	t.Run("SetGauge", func(t *testing.T) {
		tags := map[string]string{"tag1": "value1"}

		metrics.SetGauge("test_gauge", 4.5, tags)
		metrics.SetGauge("test_gauge", 3, tags)

		metric := &dto.Metric{}
		err := metrics.gauges["test_gauge"].With(prometheus.Labels(tags)).(prometheus.Metric).Write(metric)
		require.NoError(t, err)
		assert.Equal(t, float64(3), metric.GetGauge().GetValue())
	})

	t.Run("It registers on the given registry only", func(t *testing.T) {
		families, err := registry.Gather()
		require.NoError(t, err)
		assert.NotNil(t, findFamily(families, "test_counter"))
		assert.NotNil(t, findFamily(families, "test_gauge"))
	})
}

func TestKeys(t *testing.T) {
	result := keys(map[string]string{"outcome": "v", "branch": "v", "code": "v"})

	assert.Equal(t, []string{"branch", "code", "outcome"}, result)
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}
