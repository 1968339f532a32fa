package testutil

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// CounterValue 读取注册器中匹配标签的计数器值，未找到返回 0
func CounterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	m := find(t, reg, name, labels)
	return m.GetCounter().GetValue()
}

// GaugeValue 读取注册器中的 Gauge 值，未找到返回 0
func GaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	m := find(t, reg, name, nil)
	return m.GetGauge().GetValue()
}

func find(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					matched = false
				}
			}
			if matched {
				return m
			}
		}
	}
	return nil
}
