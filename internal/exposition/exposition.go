// Package exposition 构造 Prometheus 文本格式的指标族。
//
// 指标族按调用顺序逐个编码，族之间以空行分隔；不经过 Registry，
// 因为 Gatherer 会按名称重新排序。
package exposition

import (
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// LabeledValue 单标签指标的一个取值
type LabeledValue struct {
	Label string
	Value float64
}

// Counter 无标签计数器
func Counter(name, help string, value float64) *dto.MetricFamily {
	return family(name, help, dto.MetricType_COUNTER, []*dto.Metric{counter(nil, value)})
}

// Gauge 无标签仪表
func Gauge(name, help string, value float64) *dto.MetricFamily {
	return family(name, help, dto.MetricType_GAUGE, []*dto.Metric{gauge(nil, value)})
}

// CounterVec 单标签计数器，按 values 的顺序输出
func CounterVec(name, help, labelName string, values []LabeledValue) *dto.MetricFamily {
	metrics := make([]*dto.Metric, 0, len(values))
	for _, v := range values {
		metrics = append(metrics, counter(labelPair(labelName, v.Label), v.Value))
	}
	return family(name, help, dto.MetricType_COUNTER, metrics)
}

// GaugeVec 单标签仪表，按 values 的顺序输出
func GaugeVec(name, help, labelName string, values []LabeledValue) *dto.MetricFamily {
	metrics := make([]*dto.Metric, 0, len(values))
	for _, v := range values {
		metrics = append(metrics, gauge(labelPair(labelName, v.Label), v.Value))
	}
	return family(name, help, dto.MetricType_GAUGE, metrics)
}

// Encode 按顺序编码指标族，族之间插入空行
func Encode(families ...*dto.MetricFamily) (string, error) {
	var b strings.Builder
	for i, mf := range families {
		if i > 0 {
			b.WriteByte('\n')
		}
		if _, err := expfmt.MetricFamilyToText(&b, mf); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func family(name, help string, t dto.MetricType, metrics []*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   t.Enum(),
		Metric: metrics,
	}
}

func labelPair(name, value string) []*dto.LabelPair {
	return []*dto.LabelPair{{
		Name:  proto.String(name),
		Value: proto.String(value),
	}}
}

func counter(labels []*dto.LabelPair, v float64) *dto.Metric {
	return &dto.Metric{Label: labels, Counter: &dto.Counter{Value: proto.Float64(v)}}
}

func gauge(labels []*dto.LabelPair, v float64) *dto.Metric {
	return &dto.Metric{Label: labels, Gauge: &dto.Gauge{Value: proto.Float64(v)}}
}
