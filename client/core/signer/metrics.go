package signer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 签名器指标
//
// 仅统计操作次数与设备往返耗时，不记录路径或任何密钥材料。
// nil 接收者安全，未注入指标时为空操作。
type Metrics struct {
	deviceRequests *prometheus.CounterVec
	deviceSeconds  prometheus.Histogram
}

// NewMetrics 创建并注册签名器指标
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		deviceRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glacier_signer_device_requests_total",
				Help: "Device proxy requests by operation and result",
			},
			[]string{"op", "result"},
		),
		deviceSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "glacier_signer_device_seconds",
				Help:    "Device proxy round-trip duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
	}

	if err := reg.Register(m.deviceRequests); err != nil {
		return nil, err
	}
	if err := reg.Register(m.deviceSeconds); err != nil {
		return nil, err
	}
	return m, nil
}

// observeDevice 记录一次设备往返
func (m *Metrics) observeDevice(op DeviceOp, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.deviceRequests.WithLabelValues(string(op), result).Inc()
	m.deviceSeconds.Observe(elapsed.Seconds())
}
