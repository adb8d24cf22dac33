package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qslv/common-kafka/v1/observability"
	"github.com/qslv/common-kafka/v1/schema_registry"
	"github.com/qslv/common-kafka/v1/serde"
)

func TestNewMetricsDefaults(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "svc"})
	assert.Equal(t, DefaultMetricsAddress, m.Server.Addr)
	require.NotNil(t, m.Registry)
}

func TestObserveOperation(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "svc"})

	m.ObserveOperation(observability.OperationContext{
		Component: "serde",
		Operation: "serialize",
		Duration:  5 * time.Millisecond,
		Size:      128,
	})
	m.ObserveOperation(observability.OperationContext{
		Component: "serde",
		Operation: "serialize",
		Error:     errors.New("boom"),
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("serde", "serialize", statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("serde", "serialize", statusError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.operationDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.payloadBytes))
}

func TestMetricsEndpointCarriesServiceLabel(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "transfer-service", Namespace: "qslv"})
	m.ObserveOperation(observability.OperationContext{Component: "kafka", Operation: "publish"})

	rec := httptest.NewRecorder()
	m.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `qslv_operations_total{component="kafka",operation="publish",service="transfer-service",status="success"} 1`)
}

func TestCreateCustomMetrics(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "svc"})

	counter := m.CreateCounter("transfers_total", "Transfers handled", []string{"status"})
	counter.WithLabelValues("ok").Add(2)
	gauge := m.CreateGauge("lag", "Consumer lag", []string{"partition"})
	gauge.WithLabelValues("0").Set(7)
	hist := m.CreateHistogram("amount", "Transfer amounts", []string{"currency"}, []float64{1, 10, 100})
	hist.WithLabelValues("EUR").Observe(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(counter.WithLabelValues("ok")))
	assert.Equal(t, 7.0, testutil.ToFloat64(gauge.WithLabelValues("0")))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "transfers_total")
	assert.Contains(t, names, "amount")
	assert.Contains(t, names, "lag")
}

type Payment struct {
	ID     string `avro:"id"`
	Amount int64  `avro:"amount"`
}

func TestSerializerReportsToMetrics(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "svc"})
	ser, err := serde.NewSerializer(serde.Config{}, schema_registry.NewMemoryRegistry(1), serde.WithObserver(m))
	require.NoError(t, err)

	_, err = ser.Serialize(context.Background(), "payments", Payment{ID: "p-1", Amount: 10})
	require.NoError(t, err)

	var found bool
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "operations_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["component"] == "serde" && strings.HasPrefix(labels["operation"], "serialize") {
				found = true
				assert.Equal(t, statusSuccess, labels["status"])
			}
		}
	}
	assert.True(t, found)
}
