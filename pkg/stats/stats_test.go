package stats

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestDumpMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_dumped_total",
		Help: "Test counter.",
	})
	registry.MustRegister(counter)
	counter.Inc()

	path := filepath.Join(t.TempDir(), "stats")
	require.NoError(t, DumpMetrics(registry, path))
	require.NoError(t, DumpMetrics(registry, path))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(buf), "test_dumped_total")
	require.GreaterOrEqual(t, countLines(buf), 2)
}

func TestEnableMemoryStatistics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats")
	ctx, cancel := context.WithCancel(context.Background())

	EnableMemoryStatistics(ctx, 10*time.Millisecond, path)
	time.Sleep(30 * time.Millisecond)
	cancel()

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func countLines(buf []byte) int {
	count := 0
	for _, b := range buf {
		if b == '\n' {
			count++
		}
	}
	return count
}
