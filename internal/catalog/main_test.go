package catalog

import (
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/atacadocell/backend-atacado/internal/obs"
)

func TestMain(m *testing.M) {
	obs.MustRegisterDomainMetrics("atacado_test", prometheus.NewRegistry())
	os.Exit(m.Run())
}
