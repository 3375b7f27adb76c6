package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("test", reg)

	m.RecordHTTPRequest("GET", "/healthz", 200, 10*time.Millisecond)
	m.RecordInviteValidation("ok")
	m.RecordGuardDecision("forbidden")
	m.RecordIdentityCache(true)
	m.InvitesCreatedTotal.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_http_requests_total")
	assert.Contains(t, names, "test_invite_validations_total")
	assert.Contains(t, names, "test_guard_decisions_total")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InviteValidationsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentityCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvitesCreatedTotal))
}

func TestNew_DefaultNamespaceWithoutRegistry(t *testing.T) {
	m := New("", nil)
	m.RecordGuardDecision("allowed")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisionsTotal.WithLabelValues("allowed")))
}
