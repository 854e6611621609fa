package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudocarlos/tailrelay-composetest/internal/domain"
	"github.com/sudocarlos/tailrelay-composetest/internal/infra"
)

func TestDefaultProbes(t *testing.T) {
	cfg := testConfig()
	cfg.Host = "relay"
	cfg.Domain = "example.ts.net"

	assert.Equal(t, []domain.ProbeSpec{
		{Target: "http://relay:8080", Description: "Health / 8080"},
		{Target: "http://relay:8081", Description: "Health / 8081"},
		{Target: "https://relay.example.ts.net:8443", Description: "TLS / 8443"},
		{Target: "http://relay:9002/healthz", Description: "Health endpoint / 9002"},
		{Target: "http://relay:9002/metrics", Description: "Metrics endpoint / 9002"},
	}, DefaultProbes(cfg))
}

func TestRunProbes_PreservesOrderAndLength(t *testing.T) {
	specs := []domain.ProbeSpec{
		{Target: "http://c", Description: "c"},
		{Target: "http://a", Description: "a"},
		{Target: "http://c", Description: "c"},
		{Target: "http://b", Description: "b"},
	}
	exec := newFakeExecutor().on("curl -sSL http://a", domain.CommandResult{ExitCode: 6})
	logger, _ := test.NewNullLogger()

	outcomes := NewProbeRunner(exec, logger).RunProbes(context.Background(), specs, 5*time.Second)

	require.Len(t, outcomes, len(specs))
	for i, spec := range specs {
		assert.Equal(t, spec.Target, outcomes[i].Target)
		assert.Equal(t, spec.Description, outcomes[i].Description)
	}
	assert.Equal(t, domain.StatusFailure, outcomes[1].Status)
	assert.Equal(t, 6, outcomes[1].ExitCode)
	assert.Equal(t, domain.StatusSuccess, outcomes[0].Status)

	for _, c := range exec.calls {
		assert.Equal(t, 5*time.Second, c.timeout)
		assert.Equal(t, "curl", c.argv[0])
		assert.Equal(t, "-sSL", c.argv[1])
	}
}

func TestCurls_StopStartingAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	specs := []domain.ProbeSpec{
		{Target: "http://c", Description: "c"},
		{Target: "http://a", Description: "a"},
		{Target: "http://b", Description: "b"},
	}
	exec := newFakeExecutor().after("curl -sSL http://a", cancel)
	logger, _ := test.NewNullLogger()

	outcomes := NewProbeRunner(exec, logger).RunProbes(ctx, specs, time.Second)

	assert.Equal(t, []string{"curl -sSL http://c", "curl -sSL http://a"}, exec.commands())
	require.Len(t, outcomes, len(specs))
	assert.Equal(t, "http://b", outcomes[2].Target)
	assert.Equal(t, domain.StatusFailure, outcomes[2].Status)
	assert.Equal(t, domain.InterruptedExitCode, outcomes[2].ExitCode)
}

func TestRunProbes_Empty(t *testing.T) {
	logger, _ := test.NewNullLogger()
	outcomes := NewProbeRunner(newFakeExecutor(), logger).RunProbes(context.Background(), nil, time.Second)
	assert.NotNil(t, outcomes)
	assert.Empty(t, outcomes)
}

func requireCurl(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("curl"); err != nil {
		t.Skip("curl not available")
	}
}

func TestRunProbes_RealCurl(t *testing.T) {
	requireCurl(t)

	ok := httptest.NewServer(httphelpers.HandlerWithStatus(200))
	defer ok.Close()

	// curl without -f exits 0 on HTTP errors; only transport failures count.
	broken := httptest.NewServer(httphelpers.HandlerWithStatus(500))
	defer broken.Close()

	closed := httptest.NewServer(httphelpers.HandlerWithStatus(200))
	closedURL := closed.URL
	closed.Close()

	stall := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-stall
	}))
	defer slow.Close()
	defer close(stall)

	specs := []domain.ProbeSpec{
		{Target: ok.URL, Description: "ok"},
		{Target: broken.URL, Description: "http 500"},
		{Target: closedURL, Description: "refused"},
		{Target: slow.URL, Description: "stalled"},
	}

	logger, _ := test.NewNullLogger()
	runner := NewProbeRunner(infra.NewCommandRunner(logger), logger)

	started := time.Now()
	outcomes := runner.RunProbes(context.Background(), specs, 500*time.Millisecond)
	elapsed := time.Since(started)

	require.Len(t, outcomes, 4)
	assert.Equal(t, domain.StatusSuccess, outcomes[0].Status)
	assert.Equal(t, domain.StatusSuccess, outcomes[1].Status)
	assert.Equal(t, domain.StatusFailure, outcomes[2].Status)
	assert.Equal(t, domain.StatusFailure, outcomes[3].Status)
	assert.Equal(t, domain.TimeoutExitCode, outcomes[3].ExitCode)
	assert.Less(t, int64(elapsed), int64(10*time.Second))
}
