package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecorderCounts(t *testing.T) {
	r := New("", zap.NewNop())

	r.IncPages("jihomoravsky_kraj")
	r.IncPages("jihomoravsky_kraj")
	r.IncNotices("jihomoravsky_kraj")
	r.IncDownloads("magistrat_mesta_brna")
	r.IncFailures("magistrat_mesta_brna")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.pages.WithLabelValues("jihomoravsky_kraj")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notices.WithLabelValues("jihomoravsky_kraj")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.downloads.WithLabelValues("magistrat_mesta_brna")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.uploads.WithLabelValues("magistrat_mesta_brna")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("magistrat_mesta_brna")))
}

func TestPushWithoutGatewayIsNoop(t *testing.T) {
	r := New("", zap.NewNop())
	r.IncPages("jihomoravsky_kraj")

	assert.NoError(t, r.Push(context.Background()))
}

func TestPushHitsGateway(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(srv.URL, zap.NewNop())
	r.IncDownloads("jihomoravsky_kraj")

	require.NoError(t, r.Push(context.Background()))
	assert.Equal(t, "/metrics/job/edeska_harvest", gotPath)
}
