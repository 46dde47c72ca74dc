package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/metrics"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	return rec.Body.String()
}

func TestRecorderExportsObservations(t *testing.T) {
	r := metrics.New()
	job := jobqueue.NewResize("v", 640, 360)

	r.JobSubmitted(job)
	r.JobSubmitted(job)
	r.JobStarted(job)
	r.JobFinished(job, 2*time.Second, nil)
	r.JobFinished(job, time.Second, errors.New("boom"))
	r.QueueDepth(3)
	r.WorkerRestarted(1)

	body := scrape(t, r.Handler())
	for _, want := range []string{
		`video_editor_jobs_submitted_total 2`,
		`video_editor_jobs_total{outcome="succeeded"} 1`,
		`video_editor_jobs_total{outcome="failed"} 1`,
		`video_editor_job_duration_seconds_count 2`,
		`video_editor_queue_depth 3`,
		`video_editor_worker_restarts_total{slot="1"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q\n%s", want, body)
		}
	}
}

func TestRecordersAreIndependent(t *testing.T) {
	a := metrics.New()
	b := metrics.New()
	a.JobSubmitted(jobqueue.NewResize("v", 2, 2))
	if strings.Contains(scrape(t, b.Handler()), "video_editor_jobs_submitted_total 1") {
		t.Fatal("second recorder saw first recorder's observation")
	}
}

func TestServerServesHealthz(t *testing.T) {
	srv, err := metrics.Start("127.0.0.1:0", metrics.New(), nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected healthz response %d %q", resp.StatusCode, body)
	}
}
