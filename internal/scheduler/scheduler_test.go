package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockCleaner struct {
	calls     int
	retention time.Duration
	deleted   int64
	err       error
}

func (m *mockCleaner) Cleanup(retention time.Duration) (int64, error) {
	m.calls++
	m.retention = retention
	return m.deleted, m.err
}

type mockReloader struct {
	calls int
	err   error
}

func (m *mockReloader) Reload(ctx context.Context) error {
	m.calls++
	return m.err
}

func TestAddDisabledJob(t *testing.T) {
	s := New(time.Second)
	if err := s.Add(JobCatalogReload, "", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Add with empty spec: %v", err)
	}
	if len(s.Jobs()) != 0 {
		t.Fatalf("disabled job should not be registered, got %v", s.Jobs())
	}
}

func TestAddInvalidSpec(t *testing.T) {
	s := New(time.Second)
	if err := s.Add(JobHistoryCleanup, "not a cron spec", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
}

func TestAddDuplicateAndNil(t *testing.T) {
	s := New(time.Second)
	noop := func(context.Context) error { return nil }
	if err := s.Add(JobHistoryCleanup, "@daily", noop); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(JobHistoryCleanup, "@hourly", noop); err == nil {
		t.Fatalf("expected error for duplicate job")
	}
	if err := s.Add("other", "@daily", nil); err == nil {
		t.Fatalf("expected error for nil job")
	}
}

func TestJobsAndNext(t *testing.T) {
	s := New(time.Second)
	noop := func(context.Context) error { return nil }
	if err := s.Add(JobHistoryCleanup, "@daily", noop); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(JobCatalogReload, "*/15 * * * *", noop); err != nil {
		t.Fatalf("Add: %v", err)
	}

	jobs := s.Jobs()
	if len(jobs) != 2 || jobs[0] != JobCatalogReload || jobs[1] != JobHistoryCleanup {
		t.Fatalf("unexpected jobs %v", jobs)
	}

	s.Start()
	defer s.Stop()

	next, ok := s.Next(JobCatalogReload)
	if !ok || next.IsZero() {
		t.Fatalf("expected a next run for %s", JobCatalogReload)
	}
	if time.Until(next) > 15*time.Minute {
		t.Errorf("next run too far away: %v", next)
	}
	if _, ok := s.Next("missing"); ok {
		t.Errorf("unexpected next run for unknown job")
	}
}

func TestRunPassesBoundedContext(t *testing.T) {
	s := New(50 * time.Millisecond)
	done := make(chan error, 1)
	err := s.Add("wait", "@daily", func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	s.run("wait")

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("job context was not bounded")
	}
}

func TestStopCancelsJobs(t *testing.T) {
	s := New(0)
	started := make(chan struct{})
	finished := make(chan struct{})
	err := s.Add("long", "@daily", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(finished)
		return nil
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	go s.run("long")
	<-started
	s.Stop()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Stop did not cancel the running job")
	}
}

func TestCleanupJob(t *testing.T) {
	c := &mockCleaner{deleted: 3}
	if err := CleanupJob(c, 48*time.Hour)(context.Background()); err != nil {
		t.Fatalf("CleanupJob: %v", err)
	}
	if c.calls != 1 || c.retention != 48*time.Hour {
		t.Errorf("unexpected cleaner state %+v", c)
	}

	c.err = errors.New("database is locked")
	if err := CleanupJob(c, time.Hour)(context.Background()); err == nil {
		t.Errorf("expected cleanup error to propagate")
	}
}

func TestCleanupJobZeroRetention(t *testing.T) {
	c := &mockCleaner{}
	if err := CleanupJob(c, 0)(context.Background()); err != nil {
		t.Fatalf("CleanupJob: %v", err)
	}
	if c.calls != 0 {
		t.Errorf("zero retention should keep history, got %d cleanup calls", c.calls)
	}
}

func TestReloadJob(t *testing.T) {
	r := &mockReloader{err: errors.New("bad csv")}
	if err := ReloadJob(r)(context.Background()); err == nil {
		t.Fatalf("expected reload error")
	}
	if r.calls != 1 {
		t.Errorf("expected 1 reload, got %d", r.calls)
	}
}
