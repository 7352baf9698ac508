package jobs

import (
	"testing"
	"time"

	"github.com/docpipe/docpipe/internal/sink"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewID()
		if len(id) != 26 {
			t.Fatalf("expected 26-char ULID, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("doc.txt", "doc.txt", "text/plain", []byte("x"), nil)

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusProcessing, "importing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := NewJob("err.txt", "err.txt", "", nil, nil)
	job.AddError("sink: connection refused")
	job.AddError("sink: timeout")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "sink: connection refused" {
		t.Errorf("expected first error %q, got %q", "sink: connection refused", snap.Progress.Errors[0])
	}
}

func TestJob_SetResultCountsTree(t *testing.T) {
	job := NewJob("book.pdf", "book.pdf", "", nil, nil)
	job.SetResult(&sink.Record{
		Reference: "book.pdf",
		Status:    "success",
		Children: []sink.Record{
			{Reference: "book.pdf#page1", Status: "success"},
			{Reference: "book.pdf#page2", Status: "rejected"},
			{Reference: "book.pdf#page3", Status: "error"},
		},
	})

	snap := job.Snapshot()
	if snap.Progress.Documents != 4 {
		t.Errorf("expected 4 documents, got %d", snap.Progress.Documents)
	}
	if snap.Progress.Succeeded != 2 {
		t.Errorf("expected 2 succeeded, got %d", snap.Progress.Succeeded)
	}
	if snap.Progress.Rejected != 1 {
		t.Errorf("expected 1 rejected, got %d", snap.Progress.Rejected)
	}
	if snap.Progress.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", snap.Progress.Failed)
	}
}

func TestJob_FileData(t *testing.T) {
	data := []byte("file content here")
	job := NewJob("data.txt", "data.txt", "", data, nil)
	if string(job.FileData()) != string(data) {
		t.Errorf("expected file data %q, got %q", data, job.FileData())
	}
	job.ReleaseFileData()
	if job.FileData() != nil {
		t.Error("expected file data released")
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := NewJob("snap.txt", "snap.txt", "", nil, nil)
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob("store.txt", "store.txt", "", nil, nil)
	store.Put(job)

	got := store.Get(job.ID)
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != job.ID {
		t.Errorf("expected ID %q, got %q", job.ID, got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := NewJob("old.txt", "old.txt", "", nil, nil)
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := NewJob("new.txt", "new.txt", "", nil, nil)
	store.Put(fresh)

	store.Cleanup()

	if store.Get(expired.ID) != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}

func TestJobStore_CleanupConcurrentWithUpdates(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob("busy.txt", "busy.txt", "", nil, nil)
	store.Put(job)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			job.SetStatus(StatusProcessing, "importing")
			job.AddError("transient")
		}
	}()
	for range 200 {
		store.Cleanup()
	}
	<-done

	if store.Get(job.ID) == nil {
		t.Error("expected active job to survive cleanup")
	}
}
