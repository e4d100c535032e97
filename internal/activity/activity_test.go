package activity

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "activity.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndRecent(t *testing.T) {
	l := openTestLog(t)

	l.Record(KindDraftApproved, 42, "althea", "")
	l.Record(KindAgentSwitched, 0, "sage", "from althea")
	l.Record(KindDraftDeleted, 43, "althea", "")

	got, err := l.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	// Newest first.
	if got[0].Kind != KindDraftDeleted || got[0].DraftID != 43 {
		t.Errorf("unexpected newest entry %+v", got[0])
	}
	if got[2].Kind != KindDraftApproved || got[2].DraftID != 42 {
		t.Errorf("unexpected oldest entry %+v", got[2])
	}
	if got[1].Detail != "from althea" {
		t.Errorf("detail not persisted: %+v", got[1])
	}
}

func TestRecentLimit(t *testing.T) {
	l := openTestLog(t)
	for i := 0; i < 10; i++ {
		l.Record(KindDraftApproved, int64(i), "althea", "")
	}
	got, err := l.Recent(4)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 entries, got %d", len(got))
	}
	if got[0].DraftID != 9 {
		t.Errorf("expected newest draft id 9, got %d", got[0].DraftID)
	}
}

func TestByKind(t *testing.T) {
	l := openTestLog(t)
	l.Record(KindDraftApproved, 1, "althea", "")
	l.Record(KindLogin, 0, "", "operator@trylifescribe.com")
	l.Record(KindDraftApproved, 2, "sage", "")

	got, err := l.ByKind(KindDraftApproved, 10)
	if err != nil {
		t.Fatalf("by kind: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 approvals, got %d", len(got))
	}
	for _, e := range got {
		if e.Kind != KindDraftApproved {
			t.Errorf("wrong kind %q", e.Kind)
		}
	}
}

func TestPrune(t *testing.T) {
	l := openTestLog(t)
	l.Record(KindConnectionLost, 0, "", "queue socket")

	n, err := l.Prune(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 0 {
		t.Errorf("fresh entries must survive, pruned %d", n)
	}

	n, err = l.Prune(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned entry, got %d", n)
	}
	got, _ := l.Recent(10)
	if len(got) != 0 {
		t.Errorf("expected empty log after prune, got %d", len(got))
	}
}
