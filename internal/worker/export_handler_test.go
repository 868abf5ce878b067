package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pagecraft/internal/builder"
	"pagecraft/internal/persist"
	"pagecraft/internal/storage"
)

func seedProject(t *testing.T, port persist.Port, projectID string) {
	t.Helper()
	raw, err := json.Marshal(builder.Project{ID: projectID, Name: "Landing"})
	if err != nil {
		t.Fatalf("marshal project: %v", err)
	}
	if err := port.Save(context.Background(), persist.KeyCurrentProject, raw); err != nil {
		t.Fatalf("seed project: %v", err)
	}
}

func TestBuildEnvelopeFromPort(t *testing.T) {
	port := persist.NewMemory()
	seedProject(t, port, "proj_1")

	raw, err := json.Marshal([]builder.Template{{ID: "tpl_1", Name: "Generated"}})
	if err != nil {
		t.Fatalf("marshal templates: %v", err)
	}
	if err := port.Save(context.Background(), persist.KeyDynamicTemplates, raw); err != nil {
		t.Fatalf("seed templates: %v", err)
	}

	h := &ExportTaskHandler{port: port}
	envelope, err := h.buildEnvelope(context.Background(), "proj_1")
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if envelope.Project.ID != "proj_1" {
		t.Fatalf("project id = %q", envelope.Project.ID)
	}
	if envelope.Version != builder.ExportVersion {
		t.Fatalf("version = %q", envelope.Version)
	}
	if len(envelope.DynamicTemplates) != 1 || envelope.DynamicTemplates[0].ID != "tpl_1" {
		t.Fatalf("dynamic templates = %+v", envelope.DynamicTemplates)
	}
	// no persisted components: the collection defaults to empty, not nil
	if envelope.DynamicComponents == nil {
		t.Fatalf("dynamic components should default to an empty slice")
	}
	if envelope.ExportedAt.IsZero() {
		t.Fatalf("exported at not stamped")
	}
}

func TestBuildEnvelopeStaleProject(t *testing.T) {
	port := persist.NewMemory()
	seedProject(t, port, "proj_new")

	h := &ExportTaskHandler{port: port}
	if _, err := h.buildEnvelope(context.Background(), "proj_old"); !errors.Is(err, errStaleProject) {
		t.Fatalf("expected stale project error, got %v", err)
	}
}

func TestBuildEnvelopeMissingState(t *testing.T) {
	h := &ExportTaskHandler{port: persist.NewMemory()}
	if _, err := h.buildEnvelope(context.Background(), "proj_1"); !errors.Is(err, persist.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestArchivesToPruneKeepsNewest(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	objects := []storage.ObjectMeta{
		{Key: "exports/p/old.json", LastModified: base},
		{Key: "exports/p/oldest.json", LastModified: base.Add(-time.Hour)},
		{Key: "exports/p/current.json", LastModified: base.Add(2 * time.Hour)},
		{Key: "exports/p/recent.json", LastModified: base.Add(time.Hour)},
	}

	stale := archivesToPrune(objects, 2, "exports/p/current.json")
	if len(stale) != 2 {
		t.Fatalf("stale = %v", stale)
	}
	if stale[0] != "exports/p/old.json" || stale[1] != "exports/p/oldest.json" {
		t.Fatalf("stale = %v", stale)
	}
}

func TestArchivesToPruneSparesCurrentKey(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	// clock skew: the just-uploaded object carries the oldest timestamp
	objects := []storage.ObjectMeta{
		{Key: "exports/p/current.json", LastModified: base.Add(-time.Hour)},
		{Key: "exports/p/a.json", LastModified: base},
		{Key: "exports/p/b.json", LastModified: base.Add(time.Minute)},
	}

	stale := archivesToPrune(objects, 1, "exports/p/current.json")
	if len(stale) != 1 || stale[0] != "exports/p/a.json" {
		t.Fatalf("stale = %v", stale)
	}
}

func TestNotifyNamesAgree(t *testing.T) {
	if got := NotifyChannel("proj_1"); got != "builder_notify:proj_1" {
		t.Fatalf("notify channel = %q", got)
	}
	if got := LatestArchiveKey("proj_1"); got != "export_archive:proj_1" {
		t.Fatalf("latest archive key = %q", got)
	}
	if got := ArchivePrefix("proj_1"); got != "exports/proj_1/" {
		t.Fatalf("archive prefix = %q", got)
	}
}

func TestIsFinalAsynqAttemptOutsideTask(t *testing.T) {
	if isFinalAsynqAttempt(context.Background()) {
		t.Fatalf("plain context must not look like a final attempt")
	}
}
