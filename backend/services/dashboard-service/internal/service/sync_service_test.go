package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"tempdash/backend/services/dashboard-service/internal/ingest"
	"tempdash/backend/services/dashboard-service/internal/models"
	"tempdash/backend/services/dashboard-service/internal/repository"
)

const header = "id,room_id/id,noted_date,temp,out/in\n"

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "readings.csv")
	content := header + strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func newSync(store repository.ReadingStore, path string) *SyncService {
	return NewSyncService(store, nil, path, ',', zap.NewNop())
}

func TestSyncScenarioWithStoredAndRepeatedIDs(t *testing.T) {
	store := newFakeStore("A1")
	path := writeCSV(t,
		"A1,Room 1,08-12-2018 09:30,29,In",
		"A2,Room 1,08-12-2018 09:31,30,In",
		"A2,Room 2,08-12-2018 09:32,31,Out",
		"A3,Room 2,08-12-2018 09:33,32,Out",
	)

	report, err := newSync(store, path).Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.RowsRead != 4 || report.AlreadyPresent != 1 || report.Inserted != 2 || report.DuplicatesInBatch != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.RowsRead != report.AlreadyPresent+report.DuplicatesInBatch+report.Inserted {
		t.Fatalf("counts do not add up: %+v", report)
	}

	ids := store.ids()
	sort.Strings(ids)
	if strings.Join(ids, ",") != "A1,A2,A3" {
		t.Fatalf("unexpected stored ids %v", ids)
	}
	if store.rows["A2"].DeviceID != "Room 1" {
		t.Fatalf("expected first A2 occurrence to win, got %+v", store.rows["A2"])
	}
}

func TestSyncCountsAddUpWithoutDuplicates(t *testing.T) {
	store := newFakeStore("B2")
	path := writeCSV(t,
		"B1,Room 1,08-12-2018 09:30,29,In",
		"B2,Room 1,08-12-2018 09:31,30,In",
		"B3,Room 1,08-12-2018 09:32,31,In",
	)
	report, err := newSync(store, path).Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.RowsRead != report.AlreadyPresent+report.Inserted || report.DuplicatesInBatch != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestSyncTwiceIsIdempotent(t *testing.T) {
	store := newFakeStore()
	path := writeCSV(t,
		"C1,Room 1,08-12-2018 09:30,29,In",
		"C2,Room 1,08-12-2018 09:31,30,In",
	)
	svc := newSync(store, path)

	first, err := svc.Sync(context.Background())
	if err != nil || first.Inserted != 2 {
		t.Fatalf("first sync: %+v %v", first, err)
	}
	second, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.Inserted != 0 || second.AlreadyPresent != 2 {
		t.Fatalf("expected nothing new on second pass, got %+v", second)
	}
	if store.appendCalls != 1 {
		t.Fatalf("expected a single append call, got %d", store.appendCalls)
	}
}

func TestSyncSkipsUnparseableTimestamps(t *testing.T) {
	store := newFakeStore()
	path := writeCSV(t,
		"D1,Room 1,08-12-2018 09:30,29,In",
		"D2,Room 1,,30,In",
		"D3,Room 1,yesterday-ish,30,In",
	)
	report, err := newSync(store, path).Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.RowsRead != 1 || report.Inserted != 1 || report.Skipped != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if ids := store.ids(); len(ids) != 1 || ids[0] != "D1" {
		t.Fatalf("unexpected stored ids %v", ids)
	}
}

func TestSyncHeaderOnlyFileIssuesNoAppend(t *testing.T) {
	store := newFakeStore()
	report, err := newSync(store, writeCSV(t)).Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Inserted != 0 || report.RowsRead != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if store.appendCalls != 0 {
		t.Fatalf("expected no append call, got %d", store.appendCalls)
	}
}

func TestSyncMissingFileIsSourceUnavailable(t *testing.T) {
	store := newFakeStore()
	_, err := newSync(store, filepath.Join(t.TempDir(), "missing.csv")).Sync(context.Background())
	if !errors.Is(err, ingest.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if errors.Is(err, ErrSyncFailed) {
		t.Fatalf("source errors must not be reported as sync failures")
	}
}

func TestSyncConstraintViolationSurfacesAsSyncFailed(t *testing.T) {
	store := newFakeStore()
	store.appendErr = repository.ErrConstraintViolation
	path := writeCSV(t, "E1,Room 1,08-12-2018 09:30,29,In")

	svc := newSync(store, path)
	_, err := svc.Sync(context.Background())
	if !errors.Is(err, ErrSyncFailed) {
		t.Fatalf("expected ErrSyncFailed, got %v", err)
	}
	if !errors.Is(err, repository.ErrConstraintViolation) {
		t.Fatalf("expected cause to be kept, got %v", err)
	}
	if store.appendCalls != 1 {
		t.Fatalf("append must not be retried, got %d calls", store.appendCalls)
	}
	if _, ok := svc.LastReport(); ok {
		t.Fatalf("failed pass must not be recorded as last report")
	}
}

func TestSyncExistingIDsFailure(t *testing.T) {
	store := newFakeStore()
	store.existingErr = errors.New("connection refused")
	path := writeCSV(t, "F1,Room 1,08-12-2018 09:30,29,In")

	_, err := newSync(store, path).Sync(context.Background())
	if !errors.Is(err, ErrSyncFailed) {
		t.Fatalf("expected ErrSyncFailed, got %v", err)
	}
	if store.appendCalls != 0 {
		t.Fatalf("append must not run after failed id read")
	}
}

func TestSyncHooksAndLastReport(t *testing.T) {
	store := newFakeStore()
	path := writeCSV(t, "G1,Room 1,08-12-2018 09:30,29,In")
	svc := newSync(store, path)

	var got []models.SyncReport
	svc.OnSynced(func(ctx context.Context, report models.SyncReport) {
		got = append(got, report)
	})

	report, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(got) != 1 || got[0].Inserted != 1 {
		t.Fatalf("expected hook with report, got %+v", got)
	}
	last, ok := svc.LastReport()
	if !ok || last.Inserted != report.Inserted || last.Source != path {
		t.Fatalf("unexpected last report %+v", last)
	}
}

func TestDeduplicate(t *testing.T) {
	batch := []models.Reading{{RecordID: "x"}, {RecordID: "y"}, {RecordID: "y"}, {RecordID: "x"}, {RecordID: "z"}}
	fresh, present, dups := Deduplicate(batch, map[string]struct{}{"x": {}})
	if present != 2 || dups != 1 || len(fresh) != 2 {
		t.Fatalf("unexpected dedup result fresh=%v present=%d dups=%d", fresh, present, dups)
	}
	if fresh[0].RecordID != "y" || fresh[1].RecordID != "z" {
		t.Fatalf("unexpected order %v", fresh)
	}
}

type blockingStore struct {
	*fakeStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	close(s.entered)
	<-s.release
	return s.fakeStore.ExistingIDs(ctx)
}

func TestLastReportDoesNotWaitForRunningPass(t *testing.T) {
	store := &blockingStore{fakeStore: newFakeStore(), entered: make(chan struct{}), release: make(chan struct{})}
	svc := newSync(store, writeCSV(t, "E1,Room 1,08-12-2018 09:30,29,In"))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Sync(context.Background())
		done <- err
	}()
	<-store.entered

	lookup := make(chan bool, 1)
	go func() {
		_, ok := svc.LastReport()
		svc.OnSynced(func(context.Context, models.SyncReport) {})
		lookup <- ok
	}()
	select {
	case ok := <-lookup:
		if ok {
			t.Fatalf("no pass has finished yet")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("LastReport blocked behind the running pass")
	}

	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("sync: %v", err)
	}
	if _, ok := svc.LastReport(); !ok {
		t.Fatalf("expected report after the pass")
	}
}
