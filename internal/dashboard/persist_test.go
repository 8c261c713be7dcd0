package dashboard

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"gridScope/internal/model"
)

func TestFileStateStoreRoundTrip(t *testing.T) {
	store := &FileStateStore{Path: filepath.Join(t.TempDir(), "state", "dashboard.json")}

	if _, ok, err := store.Load(context.Background()); err != nil || ok {
		t.Fatalf("missing file should load empty, got ok=%v err=%v", ok, err)
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fields := map[string]Field{
		"currentPrice": {Value: "1.5 ETH", Raw: "1500000000000000000", UpdatedAt: at},
		"gridSize":     {Value: "10", Raw: "10", UpdatedAt: at},
	}
	if err := store.Save(context.Background(), fields); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, ok, err := store.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("Load error: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(loaded, fields) {
		t.Fatalf("unexpected fields: %+v", loaded)
	}
}

func TestFileStateStoreConcurrentSaves(t *testing.T) {
	dir := t.TempDir()
	store := &FileStateStore{Path: filepath.Join(dir, "dashboard.json")}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Payload sizes differ so a torn write would leave trailing garbage.
			fields := make(map[string]Field, i+1)
			for j := 0; j <= i; j++ {
				key := fmt.Sprintf("field%02d", j)
				fields[key] = Field{Value: strings.Repeat("x", i*10), Raw: key}
			}
			errs <- store.Save(context.Background(), fields)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}

	loaded, ok, err := store.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("Load after concurrent saves: ok=%v err=%v", ok, err)
	}
	n := len(loaded)
	if n == 0 || n > 32 {
		t.Fatalf("unexpected field count %d", n)
	}
	want := strings.Repeat("x", (n-1)*10)
	for key, f := range loaded {
		if f.Value != want || f.Raw != key {
			t.Fatalf("mixed payloads in saved state: %s=%+v", key, f)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestRestoreKeepsFreshValues(t *testing.T) {
	dir := t.TempDir()
	store := &FileStateStore{Path: filepath.Join(dir, "dashboard.json")}
	old := time.Unix(100, 0).UTC()
	if err := store.Save(context.Background(), map[string]Field{
		"currentPrice": {Value: "1 ETH", Raw: "1000000000000000000", UpdatedAt: old},
		"lowerPrice":   {Value: "0.5 ETH", Raw: "500000000000000000", UpdatedAt: old},
	}); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	state := NewState()
	state.Apply(model.Snapshot{
		FinishedAt: time.Unix(200, 0),
		Readings:   []model.MetricReading{{Field: "currentPrice", Raw: "2", Display: "fresh", Status: model.ReadingOK}},
	})
	if err := Restore(context.Background(), state, store); err != nil {
		t.Fatalf("Restore error: %v", err)
	}

	if f, _ := state.Get("currentPrice"); f.Value != "fresh" {
		t.Fatalf("restore overwrote a fresh value: %+v", f)
	}
	if f, ok := state.Get("lowerPrice"); !ok || f.Value != "0.5 ETH" {
		t.Fatalf("lowerPrice not restored: %+v", f)
	}
}

type fakeReadings struct {
	readings []model.MetricReading
	at       time.Time
	contract string
}

func (f *fakeReadings) LatestReadings(_ context.Context, contract string) ([]model.MetricReading, time.Time, error) {
	f.contract = contract
	return f.readings, f.at, nil
}

func TestDBStateStoreLoad(t *testing.T) {
	at := time.Unix(300, 0).UTC()
	source := &fakeReadings{
		at:       at,
		readings: []model.MetricReading{{Field: "upperPrice", Raw: "3000000000000000000", Display: "3 ETH", Status: model.ReadingOK}},
	}
	store := &DBStateStore{Source: source, Contract: "0xabc"}

	fields, ok, err := store.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("Load error: ok=%v err=%v", ok, err)
	}
	if source.contract != "0xabc" {
		t.Fatalf("unexpected contract %q", source.contract)
	}
	want := map[string]Field{"upperPrice": {Value: "3 ETH", Raw: "3000000000000000000", UpdatedAt: at}}
	if !reflect.DeepEqual(fields, want) {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestServiceSavesStateAfterRefresh(t *testing.T) {
	store := &FileStateStore{Path: filepath.Join(t.TempDir(), "dashboard.json")}
	source := &fakeSource{values: map[string]*big.Int{}}
	svc := NewService(NewReader(ReaderConfig{}, source, zap.NewNop()), nil, nil, zap.NewNop()).WithStateStore(store)

	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	fields, ok, err := store.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("state not saved: ok=%v err=%v", ok, err)
	}
	if len(fields) != len(Metrics) {
		t.Fatalf("expected %d saved fields, got %d", len(Metrics), len(fields))
	}
}
