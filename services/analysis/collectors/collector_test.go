package collectors

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/intelfuse/warroom/services/analysis/config"
	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/llm"
)

// mockHTTPClient routes requests to a handler, mirroring the injectable
// HTTPClient used by the production fetcher.
type mockHTTPClient struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func httpResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

// fakeLLM scripts the reasoning backend for collector tests.
type fakeLLM struct {
	invoke func(ctx context.Context, req llm.InvokeRequest) (string, error)
}

func (f *fakeLLM) Invoke(ctx context.Context, req llm.InvokeRequest) (string, error) {
	return f.invoke(ctx, req)
}

func (f *fakeLLM) Backend() string { return "fake" }

func testTables(t *testing.T) *config.Tables {
	t.Helper()
	tables, err := config.Default()
	if err != nil {
		t.Fatalf("loading tables: %v", err)
	}
	return tables
}

// stubCollector lets the fan-out tests script each outcome.
type stubCollector struct {
	domain  datatypes.Domain
	record  datatypes.SignalRecord
	err     error
	panics  bool
	blockus time.Duration
}

func (s *stubCollector) Domain() datatypes.Domain { return s.domain }

func (s *stubCollector) Collect(ctx context.Context, target Target) (datatypes.SignalRecord, error) {
	if s.panics {
		panic("boom")
	}
	if s.blockus > 0 {
		select {
		case <-time.After(s.blockus):
		case <-ctx.Done():
			return datatypes.SignalRecord{}, ctx.Err()
		}
	}
	return s.record, s.err
}

func TestCollectAllReturnsEveryDomain(t *testing.T) {
	set := NewSet(time.Second,
		&stubCollector{domain: datatypes.DomainMarket, record: datatypes.SignalRecord{Domain: datatypes.DomainMarket, SubScore: 70}},
		&stubCollector{domain: datatypes.DomainMovement, record: datatypes.SignalRecord{Domain: datatypes.DomainMovement, SubScore: 62}},
	)

	records := set.CollectAll(context.Background(), Target{Conflict: "iran"})
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	if records[datatypes.DomainMarket].SubScore != 70 {
		t.Errorf("market score = %v", records[datatypes.DomainMarket].SubScore)
	}
}

func TestCollectAllIsolatesFailures(t *testing.T) {
	set := NewSet(100*time.Millisecond,
		&stubCollector{domain: datatypes.DomainMarket, record: datatypes.SignalRecord{Domain: datatypes.DomainMarket, SubScore: 85}},
		&stubCollector{domain: datatypes.DomainMovement, err: errors.New("feed down")},
		&stubCollector{domain: datatypes.DomainMedia, panics: true},
		&stubCollector{domain: datatypes.DomainImagery, blockus: 5 * time.Second},
	)

	records := set.CollectAll(context.Background(), Target{Conflict: "iran"})
	if len(records) != 4 {
		t.Fatalf("got %d records", len(records))
	}

	if records[datatypes.DomainMarket].SubScore != 85 {
		t.Errorf("healthy collector result was altered: %v", records[datatypes.DomainMarket].SubScore)
	}

	movement := records[datatypes.DomainMovement]
	if movement.SubScore != datatypes.NeutralMovementScore || movement.Error == "" {
		t.Errorf("failed collector = %+v, want neutral with error", movement)
	}

	media := records[datatypes.DomainMedia]
	if media.SubScore != datatypes.NeutralMediaScore || !strings.Contains(media.Error, "panic") {
		t.Errorf("panicked collector = %+v, want neutral with panic error", media)
	}

	imagery := records[datatypes.DomainImagery]
	if imagery.SubScore != datatypes.NeutralImageryScore {
		t.Errorf("timed-out collector score = %v, want %v", imagery.SubScore, datatypes.NeutralImageryScore)
	}
}

func TestNewTargetResolvesRegionAndKeywords(t *testing.T) {
	tables := testTables(t)

	target := NewTarget("Ukraine front", tables)
	if target.RegionKey != "eastern_europe" {
		t.Errorf("region = %s", target.RegionKey)
	}
	if len(target.Keywords) == 0 {
		t.Error("keywords should not be empty")
	}

	unknown := NewTarget("border skirmish", tables)
	if unknown.RegionKey != config.DefaultRegion {
		t.Errorf("unknown conflict region = %s", unknown.RegionKey)
	}
}
