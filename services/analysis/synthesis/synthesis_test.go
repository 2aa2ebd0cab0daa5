package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/intelfuse/warroom/services/analysis/config"
	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/llm"
)

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
		t.Fatal(err)
	}
	return tables
}

func referenceRecords() map[datatypes.Domain]datatypes.SignalRecord {
	return map[datatypes.Domain]datatypes.SignalRecord{
		datatypes.DomainMarket:   {Domain: datatypes.DomainMarket, SubScore: 70},
		datatypes.DomainMovement: {Domain: datatypes.DomainMovement, SubScore: 62},
		datatypes.DomainMedia:    {Domain: datatypes.DomainMedia, SubScore: 55},
		datatypes.DomainImagery:  {Domain: datatypes.DomainImagery, SubScore: 20},
		datatypes.DomainSocial:   {Domain: datatypes.DomainSocial, SubScore: 30},
	}
}

func TestSynthesizeUsesModelVerdict(t *testing.T) {
	client := &fakeLLM{invoke: func(ctx context.Context, req llm.InvokeRequest) (string, error) {
		if !strings.Contains(req.System, "senior intelligence analyst") {
			t.Errorf("system prompt = %q", req.System)
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(req.User), &payload); err != nil {
			t.Fatalf("analyst context is not JSON: %v", err)
		}
		if payload["composite_score"].(float64) != 49.5 {
			t.Errorf("composite_score = %v", payload["composite_score"])
		}
		return `{
			"escalation_score": 55,
			"threat_level": "HIGH",
			"key_findings": ["Surveillance surge east of the strait"],
			"scenarios": [{"description": "Limited exchange within 30 days", "probability": 0.35}],
			"summary": "Activity is trending up."
		}`, nil
	}}

	s := New(client, testTables(t))
	a, err := s.Synthesize(context.Background(), "iran", referenceRecords())
	if err != nil {
		t.Fatal(err)
	}

	// The composite is the deterministic weighted sum; the model's own
	// escalation_score is ignored.
	if a.CompositeScore != 49.5 {
		t.Errorf("composite = %v, want 49.5", a.CompositeScore)
	}
	if a.ThreatLevel != datatypes.ThreatHigh {
		t.Errorf("threat level = %s", a.ThreatLevel)
	}
	if len(a.KeyFindings) != 1 || len(a.Scenarios) != 1 {
		t.Errorf("findings = %v, scenarios = %v", a.KeyFindings, a.Scenarios)
	}
	if a.ID == "" || a.GeneratedAt.IsZero() {
		t.Error("assessment identity fields not set")
	}
	if a.Conflict != "iran" {
		t.Errorf("conflict = %q", a.Conflict)
	}
}

func TestSynthesizeFallbackOnBadVerdict(t *testing.T) {
	for name, reply := range map[string]string{
		"not json":          "The situation is complicated, let me explain at length.",
		"bad threat level":  `{"threat_level":"DEFCON","key_findings":[],"scenarios":[],"summary":"x"}`,
		"probability range": `{"threat_level":"HIGH","key_findings":[],"scenarios":[{"description":"d","probability":1.5}],"summary":"x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := &fakeLLM{invoke: func(ctx context.Context, req llm.InvokeRequest) (string, error) {
				return reply, nil
			}}
			s := New(client, testTables(t))
			a, err := s.Synthesize(context.Background(), "iran", referenceRecords())
			if err != nil {
				t.Fatal(err)
			}

			if a.ThreatLevel != datatypes.ThreatElevated {
				t.Errorf("threat level = %s, want ELEVATED", a.ThreatLevel)
			}
			if len(a.KeyFindings) != 1 || a.KeyFindings[0] != "Failed to parse analyst output." {
				t.Errorf("findings = %v", a.KeyFindings)
			}
			if len(a.Scenarios) != 0 {
				t.Errorf("scenarios = %v", a.Scenarios)
			}
			if a.CompositeScore != 49.5 {
				t.Errorf("composite = %v", a.CompositeScore)
			}
		})
	}
}

func TestSynthesizeUnreachableBackendIsFatal(t *testing.T) {
	client := &fakeLLM{invoke: func(ctx context.Context, req llm.InvokeRequest) (string, error) {
		return "", fmt.Errorf("connection refused")
	}}
	s := New(client, testTables(t))

	_, err := s.Synthesize(context.Background(), "iran", referenceRecords())
	if err == nil || !strings.Contains(err.Error(), "reasoning backend unreachable") {
		t.Fatalf("err = %v", err)
	}
}

func TestSynthesizeAppendsDomainFindings(t *testing.T) {
	records := referenceRecords()

	media := records[datatypes.DomainMedia]
	media.Media = &datatypes.MediaPayload{Articles: []datatypes.Article{
		{Title: "Quiet day", Source: "AP", SentimentScore: -0.3, SentimentLabel: "DE-ESCALATORY"},
		{Title: "Missile strike", Source: "Reuters", SentimentScore: 1.0, SentimentLabel: "ESCALATORY"},
		{Title: "Talks stall", Source: "BBC", SentimentScore: 0.2, SentimentLabel: "NEUTRAL"},
		{Title: "Troops massing", Source: "AJ", SentimentScore: 0.9, SentimentLabel: "ESCALATORY"},
	}}
	records[datatypes.DomainMedia] = media

	social := records[datatypes.DomainSocial]
	social.Social = &datatypes.SocialPayload{TopSignals: []string{"sig-a", "sig-b", "sig-c", "sig-d"}}
	records[datatypes.DomainSocial] = social

	imagery := records[datatypes.DomainImagery]
	imagery.Imagery = &datatypes.ImageryPayload{Hotspots: []datatypes.ThermalAnomaly{
		{Lat: 31.5, Lon: 36.4, FRP: 1250, Type: "explosion"},
		{Lat: 30.1, Lon: 38, FRP: 150, Type: "fire"},
		{Lat: 29, Lon: 39, FRP: 90},
	}}
	records[datatypes.DomainImagery] = imagery

	client := &fakeLLM{invoke: func(ctx context.Context, req llm.InvokeRequest) (string, error) {
		return `{"threat_level":"ELEVATED","key_findings":["model finding"],"scenarios":[],"summary":"s"}`, nil
	}}
	s := New(client, testTables(t))
	a, err := s.Synthesize(context.Background(), "iran", records)
	if err != nil {
		t.Fatal(err)
	}

	// 1 model finding + 3 headlines + 3 signals + 2 hotspots.
	if len(a.KeyFindings) != 9 {
		t.Fatalf("findings = %v", a.KeyFindings)
	}
	if a.KeyFindings[0] != "model finding" {
		t.Errorf("verdict finding not first: %v", a.KeyFindings[0])
	}
	// Headlines ranked by sentiment, strongest first.
	if !strings.Contains(a.KeyFindings[1], "Missile strike [Reuters]") {
		t.Errorf("findings[1] = %q", a.KeyFindings[1])
	}
	if !strings.Contains(a.KeyFindings[2], "Troops massing") {
		t.Errorf("findings[2] = %q", a.KeyFindings[2])
	}
	if a.KeyFindings[4] != "SOCIAL – sig-a" {
		t.Errorf("findings[4] = %q", a.KeyFindings[4])
	}
	if !strings.Contains(a.KeyFindings[7], "IMAGERY (explosion)") || !strings.Contains(a.KeyFindings[7], "FRP=1250") {
		t.Errorf("findings[7] = %q", a.KeyFindings[7])
	}
	if !strings.Contains(a.KeyFindings[8], "IMAGERY (fire)") {
		t.Errorf("findings[8] = %q", a.KeyFindings[8])
	}
}
