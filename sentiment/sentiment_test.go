package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/grcdesk/ticket"
)

func TestLexiconScore(t *testing.T) {
	cases := []struct {
		name  string
		desc  string
		score float64
		label string
	}{
		{"outage", "Major outage in the data center", -0.9, LabelNegative},
		{"failure", "Job failed overnight", -0.5, LabelNegative},
		{"urgent", "urgent please review", -0.3, LabelNegative},
		{"gratitude", "Thank you, works great now", 0.5, LabelPositive},
		{"neutral", "Please update the owner field", 0, LabelNeutral},
		{"clamped", "urgent outage with failure and errors everywhere", -1, LabelNegative},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, label, _ := lexiconScore(tc.desc)
			if score != tc.score {
				t.Errorf("score = %v, want %v", score, tc.score)
			}
			if label != tc.label {
				t.Errorf("label = %q, want %q", label, tc.label)
			}
		})
	}
}

func TestAnalyzeWithoutClassifier(t *testing.T) {
	a := NewAnalyzer(nil, nil)
	res := a.Analyze(context.Background(), &ticket.Ticket{
		ID:          "T-1",
		Title:       "Payroll export",
		Description: "The payroll export failed with an error",
		Priority:    ticket.PriorityHigh,
	})
	if res.Score != -0.5 {
		t.Fatalf("Score = %v, want -0.5", res.Score)
	}
	if res.Evaluation.Label != LabelNegative {
		t.Fatalf("Label = %q, want %q", res.Evaluation.Label, LabelNegative)
	}
	if res.IsAnomaly {
		t.Fatal("high priority negative ticket should not be anomalous")
	}
}

func TestAnalyzePrefersClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/classify" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req classifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Input == "" {
			t.Error("empty input")
		}
		json.NewEncoder(w).Encode(Result{Label: "NEGATIVE", Score: 0.85})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Endpoint: srv.URL, Model: "polarity-v1"})
	a := NewAnalyzer(c, nil)
	res := a.Analyze(context.Background(), &ticket.Ticket{
		ID:          "T-2",
		Description: "Everything is broken again",
		Priority:    ticket.PriorityHigh,
	})
	if res.Score != -0.85 {
		t.Fatalf("Score = %v, want -0.85", res.Score)
	}
	if res.Evaluation.Label != LabelNegative {
		t.Fatalf("Label = %q", res.Evaluation.Label)
	}
	if res.Evaluation.Confidence != 0.85 {
		t.Fatalf("Confidence = %v, want 0.85", res.Evaluation.Confidence)
	}
}

func TestAnalyzeFallsBackOnClassifierError(t *testing.T) {
	a := NewAnalyzer(failingClassifier{}, nil)
	res := a.Analyze(context.Background(), &ticket.Ticket{
		ID:          "T-3",
		Description: "Service outage since midnight",
		Priority:    ticket.PriorityCritical,
	})
	if res.Score != -0.9 {
		t.Fatalf("Score = %v, want lexicon -0.9", res.Score)
	}
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string) (Result, error) {
	return Result{}, errors.New("model server down")
}

func TestAnomalyToneMismatch(t *testing.T) {
	a := NewAnalyzer(nil, nil)
	res := a.Analyze(context.Background(), &ticket.Ticket{
		ID:          "T-4",
		Description: "Complete outage of the billing system",
		Priority:    ticket.PriorityLow,
	})
	if !res.IsAnomaly {
		t.Fatal("strongly negative Low ticket should be anomalous")
	}
}

func TestAnomalyExecutiveMention(t *testing.T) {
	a := NewAnalyzer(nil, nil)
	res := a.Analyze(context.Background(), &ticket.Ticket{
		ID:          "T-5",
		Description: "The CFO needs this report by Monday",
		Priority:    ticket.PriorityHigh,
	})
	if !res.IsAnomaly {
		t.Fatal("executive mention should be anomalous")
	}
}

func TestAnomalyErrorCodeBurst(t *testing.T) {
	a := NewAnalyzer(nil, nil)
	res := a.Analyze(context.Background(), &ticket.Ticket{
		ID:          "T-6",
		Description: "Jobs raised ORA-600, ORA-7445 and SAP-1234 within an hour",
		Priority:    ticket.PriorityHigh,
	})
	if len(res.Entities.ErrorCodes) != 3 {
		t.Fatalf("ErrorCodes = %v, want 3 codes", res.Entities.ErrorCodes)
	}
	if !res.IsAnomaly {
		t.Fatal("more than two error codes should be anomalous")
	}
}

func TestExtractEntities(t *testing.T) {
	e := Extract("User u1234567 hit ABC-12345 in SAP; contact jane.doe@example.com. ABC-12345 repeated.")
	if len(e.ErrorCodes) != 1 || e.ErrorCodes[0] != "ABC-12345" {
		t.Errorf("ErrorCodes = %v, want [ABC-12345]", e.ErrorCodes)
	}
	wantUsers := []string{"u1234567", "jane.doe@example.com"}
	if len(e.UserIDs) != 2 || e.UserIDs[0] != wantUsers[0] || e.UserIDs[1] != wantUsers[1] {
		t.Errorf("UserIDs = %v, want %v", e.UserIDs, wantUsers)
	}
	if len(e.SystemNames) != 1 || e.SystemNames[0] != "SAP" {
		t.Errorf("SystemNames = %v, want [SAP]", e.SystemNames)
	}
}

func TestExtractEmpty(t *testing.T) {
	e := Extract("nothing notable here")
	if e.ErrorCodes != nil || e.UserIDs != nil || e.SystemNames != nil {
		t.Errorf("Extract = %+v, want all empty", e)
	}
}
