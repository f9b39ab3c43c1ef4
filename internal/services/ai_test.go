package services

import (
	"strings"
	"testing"
)

func TestBuildScoringPrompt(t *testing.T) {
	req := &ScoringRequest{
		ReportText: "Closed out the migration project.",
		Criteria: []CriterionWeight{
			{Name: "Code Quality", Weight: 60},
			{Name: "Communication", Weight: 40},
		},
		Instructions:  "Focus on delivery.",
		KnowledgeBase: "Team handles the billing system.",
	}

	prompt := buildScoringPrompt(req)

	for _, want := range []string{
		"Code Quality (weight 60)",
		"Communication (weight 40)",
		"Focus on delivery.",
		"Team handles the billing system.",
		"Closed out the migration project.",
		"criteria_scores",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildScoringPrompt_OptionalSections(t *testing.T) {
	req := &ScoringRequest{
		ReportText: "text",
		Criteria:   []CriterionWeight{{Name: "a", Weight: 100}},
	}

	prompt := buildScoringPrompt(req)

	if strings.Contains(prompt, "Goal Instructions") {
		t.Error("empty instructions should not produce a section")
	}
	if strings.Contains(prompt, "Contextual Knowledge") {
		t.Error("empty knowledge base should not produce a section")
	}
}

func TestParseScoringResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"reasoning": "solid work", "criteria_scores": [{"criterion_name": "a", "score": 8}]}`,
		},
		{
			name: "json in code fence",
			content: "```json\n" +
				`{"reasoning": "ok", "criteria_scores": [{"criterion_name": "a", "score": 7}]}` +
				"\n```",
		},
		{
			name:    "json with surrounding prose",
			content: `Here is my assessment: {"reasoning": "ok", "criteria_scores": [{"criterion_name": "a", "score": 6}]} Hope that helps!`,
		},
		{
			name:    "no json at all",
			content: "I scored it an 8 overall.",
			wantErr: true,
		},
		{
			name:    "json without criterion scores",
			content: `{"reasoning": "ok"}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			content: `{"reasoning": "ok", "criteria_scores": [}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseScoringResponse(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.CriteriaScores) != 1 {
				t.Errorf("got %d criterion scores, want 1", len(result.CriteriaScores))
			}
			if result.CriteriaScores[0].CriterionName != "a" {
				t.Errorf("criterion name = %q, want a", result.CriteriaScores[0].CriterionName)
			}
		})
	}
}

func TestParseScoringResponse_Scores(t *testing.T) {
	content := `{"reasoning": "mixed", "criteria_scores": [
		{"criterion_name": "quality", "score": 8.5},
		{"criterion_name": "speed", "score": 4}
	]}`

	result, err := parseScoringResponse(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Reasoning != "mixed" {
		t.Errorf("Reasoning = %q", result.Reasoning)
	}
	if result.CriteriaScores[0].Score != 8.5 {
		t.Errorf("first score = %v, want 8.5", result.CriteriaScores[0].Score)
	}
	if result.CriteriaScores[1].Score != 4 {
		t.Errorf("second score = %v, want 4", result.CriteriaScores[1].Score)
	}
}
