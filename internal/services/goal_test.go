package services

import (
	"testing"
)

func TestValidateCriteria(t *testing.T) {
	tests := []struct {
		name     string
		criteria []CriterionInput
		wantErr  bool
	}{
		{
			name:     "weights sum to 100",
			criteria: []CriterionInput{{Name: "a", Weight: 60}, {Name: "b", Weight: 40}},
		},
		{
			name:     "single criterion at 100",
			criteria: []CriterionInput{{Name: "a", Weight: 100}},
		},
		{
			name:     "sum under 100",
			criteria: []CriterionInput{{Name: "a", Weight: 60}, {Name: "b", Weight: 30}},
			wantErr:  true,
		},
		{
			name:     "sum over 100",
			criteria: []CriterionInput{{Name: "a", Weight: 60}, {Name: "b", Weight: 50}},
			wantErr:  true,
		},
		{
			name:     "zero weight",
			criteria: []CriterionInput{{Name: "a", Weight: 0}, {Name: "b", Weight: 100}},
			wantErr:  true,
		},
		{
			name:     "negative weight",
			criteria: []CriterionInput{{Name: "a", Weight: -10}, {Name: "b", Weight: 110}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCriteria(tt.criteria)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateCriteria() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
