package rule

import (
	"testing"
	"time"
)

func TestGovaluateEvaluator(t *testing.T) {
	e := NewGovaluateEvaluator()

	tests := []struct {
		name       string
		expression string
		context    map[string]interface{}
		want       bool
		wantErr    bool
	}{
		{
			name:       "numeric comparison true",
			expression: "tokens_used < 1000",
			context:    map[string]interface{}{"tokens_used": 500},
			want:       true,
		},
		{
			name:       "numeric comparison false",
			expression: "tokens_used < 1000",
			context:    map[string]interface{}{"tokens_used": 1500},
			want:       false,
		},
		{
			name:       "string comparison and conjunction",
			expression: "time_of_day >= '00:00' && time_of_day <= '06:00'",
			context:    map[string]interface{}{"time_of_day": "03:30"},
			want:       true,
		},
		{
			name:       "string equality",
			expression: "request_method == 'POST'",
			context:    map[string]interface{}{"request_method": "POST"},
			want:       true,
		},
		{
			name:       "parse error",
			expression: "tokens_used < (1000",
			context:    map[string]interface{}{"tokens_used": 1},
			wantErr:    true,
		},
		{
			name:       "unknown variable",
			expression: "no_such_variable > 10",
			context:    map[string]interface{}{},
			wantErr:    true,
		},
		{
			name:       "non-boolean result",
			expression: "tokens_used + 1",
			context:    map[string]interface{}{"tokens_used": 1},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.expression, tt.context)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got result %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStarlarkEvaluator(t *testing.T) {
	e := NewStarlarkEvaluator(time.Second)

	tests := []struct {
		name       string
		expression string
		context    map[string]interface{}
		want       bool
		wantErr    bool
	}{
		{
			name:       "numeric comparison",
			expression: "tokens_used < 1000",
			context:    map[string]interface{}{"tokens_used": int64(500)},
			want:       true,
		},
		{
			name:       "string comparison with and",
			expression: "time_of_day >= '00:00' and time_of_day <= '06:00'",
			context:    map[string]interface{}{"time_of_day": "03:30"},
			want:       true,
		},
		{
			name:       "float comparison",
			expression: "price_per_token < 0.01",
			context:    map[string]interface{}{"price_per_token": 0.005},
			want:       true,
		},
		{
			name:       "syntax error",
			expression: "tokens_used <",
			context:    map[string]interface{}{"tokens_used": int64(1)},
			wantErr:    true,
		},
		{
			name:       "non-boolean result",
			expression: "tokens_used + 1",
			context:    map[string]interface{}{"tokens_used": int64(1)},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.expression, tt.context)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got result %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvaluatorSelection(t *testing.T) {
	if _, ok := NewEvaluator("starlark").(*StarlarkEvaluator); !ok {
		t.Error("'starlark' should select the Starlark evaluator")
	}
	if _, ok := NewEvaluator("govaluate").(*GovaluateEvaluator); !ok {
		t.Error("'govaluate' should select the govaluate evaluator")
	}
	if _, ok := NewEvaluator("").(*GovaluateEvaluator); !ok {
		t.Error("unknown engine name should fall back to govaluate")
	}
}
