package jsonutil

import (
	"encoding/json"
	"testing"
)

func TestFlexibleInt64(t *testing.T) {
	tests := []struct {
		name    string
		input   json.RawMessage
		want    *int64
		wantErr bool
	}{
		{
			name:  "plain number",
			input: json.RawMessage(`1300`),
			want:  int64Ptr(1300),
		},
		{
			name:  "numeric string",
			input: json.RawMessage(`"1300"`),
			want:  int64Ptr(1300),
		},
		{
			name:  "whole float",
			input: json.RawMessage(`1300.0`),
			want:  int64Ptr(1300),
		},
		{
			name:  "zero",
			input: json.RawMessage(`0`),
			want:  int64Ptr(0),
		},
		{
			name:  "negative",
			input: json.RawMessage(`-7`),
			want:  int64Ptr(-7),
		},
		{
			name:  "null value",
			input: json.RawMessage(`null`),
			want:  nil,
		},
		{
			name:  "absent value",
			input: nil,
			want:  nil,
		},
		{
			name:  "empty string",
			input: json.RawMessage(`""`),
			want:  nil,
		},
		{
			name:    "fractional float",
			input:   json.RawMessage(`13.5`),
			wantErr: true,
		},
		{
			name:    "non-numeric string",
			input:   json.RawMessage(`"lots"`),
			wantErr: true,
		},
		{
			name:    "object",
			input:   json.RawMessage(`{"v":1}`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlexibleInt64(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("FlexibleInt64(%s) expected error, got %v", string(tt.input), got)
				}
				return
			}
			if err != nil {
				t.Fatalf("FlexibleInt64(%s) unexpected error: %v", string(tt.input), err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("FlexibleInt64(%s) = %v, want %v", string(tt.input), got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("FlexibleInt64(%s) = %d, want %d", string(tt.input), *got, *tt.want)
			}
		})
	}
}

func TestFlexibleFloat64(t *testing.T) {
	tests := []struct {
		name    string
		input   json.RawMessage
		want    *float64
		wantErr bool
	}{
		{
			name:  "plain float",
			input: json.RawMessage(`2.41`),
			want:  float64Ptr(2.41),
		},
		{
			name:  "integer",
			input: json.RawMessage(`3`),
			want:  float64Ptr(3),
		},
		{
			name:  "numeric string",
			input: json.RawMessage(`"2.41"`),
			want:  float64Ptr(2.41),
		},
		{
			name:  "null value",
			input: json.RawMessage(`null`),
			want:  nil,
		},
		{
			name:  "empty string",
			input: json.RawMessage(`""`),
			want:  nil,
		},
		{
			name:    "non-numeric string",
			input:   json.RawMessage(`"cheap"`),
			wantErr: true,
		},
		{
			name:    "array",
			input:   json.RawMessage(`[1.2]`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlexibleFloat64(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("FlexibleFloat64(%s) expected error, got %v", string(tt.input), got)
				}
				return
			}
			if err != nil {
				t.Fatalf("FlexibleFloat64(%s) unexpected error: %v", string(tt.input), err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("FlexibleFloat64(%s) = %v, want %v", string(tt.input), got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("FlexibleFloat64(%s) = %g, want %g", string(tt.input), *got, *tt.want)
			}
		})
	}
}

func int64Ptr(n int64) *int64       { return &n }
func float64Ptr(f float64) *float64 { return &f }
