package vcp

import (
	"errors"
	"testing"

	apperrors "vcpscan/internal/errors"
)

func TestNewFrame(t *testing.T) {
	series := []float64{1, 2, 3}

	t.Run("case-insensitive column names", func(t *testing.T) {
		frame, err := NewFrame(map[string][]float64{
			"HIGH":    series,
			"Low":     series,
			" Close ": series,
			"volume":  series,
		})
		if err != nil {
			t.Fatalf("NewFrame() error = %v", err)
		}
		if frame.Len() != 3 {
			t.Errorf("Len() = %d, want 3", frame.Len())
		}
		if frame.Open != nil {
			t.Error("open should stay nil when absent")
		}
	})

	t.Run("missing required column", func(t *testing.T) {
		_, err := NewFrame(map[string][]float64{
			"high":  series,
			"low":   series,
			"close": series,
		})
		if !errors.Is(err, apperrors.ErrMissingColumn) {
			t.Fatalf("error = %v, want ErrMissingColumn", err)
		}
		var missing *apperrors.MissingColumnError
		if !errors.As(err, &missing) {
			t.Fatal("error is not a MissingColumnError")
		}
		if missing.Column != "volume" {
			t.Errorf("Column = %q, want volume", missing.Column)
		}
	})

	t.Run("column length mismatch", func(t *testing.T) {
		_, err := NewFrame(map[string][]float64{
			"high":   series,
			"low":    series,
			"close":  {1, 2},
			"volume": series,
		})
		if err == nil {
			t.Fatal("expected a structural error")
		}
		var dataErr *apperrors.DataError
		if !errors.As(err, &dataErr) {
			t.Errorf("error = %T, want DataError", err)
		}
	})

	t.Run("latest close", func(t *testing.T) {
		frame, err := NewFrame(map[string][]float64{
			"high":   series,
			"low":    series,
			"close":  series,
			"volume": series,
		})
		if err != nil {
			t.Fatalf("NewFrame() error = %v", err)
		}
		if frame.LatestClose() != 3 {
			t.Errorf("LatestClose() = %v, want 3", frame.LatestClose())
		}
	})
}
