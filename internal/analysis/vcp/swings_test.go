package vcp

import (
	"reflect"
	"testing"
)

func TestFindSwingHighs(t *testing.T) {
	tests := []struct {
		name    string
		prices  []float64
		window  int
		minDist int
		want    []swingPoint
	}{
		{
			name:    "single peak",
			prices:  []float64{1, 2, 3, 4, 5, 4, 3, 2, 1},
			window:  2,
			minDist: 1,
			want:    []swingPoint{{index: 4, price: 5}},
		},
		{
			name:    "two peaks far apart",
			prices:  []float64{1, 2, 5, 2, 1, 2, 6, 2, 1},
			window:  2,
			minDist: 1,
			want:    []swingPoint{{index: 2, price: 5}, {index: 6, price: 6}},
		},
		{
			name:    "min distance filters the second peak",
			prices:  []float64{1, 2, 5, 2, 1, 4, 1, 0, 0, 0},
			window:  2,
			minDist: 5,
			want:    []swingPoint{{index: 2, price: 5}},
		},
		{
			name:    "monotonic series has no interior peak",
			prices:  []float64{1, 2, 3, 4, 5, 6, 7, 8},
			window:  2,
			minDist: 1,
			want:    nil,
		},
		{
			name:    "too short for the window",
			prices:  []float64{1, 5, 1},
			window:  2,
			minDist: 1,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findSwingHighs(tt.prices, tt.window, tt.minDist)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("findSwingHighs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindSwingLows(t *testing.T) {
	tests := []struct {
		name    string
		prices  []float64
		window  int
		minDist int
		want    []swingPoint
	}{
		{
			name:    "single trough",
			prices:  []float64{5, 4, 3, 2, 1, 2, 3, 4, 5},
			window:  2,
			minDist: 1,
			want:    []swingPoint{{index: 4, price: 1}},
		},
		{
			name:    "two troughs",
			prices:  []float64{5, 4, 1, 4, 5, 4, 0.5, 4, 5},
			window:  2,
			minDist: 1,
			want:    []swingPoint{{index: 2, price: 1}, {index: 6, price: 0.5}},
		},
		{
			name:    "edges never qualify",
			prices:  []float64{0, 1, 2, 3, 4, 5, 6},
			window:  2,
			minDist: 1,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findSwingLows(tt.prices, tt.window, tt.minDist)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("findSwingLows() = %v, want %v", got, tt.want)
			}
		})
	}
}
