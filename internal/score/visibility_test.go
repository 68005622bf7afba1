package score

import (
	"errors"
	"testing"
)

func TestPositionScore(t *testing.T) {
	t.Parallel()

	t.Run("rank one is always the ceiling", func(t *testing.T) {
		t.Parallel()

		for total := 1; total <= 200; total++ {
			got, err := PositionScore(1, total)
			if err != nil {
				t.Fatalf("PositionScore(1, %d) error: %v", total, err)
			}
			if got != 100 {
				t.Fatalf("PositionScore(1, %d) = %v, want 100", total, got)
			}
		}
	})

	t.Run("interpolates linearly", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			rank, total int
			want        float64
		}{
			{50, 100, 50},
			{10, 100, 90},
			{100, 100, 0},
			{2, 3, 33.33},
		}
		for _, tt := range tests {
			got, err := PositionScore(tt.rank, tt.total)
			if err != nil {
				t.Fatalf("PositionScore(%d, %d) error: %v", tt.rank, tt.total, err)
			}
			if got != tt.want {
				t.Errorf("PositionScore(%d, %d) = %v, want %v", tt.rank, tt.total, got, tt.want)
			}
		}
	})

	t.Run("contract violations", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name        string
			rank, total int
		}{
			{"rank exceeds total", 11, 10},
			{"rank zero", 0, 10},
			{"total zero", 1, 0},
			{"negative rank", -3, 10},
		}
		for _, tt := range tests {
			if _, err := PositionScore(tt.rank, tt.total); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("%s: expected ErrInvalidInput, got %v", tt.name, err)
			}
		}
	})
}

func TestItemVisibility(t *testing.T) {
	t.Parallel()

	t.Run("visible at rank one", func(t *testing.T) {
		t.Parallel()

		got, err := ItemVisibility(Item{Visible: true, Rank: 1, TotalResults: 100, CompetitorScore: 70})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 69 {
			t.Errorf("ItemVisibility = %v, want 69.00", got)
		}
	})

	t.Run("not visible is exactly zero", func(t *testing.T) {
		t.Parallel()

		items := []Item{
			{Visible: false, Rank: 1, TotalResults: 100, CompetitorScore: 100},
			{Visible: false, Rank: 500, TotalResults: 10, CompetitorScore: 250},
			{Visible: false},
		}
		for _, item := range items {
			got, err := ItemVisibility(item)
			if err != nil {
				t.Errorf("ItemVisibility(%+v) error: %v", item, err)
			}
			if got != 0 {
				t.Errorf("ItemVisibility(%+v) = %v, want 0", item, got)
			}
		}
	})

	t.Run("out of range competitor score", func(t *testing.T) {
		t.Parallel()

		_, err := ItemVisibility(Item{Visible: true, Rank: 1, TotalResults: 10, CompetitorScore: 101})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("rank exceeding total", func(t *testing.T) {
		t.Parallel()

		_, err := ItemVisibility(Item{Visible: true, Rank: 20, TotalResults: 10})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("bounded for all ranks", func(t *testing.T) {
		t.Parallel()

		for rank := 1; rank <= 50; rank++ {
			for _, comp := range []float64{0, 33.3, 100} {
				got, err := ItemVisibility(Item{Visible: true, Rank: rank, TotalResults: 50, CompetitorScore: comp})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got < 0 || got > 100 {
					t.Fatalf("ItemVisibility out of bounds: %v", got)
				}
			}
		}
	})
}

func TestVisibility(t *testing.T) {
	t.Parallel()

	got, err := Visibility(nil)
	if err != nil || got != 0 {
		t.Errorf("Visibility(nil) = %v, %v; want 0, nil", got, err)
	}

	got, err = Visibility([]Item{
		{Visible: true, Rank: 1, TotalResults: 100, CompetitorScore: 70},
		{Visible: false},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 34.5 {
		t.Errorf("Visibility = %v, want 34.5", got)
	}
}
