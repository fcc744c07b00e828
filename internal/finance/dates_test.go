package finance

import (
	"testing"
	"time"
)

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		name   string
		dueDay int
		today  time.Time
		want   time.Time
	}{
		{
			name:   "due day already passed rolls to next month",
			dueDay: 15,
			today:  time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "due day still ahead stays in current month",
			dueDay: 15,
			today:  time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "due today counts as upcoming",
			dueDay: 15,
			today:  time.Date(2024, 5, 15, 23, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "day 31 clamps in a 30-day month",
			dueDay: 31,
			today:  time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			want:   time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "day 30 clamps in February",
			dueDay: 30,
			today:  time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC),
			want:   time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "december rolls into january",
			dueDay: 5,
			today:  time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC),
			want:   time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDueDate(tt.dueDay, tt.today)
			if !got.Equal(tt.want) {
				t.Errorf("NextDueDate(%d, %s) = %s, want %s",
					tt.dueDay, tt.today.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestAdvanceDueDate(t *testing.T) {
	tests := []struct {
		name   string
		next   time.Time
		dueDay int
		want   time.Time
	}{
		{
			name:   "plain one month hop",
			next:   time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
			dueDay: 15,
			want:   time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "jan 31 clamps to february",
			next:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			dueDay: 31,
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "recovers original day after a short month",
			next:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			dueDay: 31,
			want:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "unknown due day falls back to current day",
			next:   time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
			dueDay: 0,
			want:   time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdvanceDueDate(tt.next, tt.dueDay)
			if !got.Equal(tt.want) {
				t.Errorf("AdvanceDueDate(%s, %d) = %s, want %s",
					tt.next.Format("2006-01-02"), tt.dueDay, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}
