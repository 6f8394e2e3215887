package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "valid", input: "2025-12-10", want: Date{Year: 2025, Month: time.December, Day: 10}},
		{name: "leap day", input: "2024-02-29", want: Date{Year: 2024, Month: time.February, Day: 29}},
		{name: "not a date", input: "tomorrow", wantErr: true},
		{name: "wrong layout", input: "10/12/2025", wantErr: true},
		{name: "impossible day", input: "2025-02-30", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateAddDays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base Date
		n    int
		want Date
	}{
		{
			name: "within month",
			base: Date{Year: 2025, Month: time.June, Day: 10},
			n:    5,
			want: Date{Year: 2025, Month: time.June, Day: 15},
		},
		{
			name: "month rollover",
			base: Date{Year: 2025, Month: time.January, Day: 31},
			n:    1,
			want: Date{Year: 2025, Month: time.February, Day: 1},
		},
		{
			name: "year rollover",
			base: Date{Year: 2025, Month: time.December, Day: 31},
			n:    1,
			want: Date{Year: 2026, Month: time.January, Day: 1},
		},
		{
			name: "leap february",
			base: Date{Year: 2024, Month: time.February, Day: 28},
			n:    1,
			want: Date{Year: 2024, Month: time.February, Day: 29},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.base.AddDays(tt.n); got != tt.want {
				t.Errorf("AddDays(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestDateISOWeekday(t *testing.T) {
	t.Parallel()

	// 2025-12-08 is a Monday.
	for i := 0; i < 7; i++ {
		d := Date{Year: 2025, Month: time.December, Day: 8}.AddDays(i)
		want := i + 1
		if got := d.ISOWeekday(); got != want {
			t.Errorf("ISOWeekday(%s) = %d, want %d", d, got, want)
		}
	}
}

func TestDateDaysInMonth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		date Date
		want int
	}{
		{Date{Year: 2025, Month: time.January, Day: 1}, 31},
		{Date{Year: 2025, Month: time.February, Day: 15}, 28},
		{Date{Year: 2024, Month: time.February, Day: 1}, 29},
		{Date{Year: 2025, Month: time.April, Day: 30}, 30},
		{Date{Year: 2025, Month: time.December, Day: 31}, 31},
	}

	for _, tt := range tests {
		if got := tt.date.DaysInMonth(); got != tt.want {
			t.Errorf("DaysInMonth(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestDateOrdering(t *testing.T) {
	t.Parallel()

	earlier := Date{Year: 2025, Month: time.June, Day: 1}
	later := Date{Year: 2025, Month: time.June, Day: 2}

	if !earlier.Before(later) {
		t.Error("expected earlier.Before(later)")
	}
	if !later.After(earlier) {
		t.Error("expected later.After(earlier)")
	}
	if earlier.After(later) || later.Before(earlier) {
		t.Error("ordering is not antisymmetric")
	}
	if !earlier.Equal(earlier) {
		t.Error("expected a date to equal itself")
	}
}

func TestDateJSON(t *testing.T) {
	t.Parallel()

	d := Date{Year: 2025, Month: time.March, Day: 5}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2025-03-05"` {
		t.Errorf("marshal = %s, want %q", data, `"2025-03-05"`)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != d {
		t.Errorf("roundtrip = %v, want %v", back, d)
	}

	if err := json.Unmarshal([]byte(`"03/05/2025"`), &back); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "09:00", want: TimeOfDay{Hour: 9, Minute: 0}},
		{input: "23:59", want: TimeOfDay{Hour: 23, Minute: 59}},
		{input: "00:00", want: TimeOfDay{Hour: 0, Minute: 0}},
		{input: "24:00", wantErr: true},
		{input: "9am", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q) expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTimeOfDayMinutes(t *testing.T) {
	t.Parallel()

	if got := (TimeOfDay{Hour: 9, Minute: 30}).Minutes(); got != 570 {
		t.Errorf("Minutes() = %d, want 570", got)
	}
	if (TimeOfDay{Hour: 8, Minute: 0}).Minutes() >= (TimeOfDay{Hour: 8, Minute: 1}).Minutes() {
		t.Error("expected 08:00 to order before 08:01")
	}
}
