package plan

import "testing"

func TestParseDurationMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"2h", 120},
		{"90min", 90},
		{"1.5h", 90},
		{"0.25h", 15},
		{"45min", 45},
		{" 45 min ", 45},
		{"2H", 120},
		{"2h30min", 120}, // h unit wins
		{"0min", 0},
		{"", DefaultBlockMinutes},
		{"garbage", DefaultBlockMinutes},
		{"45", DefaultBlockMinutes},
		{"-5min", DefaultBlockMinutes},
		{"-1h", DefaultBlockMinutes},
	}
	for _, c := range cases {
		if got := ParseDurationMinutes(c.in); got != c.want {
			t.Errorf("ParseDurationMinutes(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFormatMinutesRoundTrips(t *testing.T) {
	for _, m := range []int{0, 15, 60, 90, 512} {
		if got := ParseDurationMinutes(FormatMinutes(m)); got != m {
			t.Errorf("round trip %d = %d", m, got)
		}
	}
}
