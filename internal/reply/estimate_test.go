package reply

import (
	"testing"
	"time"
)

func TestNormalizeBucket(t *testing.T) {
	cases := []struct {
		method string
		want   string
	}{
		{"", ""},
		{"USPS Priority Mail Express", BucketExpedited},
		{"Next Day Air", BucketExpedited},
		{"UPS SurePost", BucketEconomy},
		{"Economy Shipping", BucketEconomy},
		{"USPS/UPS Ground", BucketStandard},
		{"Standard", BucketStandard},
	}
	for _, tc := range cases {
		if got := NormalizeBucket(tc.method); got != tc.want {
			t.Fatalf("NormalizeBucket(%q) = %q, want %q", tc.method, got, tc.want)
		}
	}
}

func TestAddBusinessDaysSkipsWeekends(t *testing.T) {
	// Friday 2026-08-28 plus 2 business days lands on Tuesday.
	friday := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	got := AddBusinessDays(friday, 2)
	want := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestComputeEstimateWindows(t *testing.T) {
	ordered := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC) // Monday
	ticket := ordered.AddDate(0, 0, 1)

	est := ComputeEstimate(ordered, "Express", ticket)
	if est.Bucket != BucketExpedited || est.WindowMinDays != 1 || est.WindowMaxDays != 3 {
		t.Fatalf("unexpected expedited estimate: %+v", est)
	}
	if est.EtaHuman != "1-3 business days" {
		t.Fatalf("unexpected eta phrase %q", est.EtaHuman)
	}
	if est.IsLate {
		t.Fatalf("ticket one day after order must not be late")
	}

	est = ComputeEstimate(ordered, "Ground", ticket)
	if est.Bucket != BucketStandard || est.EtaHuman != "3-5 business days" {
		t.Fatalf("unexpected standard estimate: %+v", est)
	}
}

func TestComputeEstimateLate(t *testing.T) {
	ordered := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC) // Monday
	// Two calendar weeks later is well past 5 business days.
	ticket := ordered.AddDate(0, 0, 14)

	est := ComputeEstimate(ordered, "Ground", ticket)
	if !est.IsLate {
		t.Fatalf("expected late order, got %+v", est)
	}
}
