package health

import "testing"

func TestProbeReport(t *testing.T) {
	p := NewProbe()
	r := p.Report()

	if r.Goroutines == 0 {
		t.Error("Goroutines = 0, want > 0")
	}
	if r.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %f, want >= 0", r.UptimeSeconds)
	}
	// RSS should be sampleable for our own process on supported platforms.
	if p.proc != nil && r.RSSBytes == 0 {
		t.Error("RSSBytes = 0, want > 0")
	}
}
