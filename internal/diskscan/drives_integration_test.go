//go:build integration

package diskscan

import (
	"context"
	"testing"
)

func TestDrivesLive(t *testing.T) {
	drives, err := Drives(context.Background())
	if err != nil {
		t.Fatalf("Drives returned error: %v", err)
	}
	if len(drives) == 0 {
		t.Fatal("expected at least one fixed drive")
	}
	for _, d := range drives {
		if d.Total == 0 {
			t.Errorf("drive %s reports zero total", d.Letter)
		}
		if d.Label == "" {
			t.Errorf("drive %s has an empty label", d.Letter)
		}
		t.Logf("%s %q %s total=%d free=%d", d.Letter, d.Label, d.FileSystem, d.Total, d.Free)
	}
}
