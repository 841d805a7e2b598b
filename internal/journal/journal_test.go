package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations and fails for any command mentioning fail.
func fakeRunner(calls *[]call) func(context.Context, string, ...string) ([]byte, error) {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name: name, args: args})
		for _, a := range args {
			if strings.Contains(a, "fail") {
				return []byte("[SC] OpenService FAILED 1060"), errors.New("exit status 1060")
			}
		}
		return []byte("[SC] ChangeServiceConfig SUCCESS"), nil
	}
}

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), Filename))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	return j
}

func TestOpenMissingFile(t *testing.T) {
	j := openTemp(t)
	if !j.Empty() {
		t.Error("new journal should be empty")
	}
	s := j.State()
	if s.Services == nil || s.Startup == nil {
		t.Error("state maps should be initialized")
	}
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if !j.Empty() {
		t.Error("journal from empty file should be empty")
	}
}

func TestOpenMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected error for malformed journal")
	}
}

func TestRecordKeepsFirstValue(t *testing.T) {
	j := openTemp(t)

	if err := j.RecordService("DiagTrack", "AUTO_START"); err != nil {
		t.Fatalf("RecordService returned error: %v", err)
	}
	if err := j.RecordService("DiagTrack", "disabled"); err != nil {
		t.Fatalf("RecordService returned error: %v", err)
	}
	if err := j.RecordPowerPlan("381b4222-f694-41f0-9685-ff5bb260df2e"); err != nil {
		t.Fatalf("RecordPowerPlan returned error: %v", err)
	}
	if err := j.RecordPowerPlan("8c5e7fda-e8bf-4a96-9a85-a6e23a8c635c"); err != nil {
		t.Fatalf("RecordPowerPlan returned error: %v", err)
	}

	s := j.State()
	if s.Services["DiagTrack"] != "auto" {
		t.Errorf("DiagTrack = %q, want auto", s.Services["DiagTrack"])
	}
	if s.PowerPlan != "381b4222-f694-41f0-9685-ff5bb260df2e" {
		t.Errorf("PowerPlan = %q, want the first plan", s.PowerPlan)
	}
}

func TestRecordServiceUnknownType(t *testing.T) {
	j := openTemp(t)
	if err := j.RecordService("Foo", "sometimes"); err == nil {
		t.Error("expected error for unknown start type")
	}
	if !j.Empty() {
		t.Error("journal should stay empty")
	}
}

func TestRecordPersists(t *testing.T) {
	j := openTemp(t)
	if err := j.RecordService("WSearch", "Manual"); err != nil {
		t.Fatal(err)
	}
	if err := j.RecordStartupDisabled("Spotify", "HKCU Run"); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(j.Path())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	s := reopened.State()
	if s.Services["WSearch"] != "demand" {
		t.Errorf("WSearch = %q, want demand", s.Services["WSearch"])
	}
	if len(s.Startup) != 1 {
		t.Fatalf("expected 1 startup entry, got %d", len(s.Startup))
	}
	for _, e := range s.Startup {
		if e.Name != "Spotify" || e.Location != "HKCU Run" || e.DisabledAt == "" {
			t.Errorf("unexpected startup entry %+v", e)
		}
	}

	if !reopened.IsStartupDisabled("Spotify", "HKCU Run") {
		t.Error("IsStartupDisabled should report the recorded item")
	}
	if reopened.IsStartupDisabled("Spotify", "HKLM Run") {
		t.Error("IsStartupDisabled should match on location too")
	}

	if err := reopened.ForgetStartup("Spotify", "HKCU Run"); err != nil {
		t.Fatal(err)
	}
	if len(reopened.State().Startup) != 0 {
		t.Error("ForgetStartup should remove the entry")
	}
}

func TestRestoreAll(t *testing.T) {
	j := openTemp(t)
	var calls []call
	j.SetRunner(fakeRunner(&calls))

	_ = j.RecordService("DiagTrack", "auto")
	_ = j.RecordService("SysMain", "delayed-auto")
	_ = j.RecordPowerPlan("381b4222-f694-41f0-9685-ff5bb260df2e")

	if err := j.RestoreAll(context.Background()); err != nil {
		t.Fatalf("RestoreAll returned error: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("expected 3 commands, got %d: %+v", len(calls), calls)
	}

	want := []string{
		"sc config DiagTrack start= auto",
		"sc config SysMain start= delayed-auto",
		"powercfg /setactive 381b4222-f694-41f0-9685-ff5bb260df2e",
	}
	for i, c := range calls {
		got := c.name + " " + strings.Join(c.args, " ")
		if got != want[i] {
			t.Errorf("command %d = %q, want %q", i, got, want[i])
		}
	}
	if !j.Empty() {
		t.Errorf("journal should be empty after a clean restore: %+v", j.State())
	}
}

func TestRestoreServicesForgetsDisabledStartup(t *testing.T) {
	j := openTemp(t)
	var calls []call
	j.SetRunner(fakeRunner(&calls))

	_ = j.RecordService("SysMain", "auto")
	_ = j.RecordStartupDisabled("SysMain", LocationService)
	_ = j.RecordStartupDisabled("failing", LocationService)
	_ = j.RecordService("failing", "auto")
	_ = j.RecordStartupDisabled("Spotify", "registry_hkcu")

	_ = j.RestoreServices(context.Background())

	if j.IsStartupDisabled("SysMain", LocationService) {
		t.Error("restored service should no longer be marked as a disabled startup item")
	}
	if !j.IsStartupDisabled("failing", LocationService) {
		t.Error("service that failed to restore should stay marked")
	}
	if !j.IsStartupDisabled("Spotify", "registry_hkcu") {
		t.Error("registry items are re-enabled from the startup list, not by restore")
	}

	reopened, err := Open(j.Path())
	if err != nil {
		t.Fatal(err)
	}
	if reopened.IsStartupDisabled("SysMain", LocationService) {
		t.Error("forgotten entry should be persisted")
	}
}

func TestRestoreAllEmptiesJournalWithDisabledService(t *testing.T) {
	j := openTemp(t)
	var calls []call
	j.SetRunner(fakeRunner(&calls))

	_ = j.RecordService("DiagTrack", "auto")
	_ = j.RecordStartupDisabled("DiagTrack", LocationService)

	if err := j.RestoreAll(context.Background()); err != nil {
		t.Fatalf("RestoreAll returned error: %v", err)
	}
	if !j.Empty() {
		t.Errorf("journal should be empty after restore: %+v", j.State())
	}
}

func TestRestoreKeepsFailures(t *testing.T) {
	j := openTemp(t)
	var calls []call
	j.SetRunner(fakeRunner(&calls))

	_ = j.RecordService("failing", "auto")
	_ = j.RecordService("Fax", "demand")

	err := j.RestoreServices(context.Background())
	if err == nil {
		t.Fatal("expected an error for the failing service")
	}
	if !strings.Contains(err.Error(), "failing") {
		t.Errorf("error should name the service: %v", err)
	}

	s := j.State()
	if _, ok := s.Services["failing"]; !ok {
		t.Error("failed service should stay in the journal")
	}
	if _, ok := s.Services["Fax"]; ok {
		t.Error("restored service should be removed")
	}
}

func TestScStartKeyword(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"AUTO_START", "auto"},
		{"Automatic", "auto"},
		{"automatic-delayed", "delayed-auto"},
		{"AUTODELAYED", "delayed-auto"},
		{"DEMAND_START", "demand"},
		{"Manual", "demand"},
		{"DISABLED", "disabled"},
		{"BOOT_START", "boot"},
		{"SYSTEM_START", "system"},
		{"", ""},
		{"bogus", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := scStartKeyword(tt.input); got != tt.want {
				t.Errorf("scStartKeyword(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
