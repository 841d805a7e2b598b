package startup

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pcmanager/internal/services"
)

// memRegistry is an in-memory registryStore keyed by hive and key path.
type memRegistry struct {
	keys map[Hive]map[string]map[string]regValue
}

func newMemRegistry() *memRegistry {
	return &memRegistry{keys: map[Hive]map[string]map[string]regValue{HKCU: {}, HKLM: {}}}
}

func (r *memRegistry) list(h Hive, path string) (map[string]regValue, error) {
	key, ok := r.keys[h][path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	out := make(map[string]regValue, len(key))
	for k, v := range key {
		out[k] = v
	}
	return out, nil
}

func (r *memRegistry) get(h Hive, path, name string) (regValue, error) {
	v, ok := r.keys[h][path][name]
	if !ok {
		return regValue{}, fs.ErrNotExist
	}
	return v, nil
}

func (r *memRegistry) set(h Hive, path, name string, v regValue) error {
	if r.keys[h][path] == nil {
		r.keys[h][path] = map[string]regValue{}
	}
	r.keys[h][path][name] = v
	return nil
}

func (r *memRegistry) remove(h Hive, path, name string) error {
	if _, ok := r.keys[h][path][name]; !ok {
		return fs.ErrNotExist
	}
	delete(r.keys[h][path], name)
	return nil
}

type fakeServices struct {
	entries []serviceEntry
	err     error
}

func (f fakeServices) startupServices(context.Context) ([]serviceEntry, error) {
	return f.entries, f.err
}

type fakeConfigurer struct {
	calls map[string]services.StartType
}

func (f *fakeConfigurer) SetStartType(_ context.Context, name string, t services.StartType) error {
	if f.calls == nil {
		f.calls = map[string]services.StartType{}
	}
	f.calls[name] = t
	return nil
}

type fakeJournal struct {
	disabled map[string]bool
}

func (j *fakeJournal) RecordStartupDisabled(name, location string) error {
	if j.disabled == nil {
		j.disabled = map[string]bool{}
	}
	j.disabled[location+"|"+name] = true
	return nil
}

func (j *fakeJournal) ForgetStartup(name, location string) error {
	delete(j.disabled, location+"|"+name)
	return nil
}

func (j *fakeJournal) IsStartupDisabled(name, location string) bool {
	return j.disabled[location+"|"+name]
}

const taskCSV = `"\GoogleUpdateTaskMachineCore","11/05/2026 09:00:00","Ready"
"\MyCustomScheduledJob","N/A","Ready"
"\Microsoft\Office\TeamsStartup","N/A","Disabled"
"TaskName","Next Run Time","Status"
"\GoogleUpdateTaskMachineCore","11/05/2026 09:00:00","Ready"
`

func testManager(t *testing.T) (*Manager, *memRegistry, *fakeConfigurer, *fakeJournal, *[]string) {
	t.Helper()
	reg := newMemRegistry()
	cfg := &fakeConfigurer{}
	j := &fakeJournal{}
	var commands []string

	m := &Manager{
		reg:       reg,
		svcSource: fakeServices{},
		services:  cfg,
		journal:   j,
		run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			commands = append(commands, name+" "+strings.Join(args, " "))
			if len(args) > 0 && args[0] == "/query" {
				return []byte(taskCSV), nil
			}
			return []byte("SUCCESS"), nil
		},
		startupDir: t.TempDir(),
	}
	return m, reg, cfg, j, &commands
}

func findItem(items []Item, name string, loc Location) (Item, bool) {
	for _, it := range items {
		if it.Name == name && it.Location == loc {
			return it, true
		}
	}
	return Item{}, false
}

func TestItemsMergesSources(t *testing.T) {
	m, reg, _, j, _ := testManager(t)

	reg.set(HKCU, runKey, "Spotify", regValue{data: `"C:\Users\me\AppData\Roaming\Spotify\Spotify.exe" /minimized`})
	reg.set(HKCU, runKey, SelfValueName, regValue{data: `"C:\tools\pcmanager.exe"`})
	reg.set(HKCU, disabledKey, "Discord", regValue{data: `C:\Users\me\AppData\Local\Discord\Update.exe --processStart Discord.exe`})
	reg.set(HKLM, runKey, "SecurityHealth", regValue{data: `%windir%\system32\SecurityHealthSystray.exe`, expand: true})

	if err := os.WriteFile(filepath.Join(m.startupDir, "Notes.lnk"), []byte("lnk"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(m.startupDir, "Old.lnk.disabled"), []byte("lnk"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(m.startupDir, "desktop.ini"), []byte("ini"), 0644); err != nil {
		t.Fatal(err)
	}

	j.RecordStartupDisabled("Fax", string(LocationService))
	m.svcSource = fakeServices{entries: []serviceEntry{
		{Name: "DiagTrack", DisplayName: "Connected User Experiences and Telemetry", StartMode: "Auto"},
		{Name: "Fax", DisplayName: "Fax", StartMode: "Disabled"},
		{Name: "RemoteRegistry", DisplayName: "Remote Registry", StartMode: "Disabled"},
	}}

	items, err := m.Items(context.Background())
	if err != nil {
		t.Fatalf("Items returned error: %v", err)
	}

	want := []struct {
		name    string
		loc     Location
		enabled bool
	}{
		{"Spotify", LocationHKCU, true},
		{"Discord", LocationHKCU, false},
		{"SecurityHealth", LocationHKLM, true},
		{"Notes.lnk", LocationStartupFolder, true},
		{"Old.lnk", LocationStartupFolder, false},
		{"GoogleUpdateTaskMachineCore", LocationTaskScheduler, true},
		{"TeamsStartup", LocationTaskScheduler, false},
		{"DiagTrack", LocationService, true},
		{"Fax", LocationService, false},
	}
	if len(items) != len(want) {
		t.Errorf("got %d items, want %d: %+v", len(items), len(want), items)
	}
	for _, w := range want {
		it, ok := findItem(items, w.name, w.loc)
		if !ok {
			t.Errorf("missing item %s at %s", w.name, w.loc)
			continue
		}
		if it.Enabled != w.enabled {
			t.Errorf("%s enabled = %v, want %v", w.name, it.Enabled, w.enabled)
		}
		if it.Impact == "" {
			t.Errorf("%s has no impact", w.name)
		}
	}

	if _, ok := findItem(items, SelfValueName, LocationHKCU); ok {
		t.Error("the tool's own autostart entry should not be listed")
	}
	if _, ok := findItem(items, "RemoteRegistry", LocationService); ok {
		t.Error("services disabled outside the tool should not be listed")
	}

	for i := 1; i < len(items); i++ {
		if strings.ToLower(items[i-1].DisplayName) > strings.ToLower(items[i].DisplayName) {
			t.Errorf("items not sorted at %d: %q > %q", i, items[i-1].DisplayName, items[i].DisplayName)
		}
	}

	spotify, _ := findItem(items, "Spotify", LocationHKCU)
	if spotify.Publisher != "Spotify AB" || spotify.Impact != ImpactMedium {
		t.Errorf("Spotify = %+v", spotify)
	}
	notes, _ := findItem(items, "Notes.lnk", LocationStartupFolder)
	if notes.DisplayName != "Notes" {
		t.Errorf("Notes display name = %q", notes.DisplayName)
	}
	diag, _ := findItem(items, "DiagTrack", LocationService)
	if diag.Impact != ImpactHigh || diag.LocationPath != "Service: DiagTrack" {
		t.Errorf("DiagTrack = %+v", diag)
	}
}

func TestItemsSkipsFailingSources(t *testing.T) {
	m, _, _, _, _ := testManager(t)
	m.startupDir = filepath.Join(m.startupDir, "missing")
	m.svcSource = fakeServices{err: errors.New("WMI unavailable")}
	m.run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("schtasks not found")
	}

	items, err := m.Items(context.Background())
	if err != nil {
		t.Fatalf("Items returned error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %+v", items)
	}
}

func TestDisableEnableRegistry(t *testing.T) {
	m, reg, _, j, _ := testManager(t)
	reg.set(HKLM, runKey, "Tool", regValue{data: `%ProgramFiles%\Tool\tool.exe`, expand: true})

	item := Item{Name: "Tool", DisplayName: "Tool", Location: LocationHKLM, LocationPath: runKey, Enabled: true}
	if err := m.Disable(context.Background(), item); err != nil {
		t.Fatalf("Disable returned error: %v", err)
	}
	if _, err := reg.get(HKLM, runKey, "Tool"); !errors.Is(err, fs.ErrNotExist) {
		t.Error("value should be removed from the Run key")
	}
	moved, err := reg.get(HKLM, disabledKey, "Tool")
	if err != nil || !moved.expand || moved.data != `%ProgramFiles%\Tool\tool.exe` {
		t.Errorf("disabled copy = %+v, %v", moved, err)
	}
	if !j.IsStartupDisabled("Tool", string(LocationHKLM)) {
		t.Error("disable should be journaled")
	}

	item.Enabled = false
	item.LocationPath = disabledKey
	if err := m.Enable(context.Background(), item); err != nil {
		t.Fatalf("Enable returned error: %v", err)
	}
	if _, err := reg.get(HKLM, runKey, "Tool"); err != nil {
		t.Errorf("value should be back in the Run key: %v", err)
	}
	if j.IsStartupDisabled("Tool", string(LocationHKLM)) {
		t.Error("enable should clear the journal entry")
	}
}

func TestDisableAlreadyDisabled(t *testing.T) {
	m, _, _, j, _ := testManager(t)
	item := Item{Name: "Gone", Location: LocationHKCU, Enabled: false}
	if err := m.Disable(context.Background(), item); err != nil {
		t.Errorf("Disable of a disabled item returned %v", err)
	}
	if len(j.disabled) != 0 {
		t.Error("nothing should be journaled")
	}
}

func TestDisableMissingValue(t *testing.T) {
	m, _, _, _, _ := testManager(t)
	item := Item{Name: "Ghost", DisplayName: "Ghost", Location: LocationHKCU, Enabled: true}
	if err := m.Disable(context.Background(), item); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Disable = %v, want ErrNotExist", err)
	}
}

func TestDisableEnableStartupFolder(t *testing.T) {
	m, _, _, _, _ := testManager(t)
	path := filepath.Join(m.startupDir, "Notes.lnk")
	if err := os.WriteFile(path, []byte("lnk"), 0644); err != nil {
		t.Fatal(err)
	}

	item := Item{Name: "Notes.lnk", Location: LocationStartupFolder, LocationPath: path, Enabled: true}
	if err := m.Disable(context.Background(), item); err != nil {
		t.Fatalf("Disable returned error: %v", err)
	}
	if _, err := os.Stat(path + disabledSuffix); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}

	item.Enabled = false
	item.LocationPath = path + disabledSuffix
	if err := m.Enable(context.Background(), item); err != nil {
		t.Fatalf("Enable returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("original file missing: %v", err)
	}
}

func TestDisableEnableTaskAndService(t *testing.T) {
	m, _, cfg, _, commands := testManager(t)

	task := Item{Name: "TeamsStartup", Location: LocationTaskScheduler, LocationPath: `\Microsoft\Office\TeamsStartup`, Enabled: true}
	if err := m.Disable(context.Background(), task); err != nil {
		t.Fatalf("Disable task returned error: %v", err)
	}
	want := `schtasks /Change /TN \Microsoft\Office\TeamsStartup /Disable`
	if len(*commands) != 1 || (*commands)[0] != want {
		t.Errorf("commands = %v, want %q", *commands, want)
	}

	svc := Item{Name: "DiagTrack", Location: LocationService, Enabled: true}
	if err := m.Disable(context.Background(), svc); err != nil {
		t.Fatalf("Disable service returned error: %v", err)
	}
	if cfg.calls["DiagTrack"] != services.StartDisabled {
		t.Errorf("DiagTrack set to %q, want disabled", cfg.calls["DiagTrack"])
	}

	svc.Enabled = false
	if err := m.Enable(context.Background(), svc); err != nil {
		t.Fatalf("Enable service returned error: %v", err)
	}
	if cfg.calls["DiagTrack"] != services.StartAutomatic {
		t.Errorf("DiagTrack set to %q, want automatic", cfg.calls["DiagTrack"])
	}
}

func TestServiceWithoutConfigurer(t *testing.T) {
	m, _, _, _, _ := testManager(t)
	m.services = nil
	err := m.Disable(context.Background(), Item{Name: "DiagTrack", Location: LocationService, Enabled: true})
	if err == nil {
		t.Error("expected error without a service configurer")
	}
}

func TestUnknownLocation(t *testing.T) {
	m, _, _, _, _ := testManager(t)
	if err := m.Disable(context.Background(), Item{Name: "x", Location: "nowhere", Enabled: true}); err == nil {
		t.Error("expected error for unknown location")
	}
}

func TestSelfAutostart(t *testing.T) {
	m, reg, _, _, _ := testManager(t)

	if on, err := m.SelfEnabled(); err != nil || on {
		t.Fatalf("SelfEnabled = %v, %v; want false", on, err)
	}
	if err := m.EnableSelf(`C:\tools\pcmanager.exe`); err != nil {
		t.Fatalf("EnableSelf returned error: %v", err)
	}
	v, _ := reg.get(HKCU, runKey, SelfValueName)
	if v.data != `"C:\tools\pcmanager.exe"` {
		t.Errorf("Run value = %q, want the quoted path", v.data)
	}
	if on, _ := m.SelfEnabled(); !on {
		t.Error("SelfEnabled should be true after EnableSelf")
	}

	if err := m.DisableSelf(); err != nil {
		t.Fatalf("DisableSelf returned error: %v", err)
	}
	if err := m.DisableSelf(); err != nil {
		t.Errorf("second DisableSelf returned %v", err)
	}
	if on, _ := m.SelfEnabled(); on {
		t.Error("SelfEnabled should be false after DisableSelf")
	}

	if err := m.EnableSelf(""); err == nil {
		t.Error("EnableSelf should reject an empty path")
	}
}

func TestSyncSelf(t *testing.T) {
	m, _, _, _, _ := testManager(t)
	if err := m.SyncSelf(true); err != nil {
		t.Fatalf("SyncSelf(true) returned error: %v", err)
	}
	if on, _ := m.SelfEnabled(); !on {
		t.Error("SyncSelf(true) should register the executable")
	}
	if err := m.SyncSelf(false); err != nil {
		t.Fatalf("SyncSelf(false) returned error: %v", err)
	}
	if on, _ := m.SelfEnabled(); on {
		t.Error("SyncSelf(false) should remove the entry")
	}
}

func TestEstimateImpact(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.exe")
	medium := filepath.Join(dir, "medium.exe")
	small := filepath.Join(dir, "small.exe")
	for path, size := range map[string]int64{big: 60 << 20, medium: 20 << 20, small: 1 << 10} {
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.Truncate(size); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}

	tests := []struct {
		name string
		item Item
		want Impact
	}{
		{"service", Item{Location: LocationService, Command: small}, ImpactHigh},
		{"task", Item{Location: LocationTaskScheduler}, ImpactMedium},
		{"known high", Item{Location: LocationHKCU, Command: `"C:\Program Files\Microsoft Teams\Teams.exe" --system-initiated`}, ImpactHigh},
		{"known medium", Item{Location: LocationHKCU, Command: `C:\Users\me\AppData\Roaming\Spotify\Spotify.exe /minimized`}, ImpactMedium},
		{"known low", Item{Location: LocationHKLM, Command: `"C:\Program Files (x86)\Common Files\Adobe\ARM\1.0\AdobeARM.exe"`}, ImpactLow},
		{"large file", Item{Location: LocationHKCU, Command: `"` + big + `"`}, ImpactHigh},
		{"medium file", Item{Location: LocationHKCU, Command: medium}, ImpactMedium},
		{"small file", Item{Location: LocationHKCU, Command: small}, ImpactLow},
		{"missing file", Item{Location: LocationHKCU, Command: filepath.Join(dir, "nope.exe")}, ImpactUnknown},
		{"empty command", Item{Location: LocationHKCU}, ImpactUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateImpact(tt.item); got != tt.want {
				t.Errorf("EstimateImpact = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEstimateBootTime(t *testing.T) {
	items := []Item{
		{Impact: ImpactHigh, Enabled: true},
		{Impact: ImpactMedium, Enabled: true},
		{Impact: ImpactLow, Enabled: true},
		{Impact: ImpactUnknown, Enabled: true},
		{Impact: ImpactHigh, Enabled: false},
	}
	if got, want := EstimateBootTime(items), 8500*time.Millisecond; got != want {
		t.Errorf("EstimateBootTime = %v, want %v", got, want)
	}
	if got := EstimateBootTime(nil); got != 0 {
		t.Errorf("EstimateBootTime(nil) = %v, want 0", got)
	}
}

func TestParseTasks(t *testing.T) {
	items := parseTasks(taskCSV)
	if len(items) != 2 {
		t.Fatalf("expected 2 tasks, got %d: %+v", len(items), items)
	}
	if items[0].Name != "GoogleUpdateTaskMachineCore" || !items[0].Enabled || items[0].Publisher != "Google LLC" {
		t.Errorf("first task = %+v", items[0])
	}
	if items[1].Name != "TeamsStartup" || items[1].Enabled {
		t.Errorf("second task = %+v", items[1])
	}
}

func TestIsStartupTask(t *testing.T) {
	tests := []struct {
		name     string
		taskName string
		expected bool
	}{
		{"Google update task", `\GoogleUpdateTask`, true},
		{"Adobe updater", `\AdobeAcrobatUpdateTask`, true},
		{"Microsoft Teams startup", `\Microsoft\Office\TeamsStartup`, true},
		{"Random task", `\MyCustomScheduledJob`, false},
		{"Startup keyword", `\AutoStartHelper`, true},
		{"Discord helper", `\DiscordHelper`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStartupTask(tt.taskName); got != tt.expected {
				t.Errorf("isStartupTask(%q) = %v, want %v", tt.taskName, got, tt.expected)
			}
		})
	}
}

func TestExtractExePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Quoted path with args", `"C:\Program Files\App\app.exe" --flag1 --flag2`, `C:\Program Files\App\app.exe`},
		{"Quoted path without args", `"C:\Program Files\App\app.exe"`, `C:\Program Files\App\app.exe`},
		{"Unquoted path with exe", `C:\App\myapp.exe -silent`, `C:\App\myapp.exe`},
		{"Unquoted path with spaces", `C:\Program Files\App\app.exe /background`, `C:\Program Files\App\app.exe`},
		{"Path without exe extension", `C:\App\myapp --flag`, `C:\App\myapp`},
		{"Empty string", "", ""},
		{"Spaces only", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractExePath(tt.input); got != tt.expected {
				t.Errorf("extractExePath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractPublisher(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"Microsoft path", `C:\Program Files\Microsoft Teams\Teams.exe`, "Microsoft Corporation"},
		{"Google path", `C:\Program Files\Google\Chrome\Application\chrome.exe`, "Google LLC"},
		{"NVIDIA path", `C:\Program Files\NVIDIA Corporation\Display\nvtray.exe`, "NVIDIA Corporation"},
		{"Steam path", `C:\Program Files (x86)\Steam\Steam.exe`, "Valve Corporation"},
		{"Discord path", `C:\Users\test\AppData\Local\Discord\Update.exe`, "Discord Inc."},
		{"OneDrive path", `C:\Users\test\AppData\Local\Microsoft\OneDrive\OneDrive.exe`, "Microsoft Corporation"},
		{"AMD path", `C:\Program Files\AMD\CNext\RadeonSoftware.exe`, "AMD Inc."},
		{"AMD only as a folder", `C:\Tools\Camden\camden.exe`, ""},
		{"Unknown publisher", `C:\CustomApp\SomeUnknown\randomtool.exe`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPublisher(tt.path); got != tt.expected {
				t.Errorf("extractPublisher(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestKnownImpactKeys(t *testing.T) {
	for exe := range knownImpact {
		if exe != strings.ToLower(exe) || !strings.HasSuffix(exe, ".exe") {
			t.Errorf("knownImpact key %q should be a lower-case .exe name", exe)
		}
	}
}

func TestLocationDisplay(t *testing.T) {
	for _, l := range []Location{LocationHKCU, LocationHKLM, LocationStartupFolder, LocationTaskScheduler, LocationService} {
		if l.Display() == "Unknown" {
			t.Errorf("%s has no display name", l)
		}
	}
	if Location("x").Display() != "Unknown" {
		t.Error("unknown location should display as Unknown")
	}
}
