package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pcmanager/internal/cleanup"
	"pcmanager/internal/dashboard"
	"pcmanager/internal/diskscan"
	"pcmanager/internal/memory"
	"pcmanager/internal/power"
	"pcmanager/internal/services"
	"pcmanager/internal/settings"
	"pcmanager/internal/startup"
	"pcmanager/internal/system"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
)

const (
	defaultFolderDepth = diskscan.DefaultMaxDepth
	defaultLargeFileMB = 100

	topFolders   = 20
	topFiles     = 25
	topProcesses = 15
)

var (
	green  = color.New(color.FgHiGreen, color.Bold)
	cyan   = color.New(color.FgHiCyan)
	yellow = color.New(color.FgHiYellow)
	red    = color.New(color.FgHiRed)
	faint  = color.New(color.Faint)
)

func runCLI(app *App) {
	fmt.Println()
	green.Println("  PC Performance Manager")
	cyan.Printf("  Version %s\n", Version)
	fmt.Println("  ─────────────────────────────────────────────")
	if !system.IsAdmin() {
		yellow.Println("  Not elevated: RAM trimming and service changes need an administrator terminal.")
	}
	fmt.Println()

	for {
		prompt := promptui.Select{
			Label: "What would you like to do?",
			Items: []string{
				"Dashboard",
				"RAM",
				"Disk Analyzer",
				"Services",
				"Startup Programs",
				"Power Plans",
				"Temp Cleanup",
				"Settings",
				"Restore Changes",
				"Exit",
			},
			Size: 10,
		}

		i, _, err := prompt.Run()
		if err != nil {
			return
		}

		fmt.Println()

		switch i {
		case 0:
			cliDashboard(app)
		case 1:
			cliMemory(app)
		case 2:
			cliDisk(app)
		case 3:
			cliServices(app)
		case 4:
			cliStartup(app)
		case 5:
			cliPower(app)
		case 6:
			cliCleanup(app)
		case 7:
			cliSettings(app)
		case 8:
			cliRestore(app)
		case 9:
			green.Println("  Bye!")
			return
		}
		fmt.Println()
	}
}

func printError(err error) {
	switch {
	case errors.Is(err, system.ErrNotAdmin):
		red.Println("  Administrator privileges are required. Run pcmanager from an elevated terminal.")
	case errors.Is(err, context.Canceled):
		yellow.Println("  Cancelled.")
	default:
		red.Printf("  Error: %v\n", err)
	}
}

func confirm(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err == nil
}

// choose shows items plus a trailing "Back" entry and returns the picked
// index, or -1 for Back or an aborted prompt.
func choose(label string, items []string) int {
	all := append(append([]string{}, items...), "Back")
	prompt := promptui.Select{
		Label: label,
		Items: all,
		Size:  15,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(all[index]), strings.ToLower(input))
		},
	}
	i, _, err := prompt.Run()
	if err != nil || i == len(items) {
		return -1
	}
	return i
}

func usageColor(percent float64) *color.Color {
	switch {
	case percent >= 85:
		return red
	case percent >= 60:
		return yellow
	default:
		return color.New(color.FgHiGreen)
	}
}

func mbToBytes(mb int) int64 {
	return int64(mb) * 1024 * 1024
}

// ============================================================
// Dashboard
// ============================================================

func printSnapshot(s dashboard.Snapshot) {
	cyan.Println("  ═══ Dashboard ═══")
	fmt.Printf("  Host:        %s (%s)\n", s.System.Hostname, s.System.Platform)
	if s.Uptime > 0 {
		fmt.Printf("  Uptime:      %s\n", s.Uptime.Round(time.Minute))
	}

	if s.Cards.CPU {
		fmt.Printf("  CPU:         %s (%dC/%dT)\n", s.System.CPUName, s.System.CPUCores, s.System.LogicalProcessors)
		usageColor(s.CPUUsage).Printf("  CPU Usage:   %.1f%%\n", s.CPUUsage)
	}
	if s.Cards.Memory {
		usageColor(s.Memory.UsagePercent).Printf("  RAM:         %s / %s (%.1f%%)\n",
			humanize.IBytes(s.Memory.Used),
			humanize.IBytes(s.Memory.Total),
			s.Memory.UsagePercent)
	}
	if s.Cards.Disk && s.DiskTotal > 0 {
		pct := float64(s.DiskUsed()) / float64(s.DiskTotal) * 100
		usageColor(pct).Printf("  Disks:       %s free of %s (%.0f%% used)\n",
			humanize.IBytes(s.DiskFree),
			humanize.IBytes(s.DiskTotal),
			pct)
	}
	if s.Cards.Power {
		plan := s.PowerPlan
		if plan == "" {
			plan = "Unknown"
		}
		fmt.Printf("  Power Plan:  %s\n", plan)
	}
	if s.Trimmed > 0 {
		green.Printf("  Auto RAM cleanup trimmed %d processes\n", s.Trimmed)
	}
	faint.Printf("  Updated %s\n", s.Timestamp.Format("15:04:05"))
}

func cliDashboard(app *App) {
	if app.Settings().AutoRefreshEnabled {
		liveDashboard(app)
		return
	}

	for {
		snap, err := app.Snapshot()
		if err != nil {
			printError(err)
			return
		}
		printSnapshot(snap)
		fmt.Println()

		switch choose("Dashboard", []string{"Refresh", "Live view", "Quick RAM cleanup"}) {
		case 0:
			fmt.Println()
		case 1:
			liveDashboard(app)
			return
		case 2:
			cliTrim(app)
			fmt.Println()
		default:
			return
		}
	}
}

// liveDashboard redraws the overview on the configured interval until the
// user presses Enter.
func liveDashboard(app *App) {
	ctx, cancel := context.WithCancel(app.ctx)
	defer cancel()

	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		cancel()
	}()

	interval := dashboard.Interval(app.Settings())
	app.WatchDashboard(ctx, func(s dashboard.Snapshot) {
		fmt.Print("\033[H\033[2J")
		printSnapshot(s)
		faint.Printf("\n  Refreshing every %s. Press Enter to stop.\n", interval)
	})
}

// ============================================================
// RAM
// ============================================================

func cliProcesses(app *App) error {
	procs, err := app.TopProcesses(topProcesses)
	if err != nil {
		return err
	}
	cyan.Println("  ═══ Top Memory Consumers ═══")
	for _, p := range procs {
		fmt.Printf("  %-32s %7d  %10s  %5.1f%%\n", p.Name, p.PID, humanize.IBytes(p.Memory), p.Percent)
	}
	return nil
}

func cliMemory(app *App) {
	for {
		status, err := app.MemoryStatus()
		if err != nil {
			printError(err)
			return
		}
		cyan.Println("  ═══ Memory ═══")
		usageColor(status.UsagePercent).Printf("  Used:        %s / %s (%.1f%%)\n",
			humanize.IBytes(status.Used), humanize.IBytes(status.Total), status.UsagePercent)
		fmt.Printf("  Available:   %s (%.1f%%)\n", humanize.IBytes(status.Available), status.FreePercent())
		fmt.Println()
		if err := cliProcesses(app); err != nil {
			printError(err)
		}
		fmt.Println()

		switch choose("Memory", []string{
			"Trim working sets",
			"Trim one process",
			"Close background apps",
			"Close safe background apps automatically",
			"Show possible memory leaks",
		}) {
		case 0:
			cliTrim(app)
		case 1:
			cliTrimOne(app)
		case 2:
			cliCloseApps(app)
		case 3:
			if !confirm("Close every background app rated safe") {
				continue
			}
			res, err := app.AutoCleanSafe()
			if err != nil {
				printError(err)
				continue
			}
			printTerminateResult(res)
		case 4:
			cliLeaks(app)
		default:
			return
		}
		fmt.Println()
	}
}

func cliTrim(app *App) {
	before, _ := app.MemoryStatus()
	yellow.Println("  Trimming process working sets...")
	n, err := app.TrimMemory()
	if err != nil {
		if errors.Is(err, memory.ErrNothingTrimmed) {
			yellow.Println("  No process could be trimmed.")
			return
		}
		printError(err)
		return
	}
	after, _ := app.MemoryStatus()
	green.Printf("  ✓ Trimmed %d processes", n)
	if before != nil && after != nil && before.Used > after.Used {
		green.Printf(", %s released", humanize.IBytes(before.Used-after.Used))
	}
	fmt.Println()
}

func cliTrimOne(app *App) {
	procs, err := app.ProcessUsage()
	if err != nil {
		printError(err)
		return
	}
	if len(procs) == 0 {
		green.Println("  No process uses more than 50 MB.")
		return
	}
	lines := make([]string, len(procs))
	for i, p := range procs {
		lines[i] = fmt.Sprintf("%-32s %7d  %10s", p.Name, p.PID, humanize.IBytes(p.Memory))
	}
	i := choose("Process to trim", lines)
	if i < 0 {
		return
	}
	if err := app.TrimProcess(procs[i].PID); err != nil {
		printError(err)
		return
	}
	green.Printf("  ✓ Trimmed %s\n", procs[i].Name)
}

func cliLeaks(app *App) {
	procs, err := app.MemoryLeaks()
	if err != nil {
		printError(err)
		return
	}
	if len(procs) == 0 {
		green.Println("  No process is above the leak threshold.")
		return
	}
	yellow.Printf("  Processes above %s:\n", humanize.IBytes(memory.LeakThreshold))
	for _, p := range procs {
		fmt.Printf("    %-32s %7d  %s\n", p.Name, p.PID, humanize.IBytes(p.Memory))
	}
}

func riskColor(r memory.RiskLevel) *color.Color {
	switch r {
	case memory.RiskSafe:
		return color.New(color.FgHiGreen)
	case memory.RiskLow:
		return cyan
	case memory.RiskMedium:
		return yellow
	default:
		return red
	}
}

func cliCloseApps(app *App) {
	procs, err := app.UnnecessaryProcesses()
	if err != nil {
		printError(err)
		return
	}
	if len(procs) == 0 {
		green.Println("  No known background apps are running.")
		return
	}

	for {
		items := make([]string, len(procs)+1)
		for i, p := range procs {
			mark := "[ ]"
			if p.Selected {
				mark = "[x]"
			}
			items[i] = fmt.Sprintf("%s %-28s %8.0f MB  %-6s %s", mark, p.DisplayName, p.MemoryMB, strings.ToUpper(string(p.Risk)), p.Category)
		}
		items[len(procs)] = "Close selected"

		i := choose("Toggle apps to close", items)
		if i < 0 {
			return
		}
		if i < len(procs) {
			procs[i].Selected = !procs[i].Selected
			continue
		}
		break
	}

	var selected []memory.CleanableProcess
	for _, p := range procs {
		if p.Selected {
			selected = append(selected, p)
			riskColor(p.Risk).Printf("    %s (%s)\n", p.DisplayName, p.Description)
		}
	}
	if len(selected) == 0 {
		yellow.Println("  Nothing selected.")
		return
	}
	if !confirm(fmt.Sprintf("Close %d apps", len(selected))) {
		return
	}

	res, err := app.TerminateProcesses(selected)
	if err != nil {
		printError(err)
		return
	}
	printTerminateResult(res)
}

func printTerminateResult(res memory.TerminateResult) {
	green.Printf("  ✓ Closed %d apps, about %.0f MB freed\n", res.Terminated, res.FreedMB)
	if res.Failed > 0 {
		yellow.Printf("  %d apps could not be closed\n", res.Failed)
	}
}

// ============================================================
// Disk Analyzer
// ============================================================

func cliDrives(app *App) error {
	drives, err := app.Drives()
	if err != nil {
		return err
	}
	cyan.Println("  ═══ Drives ═══")
	for _, d := range drives {
		usageColor(d.UsedPercent()).Printf("  %-4s %-16s %-6s %10s free / %10s (%.0f%% used)\n",
			d.Letter, d.Label, d.FileSystem,
			humanize.IBytes(d.Free), humanize.IBytes(d.Total), d.UsedPercent())
	}
	return nil
}

func cliFolders(ctx context.Context, app *App, root string, depth int) error {
	yellow.Printf("  Scanning folders under %s...\n", root)
	start := time.Now()
	folders, stats, err := app.FolderSizes(ctx, root, depth)
	if err != nil {
		return err
	}

	total, _, err := app.FolderTotal(ctx, root)
	if err != nil {
		return err
	}

	cyan.Printf("  ═══ Largest folders (depth %d) ═══\n", depth)
	fmt.Printf("  Total under %s: %s\n", root, humanize.IBytes(uint64(total)))
	for i, f := range folders {
		if i == topFolders {
			break
		}
		fmt.Printf("  %10s  %7d files  %s%s\n", humanize.IBytes(uint64(f.Size)), f.FileCount, strings.Repeat("  ", max(f.Depth-1, 0)), f.Path)
	}
	printStats(stats, time.Since(start))
	return nil
}

func cliLargeFiles(ctx context.Context, app *App, root string, minMB int) error {
	yellow.Printf("  Looking for files of at least %d MB under %s...\n", minMB, root)
	start := time.Now()
	files, stats, err := app.LargeFiles(ctx, root, mbToBytes(minMB))
	if err != nil {
		return err
	}

	cyan.Println("  ═══ Large files ═══")
	if len(files) == 0 {
		green.Println("  None found.")
	}
	for i, f := range files {
		if i == topFiles {
			yellow.Printf("  ... and %d more\n", len(files)-topFiles)
			break
		}
		fmt.Printf("  %10s  %s  %s\n", humanize.IBytes(uint64(f.Size)), f.Modified.Format("2006-01-02"), f.Path)
	}
	printStats(stats, time.Since(start))
	return nil
}

func printStats(stats diskscan.Stats, elapsed time.Duration) {
	faint.Printf("  %s folders, %s files scanned in %s", humanize.Comma(int64(stats.Dirs)), humanize.Comma(int64(stats.Files)), elapsed.Round(time.Millisecond))
	if stats.Skipped > 0 {
		faint.Printf(", %d skipped", stats.Skipped)
	}
	fmt.Println()
}

func cliDisk(app *App) {
	if err := cliDrives(app); err != nil {
		printError(err)
	}
	fmt.Println()

	root := filepath.VolumeName(os.Getenv("SystemDrive")) + string(filepath.Separator)
	if root == string(filepath.Separator) {
		if home, err := os.UserHomeDir(); err == nil {
			root = home
		}
	}

	for {
		i := choose("Disk Analyzer", []string{"Folder sizes", "Large files"})
		if i < 0 {
			return
		}

		rootPrompt := promptui.Prompt{
			Label:   "Folder to scan",
			Default: root,
			Validate: func(s string) error {
				info, err := os.Stat(strings.TrimSpace(s))
				if err != nil || !info.IsDir() {
					return fmt.Errorf("not a folder")
				}
				return nil
			},
		}
		answer, err := rootPrompt.Run()
		if err != nil {
			continue
		}
		root = strings.TrimSpace(answer)

		ctx, cancel := context.WithCancel(app.ctx)
		switch i {
		case 0:
			err = cliFolders(ctx, app, root, defaultFolderDepth)
		case 1:
			err = cliLargeFiles(ctx, app, root, defaultLargeFileMB)
		}
		cancel()
		if err != nil {
			printError(err)
		}
		fmt.Println()
	}
}

// ============================================================
// Services
// ============================================================

func serviceLine(s services.Service) string {
	flag := ""
	switch {
	case s.Critical:
		flag = "critical"
	case s.SafeToStop:
		flag = "safe to stop"
	}
	return fmt.Sprintf("%-40.40s %-9s %-18s %s", s.DisplayName, s.Status, s.StartType, flag)
}

func cliServices(app *App) {
	for {
		var (
			list []services.Service
			err  error
		)
		switch choose("Services", []string{"Automatic services", "All services"}) {
		case 0:
			list, err = app.AutoStartServices()
		case 1:
			list, err = app.Services()
		default:
			return
		}
		if err != nil {
			printError(err)
			continue
		}

		for {
			lines := make([]string, len(list))
			for i, s := range list {
				lines[i] = serviceLine(s)
			}
			i := choose("Pick a service (/ to search)", lines)
			if i < 0 {
				break
			}
			cliServiceActions(app, list[i])
			fmt.Println()
		}
	}
}

func cliServiceActions(app *App, s services.Service) {
	cyan.Printf("  %s (%s)\n", s.DisplayName, s.Name)
	if s.Description != "" {
		fmt.Printf("  %s\n", s.Description)
	}
	fmt.Printf("  Status: %s, start type: %s, category: %s\n", s.Status, s.StartType, s.Category)
	if s.Critical {
		red.Println("  Windows depends on this service. It cannot be stopped or disabled here.")
	}

	var err error
	switch choose("Action", []string{"Start", "Stop", "Set start type"}) {
	case 0:
		err = app.StartService(s.Name)
	case 1:
		if !s.SafeToStop && !confirm("This service is not known to be safe to stop. Stop anyway") {
			return
		}
		err = app.StopService(s.Name)
	case 2:
		types := []services.StartType{
			services.StartAutomatic,
			services.StartAutomaticDelayed,
			services.StartManual,
			services.StartDisabled,
		}
		labels := make([]string, len(types))
		for i, t := range types {
			labels[i] = string(t)
		}
		j := choose("Start type", labels)
		if j < 0 {
			return
		}
		err = app.SetServiceStartType(s.Name, types[j])
	default:
		return
	}

	if err != nil {
		printError(err)
		return
	}
	green.Println("  ✓ Done")
}

// ============================================================
// Startup Programs
// ============================================================

func impactColor(i startup.Impact) *color.Color {
	switch i {
	case startup.ImpactHigh:
		return red
	case startup.ImpactMedium:
		return yellow
	case startup.ImpactLow:
		return color.New(color.FgHiGreen)
	default:
		return faint
	}
}

func cliStartup(app *App) {
	for {
		items, err := app.StartupItems()
		if err != nil {
			printError(err)
			return
		}

		var enabled []startup.Item
		lines := make([]string, len(items))
		for i, it := range items {
			state := "off"
			if it.Enabled {
				state = "on "
				enabled = append(enabled, it)
			}
			lines[i] = fmt.Sprintf("[%s] %-36.36s %-7s %s", state, it.DisplayName, it.Impact, it.Location.Display())
		}

		cyan.Println("  ═══ Startup Programs ═══")
		fmt.Printf("  %d enabled of %d, estimated logon delay %s\n", len(enabled), len(items), startup.EstimateBootTime(enabled))
		fmt.Println()

		i := choose("Pick an item to toggle", lines)
		if i < 0 {
			return
		}

		it := items[i]
		impactColor(it.Impact).Printf("  %s: %s impact\n", it.DisplayName, it.Impact)
		if it.Publisher != "" {
			fmt.Printf("  Publisher: %s\n", it.Publisher)
		}
		fmt.Printf("  Command:   %s\n", it.Command)
		fmt.Printf("  Location:  %s\n", it.LocationPath)

		if it.Enabled {
			if !confirm("Disable " + it.DisplayName) {
				continue
			}
			err = app.DisableStartupItem(it)
		} else {
			if !confirm("Enable " + it.DisplayName) {
				continue
			}
			err = app.EnableStartupItem(it)
		}
		if err != nil {
			printError(err)
		} else {
			green.Println("  ✓ Done")
		}
		fmt.Println()
	}
}

// ============================================================
// Power Plans
// ============================================================

func printPlans(plans []power.Plan) {
	cyan.Println("  ═══ Power Plans ═══")
	for _, p := range plans {
		if p.Active {
			green.Printf("  * %-32s %s\n", p.Name, p.GUID)
		} else {
			fmt.Printf("    %-32s %s\n", p.Name, p.GUID)
		}
	}
}

func cliPowerPlans(app *App) error {
	plans, err := app.PowerPlans()
	if err != nil {
		return err
	}
	printPlans(plans)
	return nil
}

func cliPower(app *App) {
	for {
		plans, err := app.PowerPlans()
		if err != nil {
			printError(err)
			return
		}
		printPlans(plans)
		fmt.Println()

		items := make([]string, 0, len(plans)+1)
		for _, p := range plans {
			items = append(items, "Activate "+p.Name)
		}
		items = append(items, "Enable Ultimate Performance")

		i := choose("Power", items)
		if i < 0 {
			return
		}
		if i < len(plans) {
			err = app.SetPowerPlan(plans[i].GUID)
		} else {
			var plan power.Plan
			if plan, err = app.EnableUltimatePerformance(); err == nil {
				err = app.SetPowerPlan(plan.GUID)
			}
		}
		if err != nil {
			printError(err)
		} else {
			green.Println("  ✓ Power plan changed")
		}
		fmt.Println()
	}
}

// ============================================================
// Temp Cleanup
// ============================================================

func printCleanupItems(items []cleanup.Item) {
	cyan.Println("  ═══ Temp Cleanup ═══")
	var total int64
	for _, it := range items {
		mark := " "
		if it.Selected {
			mark = "✓"
			total += it.Size
		}
		fmt.Printf("  %s %-28s %10s  %6d files  %s\n", mark, it.Name, humanize.IBytes(uint64(it.Size)), it.FileCount, it.Path)
	}
	yellow.Printf("\n  Selected: %s\n", humanize.IBytes(uint64(total)))
}

func printCleanupResult(res cleanup.Result) {
	green.Printf("  ✓ %s\n", res.Message)
	for i, e := range res.Errors {
		if i == 5 {
			faint.Printf("    ... %d more\n", len(res.Errors)-5)
			break
		}
		faint.Printf("    %s\n", e)
	}
}

func cliCleanup(app *App) {
	yellow.Println("  Measuring temp folders...")
	items, err := app.AnalyzeTemp()
	if err != nil {
		printError(err)
		return
	}
	if len(items) == 0 {
		green.Println("  Nothing to clean.")
		return
	}

	for {
		printCleanupItems(items)
		fmt.Println()

		lines := make([]string, len(items)+1)
		for i, it := range items {
			mark := "[ ]"
			if it.Selected {
				mark = "[x]"
			}
			lines[i] = fmt.Sprintf("%s %s (%s)", mark, it.Name, humanize.IBytes(uint64(it.Size)))
		}
		lines[len(items)] = "Clean selected"

		i := choose("Toggle folders to clean", lines)
		if i < 0 {
			return
		}
		if i < len(items) {
			items[i].Selected = !items[i].Selected
			continue
		}
		break
	}

	if !confirm("Delete the contents of the selected folders") {
		return
	}
	res, err := app.CleanTemp(items)
	if err != nil {
		printError(err)
		return
	}
	printCleanupResult(res)
}

// ============================================================
// Settings
// ============================================================

func cliSettings(app *App) {
	edit := app.Settings()
	dirty := false

	for {
		keys := settings.Keys()
		lines := make([]string, 0, len(keys)+2)
		for _, k := range keys {
			v, _ := edit.Get(k)
			lines = append(lines, fmt.Sprintf("%-24s %s", k, v))
		}
		lines = append(lines, "Save", "Reset to defaults")

		faint.Printf("  %s\n", app.SettingsPath())
		i := choose("Settings", lines)
		switch {
		case i < 0:
			if dirty && confirm("Discard unsaved changes") {
				return
			}
			if !dirty {
				return
			}
		case i < len(keys):
			key := keys[i]
			current, _ := edit.Get(key)
			prompt := promptui.Prompt{
				Label:   key,
				Default: current,
				Validate: func(s string) error {
					probe := edit
					return probe.Set(key, s)
				},
			}
			value, err := prompt.Run()
			if err != nil {
				continue
			}
			if err := edit.Set(key, value); err != nil {
				printError(err)
				continue
			}
			dirty = true
		case i == len(keys):
			if err := app.SaveSettings(edit); err != nil {
				printError(err)
				continue
			}
			edit = app.Settings()
			dirty = false
			green.Println("  ✓ Settings saved")
		default:
			if !confirm("Reset every setting to its default") {
				continue
			}
			cfg, err := app.ResetSettings()
			if err != nil {
				printError(err)
			}
			edit = cfg
			dirty = false
			green.Println("  ✓ Settings reset")
		}
	}
}

// ============================================================
// Restore
// ============================================================

func cliRestore(app *App) {
	state, ok := app.JournalState()
	if !ok {
		red.Println("  The change journal could not be read; nothing can be restored.")
		return
	}

	cyan.Println("  ═══ Recorded Changes ═══")
	if len(state.Services) == 0 && state.PowerPlan == "" && len(state.Startup) == 0 {
		green.Println("  Nothing has been changed.")
		return
	}
	names := make([]string, 0, len(state.Services))
	for name := range state.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  Service %-32s was %s\n", name, state.Services[name])
	}
	if state.PowerPlan != "" {
		fmt.Printf("  Power plan was %s\n", state.PowerPlan)
	}
	for _, e := range state.Startup {
		faint.Printf("  Startup item %s disabled %s (re-enable it under Startup Programs)\n", e.Name, e.DisabledAt)
	}
	fmt.Println()

	if len(state.Services) == 0 && state.PowerPlan == "" {
		return
	}
	if !confirm("Restore the original service start types and power plan") {
		return
	}
	if err := app.RestoreAll(); err != nil {
		printError(err)
		return
	}
	green.Println("  ✓ Restored")
}
