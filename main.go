package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"pcmanager/internal/dashboard"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [command]

Without a command an interactive menu is shown.

Commands:
  dashboard [--watch]          system overview, optionally refreshed
  drives                       fixed drives and free space
  folders <root> [depth]       folder sizes under root (default depth %d)
  largefiles <root> [minMB]    files of at least minMB under root (default %d)
  processes                    processes using the most memory
  power [name]                 list power plans or activate one by name
  cleanup                      temp folder sizes; add --yes to empty them
  restore                      undo recorded service and power plan changes
  --version                    print the version
`, os.Args[0], defaultFolderDepth, defaultLargeFileMB)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("pcmanager version %s\n", Version)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	app := NewApp()
	app.startup(ctx)
	defer app.shutdown()

	if len(args) == 0 {
		runCLI(app)
		return
	}

	if err := runCommand(ctx, app, args[0], args[1:]); err != nil {
		printError(err)
		app.shutdown()
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, app *App, name string, args []string) error {
	switch name {
	case "dashboard":
		if len(args) > 0 && args[0] == "--watch" {
			app.WatchDashboard(ctx, func(s dashboard.Snapshot) {
				fmt.Print("\033[H\033[2J")
				printSnapshot(s)
			})
			return nil
		}
		snap, err := app.Snapshot()
		if err != nil {
			return err
		}
		printSnapshot(snap)
	case "drives":
		return cliDrives(app)
	case "folders":
		if len(args) < 1 {
			return fmt.Errorf("folders needs a root directory")
		}
		depth, err := intArg(args, 1, defaultFolderDepth)
		if err != nil {
			return err
		}
		return cliFolders(ctx, app, args[0], depth)
	case "largefiles":
		if len(args) < 1 {
			return fmt.Errorf("largefiles needs a root directory")
		}
		minMB, err := intArg(args, 1, defaultLargeFileMB)
		if err != nil {
			return err
		}
		return cliLargeFiles(ctx, app, args[0], minMB)
	case "processes":
		return cliProcesses(app)
	case "power":
		if len(args) > 0 {
			plan, err := app.SetPowerPlanByName(args[0])
			if err != nil {
				return err
			}
			green.Printf("  ✓ Active power plan: %s\n", plan.Name)
			return nil
		}
		return cliPowerPlans(app)
	case "cleanup":
		items, err := app.AnalyzeTemp()
		if err != nil {
			return err
		}
		printCleanupItems(items)
		if len(args) > 0 && args[0] == "--yes" {
			res, err := app.CleanTemp(items)
			if err != nil {
				return err
			}
			printCleanupResult(res)
		}
	case "restore":
		if err := app.RestoreAll(); err != nil {
			return err
		}
		green.Println("  ✓ Recorded changes restored")
	default:
		usage()
		return fmt.Errorf("unknown command %q", name)
	}
	return nil
}

func intArg(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid number %q", args[i])
	}
	return n, nil
}
