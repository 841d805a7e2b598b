// Package power lists and switches Windows power plans through powercfg.
package power

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pcmanager/internal/cmd"
)

// UltimatePerformanceGUID is the built-in template behind the hidden
// Ultimate Performance plan.
const UltimatePerformanceGUID = "e9a42b02-d5df-448d-aa00-03f14749eb61"

// ErrPlanNotFound is returned when no plan matches a GUID or name.
var ErrPlanNotFound = errors.New("power plan not found")

// Plan is one power scheme.
type Plan struct {
	GUID   string `json:"guid"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Recorder receives the plan that was active before a switch.
type Recorder interface {
	RecordPowerPlan(guid string) error
}

// Manager runs powercfg.
type Manager struct {
	run     cmd.Runner
	journal Recorder
}

// NewManager returns a Manager. rec may be nil.
func NewManager(rec Recorder) *Manager {
	return &Manager{run: cmd.Output, journal: rec}
}

// NewManagerWithRunner is NewManager with a custom command runner.
func NewManagerWithRunner(run cmd.Runner, rec Recorder) *Manager {
	return &Manager{run: run, journal: rec}
}

func (m *Manager) powercfg(ctx context.Context, args ...string) (string, error) {
	out, err := m.run(ctx, "powercfg", args...)
	if err != nil {
		return "", fmt.Errorf("powercfg %s: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Plans returns every installed plan in powercfg order.
func (m *Manager) Plans(ctx context.Context) ([]Plan, error) {
	out, err := m.powercfg(ctx, "/list")
	if err != nil {
		return nil, err
	}
	return parseList(out), nil
}

// Active returns the plan currently in use.
func (m *Manager) Active(ctx context.Context) (Plan, error) {
	out, err := m.powercfg(ctx, "/getactivescheme")
	if err != nil {
		return Plan{}, err
	}
	p, ok := parseLine(out)
	if !ok {
		return Plan{}, fmt.Errorf("could not parse active scheme from %q: %w", strings.TrimSpace(out), ErrPlanNotFound)
	}
	p.Active = true
	return p, nil
}

// SetActive switches to the plan with the given GUID. The plan that was
// active before the first switch is journaled.
func (m *Manager) SetActive(ctx context.Context, guid string) error {
	guid = strings.ToLower(strings.TrimSpace(guid))
	if !isGUID(guid) {
		return fmt.Errorf("invalid plan GUID %q", guid)
	}

	if m.journal != nil {
		if cur, err := m.Active(ctx); err == nil {
			if cur.GUID == guid {
				return nil
			}
			if err := m.journal.RecordPowerPlan(cur.GUID); err != nil {
				slog.Warn("failed to journal power plan", "guid", cur.GUID, "error", err)
			}
		}
	}

	if _, err := m.powercfg(ctx, "/setactive", guid); err != nil {
		return err
	}
	slog.Info("power plan activated", "guid", guid)
	return nil
}

// SetActiveByName switches to the first plan whose name contains name,
// ignoring case.
func (m *Manager) SetActiveByName(ctx context.Context, name string) (Plan, error) {
	plans, err := m.Plans(ctx)
	if err != nil {
		return Plan{}, err
	}
	p, ok := FindByName(plans, name)
	if !ok {
		return Plan{}, fmt.Errorf("%q: %w", name, ErrPlanNotFound)
	}
	if err := m.SetActive(ctx, p.GUID); err != nil {
		return Plan{}, err
	}
	p.Active = true
	return p, nil
}

// EnableUltimate makes the Ultimate Performance plan available and
// activates it. An existing copy is reused.
func (m *Manager) EnableUltimate(ctx context.Context) (Plan, error) {
	plans, err := m.Plans(ctx)
	if err != nil {
		return Plan{}, err
	}
	if p, ok := findUltimate(plans); ok {
		return p, m.SetActive(ctx, p.GUID)
	}

	out, err := m.powercfg(ctx, "/duplicatescheme", UltimatePerformanceGUID)
	if err != nil {
		return Plan{}, err
	}
	p, ok := parseLine(out)
	if !ok {
		return Plan{}, fmt.Errorf("could not determine plan GUID from %q: %w", strings.TrimSpace(out), ErrPlanNotFound)
	}
	if err := m.SetActive(ctx, p.GUID); err != nil {
		return Plan{}, err
	}
	p.Active = true
	return p, nil
}

// FindByName returns the first plan whose name contains name, ignoring case.
func FindByName(plans []Plan, name string) (Plan, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Plan{}, false
	}
	for _, p := range plans {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return p, true
		}
	}
	return Plan{}, false
}

func findUltimate(plans []Plan) (Plan, bool) {
	for _, p := range plans {
		if p.GUID == UltimatePerformanceGUID {
			return p, true
		}
	}
	return FindByName(plans, "ultimate")
}

// parseList reads `powercfg /list`. Lines look like
// "Power Scheme GUID: 381b4222-f694-41f0-9685-ff5bb260df2e  (Balanced) *"
// where the trailing star marks the active plan. The label before the GUID
// is localized, so lines are matched on the GUID itself.
func parseList(output string) []Plan {
	var plans []Plan
	for _, line := range strings.Split(output, "\n") {
		p, ok := parseLine(line)
		if !ok {
			continue
		}
		p.Active = strings.HasSuffix(strings.TrimSpace(line), "*")
		plans = append(plans, p)
	}
	return plans
}

// parseLine extracts the first GUID and the parenthesized name after it.
func parseLine(line string) (Plan, bool) {
	for _, field := range strings.Fields(line) {
		candidate := strings.Trim(field, "()*")
		if !isGUID(candidate) {
			continue
		}
		p := Plan{GUID: strings.ToLower(candidate)}
		rest := line[strings.Index(line, candidate)+len(candidate):]
		if open := strings.Index(rest, "("); open >= 0 {
			if end := strings.LastIndex(rest, ")"); end > open {
				p.Name = strings.TrimSpace(rest[open+1 : end])
			}
		}
		return p, true
	}
	return Plan{}, false
}

func isGUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, c := range s {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			if c != '-' {
				return false
			}
			continue
		}
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
