package handler

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/mariners-hub/mariners-gameday-hub/internal/infrastructure/scheduler"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS HANDLER
// Handles /status - shows the health of the background jobs and the
// dependency checks. Restricted to admin chats.
// ══════════════════════════════════════════════════════════════════════════════

// DependencyChecker reports the health of an external dependency.
type DependencyChecker interface {
	// Check returns nil when the dependency is reachable.
	Check(ctx context.Context) error
}

// DependencyCheckerFunc adapts a function to the DependencyChecker interface.
type DependencyCheckerFunc func(ctx context.Context) error

// Check calls f.
func (f DependencyCheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// StatusHandler handles the /status command.
type StatusHandler struct {
	scheduler *scheduler.Scheduler
	deps      map[string]DependencyChecker
	adminIDs  map[int64]bool
	startedAt time.Time
}

// NewStatusHandler creates a new StatusHandler. deps maps a display name
// to its checker; adminIDs lists the chats allowed to use the command.
func NewStatusHandler(sched *scheduler.Scheduler, deps map[string]DependencyChecker, adminIDs []int64) *StatusHandler {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	return &StatusHandler{
		scheduler: sched,
		deps:      deps,
		adminIDs:  admins,
		startedAt: time.Now(),
	}
}

// StatusRequest contains the parsed /status command data.
type StatusRequest struct {
	// ChatID is the chat that sent the command.
	ChatID int64
}

// Handle processes the /status command.
func (h *StatusHandler) Handle(ctx context.Context, req StatusRequest) (*Response, error) {
	if len(h.adminIDs) > 0 && !h.adminIDs[req.ChatID] {
		return errorResponse("This command is restricted."), nil
	}

	var sb strings.Builder

	sb.WriteString("🩺 <b>Bot Status</b>\n\n")
	sb.WriteString(fmt.Sprintf("⏱ Uptime: %s\n\n", formatUptime(time.Since(h.startedAt))))

	sb.WriteString(h.buildDependencySection(ctx))
	sb.WriteString(h.buildJobSection())

	return &Response{
		Text:      sb.String(),
		ParseMode: "HTML",
	}, nil
}

// buildDependencySection checks each dependency with a short timeout.
func (h *StatusHandler) buildDependencySection(ctx context.Context) string {
	if len(h.deps) == 0 {
		return ""
	}

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("🔌 <b>Dependencies</b>\n")

	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := h.deps[name].Check(checkCtx)
		cancel()

		if err != nil {
			sb.WriteString(fmt.Sprintf("   ❌ %s: %s\n", html.EscapeString(name), html.EscapeString(err.Error())))
		} else {
			sb.WriteString(fmt.Sprintf("   ✅ %s\n", html.EscapeString(name)))
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// buildJobSection lists the registered jobs with their run counters.
func (h *StatusHandler) buildJobSection() string {
	if h.scheduler == nil {
		return ""
	}

	jobs := h.scheduler.ListJobs()
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	var sb strings.Builder
	sb.WriteString("📋 <b>Jobs</b>\n")

	for _, j := range jobs {
		marker := "✅"
		if !j.Enabled {
			marker = "⏸"
		} else if j.FailCount > 0 && j.LastResult != nil && !j.LastResult.Success {
			marker = "❌"
		}

		sb.WriteString(fmt.Sprintf("   %s <b>%s</b> (%s)\n", marker, html.EscapeString(j.Name), html.EscapeString(j.Schedule)))
		sb.WriteString(fmt.Sprintf("      runs %d, failed %d, skipped %d\n", j.RunCount, j.FailCount, j.SkipCount))

		if !j.LastRun.IsZero() {
			sb.WriteString(fmt.Sprintf("      last %s ago", formatUptime(time.Since(j.LastRun))))
			if !j.NextRun.IsZero() {
				sb.WriteString(fmt.Sprintf(", next in %s", formatUptime(time.Until(j.NextRun))))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// formatUptime renders a duration as "3d4h", "2h15m", or "42s".
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh%dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
