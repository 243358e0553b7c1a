package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"studydash/internal/calendar"
	"studydash/internal/ics"
	"studydash/internal/model"
	"studydash/internal/planner"
)

const barWidth = 20

// ProgressBar renders pct (clamped to [0,100]) as a bar of width cells.
func ProgressBar(pct int, width int, hex string) string {
	pct = model.ClampProgress(pct)
	if width <= 0 {
		width = barWidth
	}
	filled := pct * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if hex == "" {
		return Good.Render(bar)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(bar)
}

// MonthGrid renders the 6x7 grid followed by the month's events.
// Days with events are marked with "•".
func MonthGrid(v calendar.View) string {
	var b strings.Builder
	b.WriteString(Heading(IconCalendar, v.Title))
	b.WriteString("\n")

	header := make([]string, len(v.Weekdays))
	for i, w := range v.Weekdays {
		header[i] = fmt.Sprintf("%3s ", w)
	}
	b.WriteString(Muted.Render(strings.Join(header, "")))
	b.WriteString("\n")

	for i, c := range v.Cells {
		b.WriteString(renderCell(c))
		if i%7 == 6 {
			b.WriteString("\n")
		}
	}

	if len(v.Events) == 0 {
		b.WriteString(Muted.Render("no events this month"))
		b.WriteString("\n")
	} else {
		b.WriteString("\n")
		for _, ev := range v.Events {
			fmt.Fprintf(&b, "%s  %s\n", Key.Render(ev.Date), ev.Title)
		}
	}

	if v.Selected != "" {
		b.WriteString("\n")
		b.WriteString(Heading(IconCalendar, "Selected "+v.Selected))
		b.WriteString("\n")
		if len(v.SelectedEvents) == 0 {
			b.WriteString(Muted.Render("nothing scheduled"))
			b.WriteString("\n")
		}
		for _, ev := range v.SelectedEvents {
			fmt.Fprintf(&b, "  %s\n", ev.Title)
		}
	}
	return b.String()
}

func renderCell(c calendar.DayCell) string {
	day := fmt.Sprintf("%3d", c.Day)
	mark := " "
	if len(c.Events) > 0 {
		mark = "•"
	}

	switch {
	case !c.IsCurrentMonth:
		return outsideCell.Render(day) + mark
	case c.IsSelected:
		return selectedCell.Render(day) + mark
	case c.IsToday:
		return todayCell.Render(day) + mark
	case len(c.Events) > 0:
		return eventCell.Render(day) + mark
	default:
		return day + mark
	}
}

// TaskList renders one line per task with its id, status and date.
func TaskList(tasks []model.Task) string {
	if len(tasks) == 0 {
		return Muted.Render("no tasks") + "\n"
	}
	var b strings.Builder
	for _, t := range tasks {
		icon := IconPending
		text := t.Text
		if t.Completed {
			icon = IconDone
			text = Muted.Render(t.Text)
		}
		date := ""
		if t.Date != "" {
			date = " " + Muted.Render(t.Date)
		}
		fmt.Fprintf(&b, "%s %s %s%s\n", icon, Key.Render("["+t.ID+"]"), text, date)
	}
	return b.String()
}

// SubjectList renders each subject with a progress bar in its colour.
func SubjectList(subjects []model.Subject) string {
	if len(subjects) == 0 {
		return Muted.Render("no subjects") + "\n"
	}
	width := 0
	for _, s := range subjects {
		width = max(width, lipgloss.Width(s.Name))
	}

	var b strings.Builder
	for _, s := range subjects {
		fmt.Fprintf(&b, "%s %-*s %s %3d%% %s\n",
			Swatch(s.Color),
			width, s.Name,
			ProgressBar(s.Progress, barWidth, s.Color),
			s.Progress,
			Muted.Render("("+s.ID+")"),
		)
	}
	return b.String()
}

// StatsPanel renders the progress dashboard figures.
func StatsPanel(st planner.Stats) string {
	lines := []string{
		Heading(IconChart, "Progress"),
		LabelValue("Tasks", fmt.Sprintf("%d/%d completed", st.CompletedTasks, st.TotalTasks)),
		LabelValue("Pending", st.PendingTasks),
		LabelValue("Completion", fmt.Sprintf("%.1f%%", st.CompletionRate)),
		ProgressBar(int(st.CompletionRate), barWidth, planner.ColorCompleted),
		LabelValue("Average subject progress", fmt.Sprintf("%.1f%%", st.AverageProgress)),
	}
	if len(st.Subjects) > 0 {
		lines = append(lines, "")
		for _, s := range st.Subjects {
			lines = append(lines, fmt.Sprintf("%s %s %3d%%", ProgressBar(s.Progress, barWidth, s.Color), s.Name, s.Progress))
		}
	}
	return Panel.Render(strings.Join(lines, "\n")) + "\n"
}

// SyncReport renders the outcome of one import run.
func SyncReport(reports []ics.SourceReport) string {
	if len(reports) == 0 {
		return Muted.Render("no calendar feeds configured") + "\n"
	}
	var b strings.Builder
	b.WriteString(Heading(IconSync, "Calendar sync"))
	b.WriteString("\n")
	for _, r := range reports {
		if r.Error != "" {
			fmt.Fprintf(&b, "%s %s %s\n", Bad.Render("✗"), Key.Render(r.Source), Bad.Render(r.Error))
			continue
		}
		origin := "fetched"
		if r.FromCache {
			origin = "cached"
		}
		fmt.Fprintf(&b, "%s %s %d events (%s) +%d ~%d -%d\n",
			Good.Render("✓"), Key.Render(r.Source), r.Events, origin,
			r.Merge.Added, r.Merge.Updated, r.Merge.Removed)
		if len(r.Truncated) > 0 {
			fmt.Fprintf(&b, "  %s %s\n", Warn.Render(IconWarn+" truncated:"), strings.Join(r.Truncated, ", "))
		}
	}
	return b.String()
}
