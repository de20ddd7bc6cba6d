package summary

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/Iron-Ham/teamlabel/internal/util"
)

// MaxCellWidth bounds a console table cell.
const MaxCellWidth = 72

// Outcome is the one-word classification of a run.
type Outcome string

const (
	OutcomeLabeled    Outcome = "labeled"
	OutcomeNotActed   Outcome = "not-acted"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeFailed     Outcome = "failed"
	OutcomeIncomplete Outcome = "incomplete"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F87171"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

// Classify returns the outcome of run.
func Classify(run Run) Outcome {
	switch {
	case !run.Completed:
		return OutcomeIncomplete
	case run.Err != nil:
		return OutcomeFailed
	case !run.Decided:
		return OutcomeSkipped
	case run.Participated:
		return OutcomeLabeled
	default:
		return OutcomeNotActed
	}
}

// Verdict is a one-line, unstyled description of run.
func Verdict(run Run) string {
	switch Classify(run) {
	case OutcomeIncomplete:
		return "run did not complete"
	case OutcomeFailed:
		return "run failed: " + run.Err.Error()
	case OutcomeSkipped:
		return "decision skipped"
	case OutcomeLabeled:
		actors := strings.Join(run.Actors, ", ")
		switch {
		case run.Label == "":
			return fmt.Sprintf("team acted (%s); no label configured", actors)
		case run.LabelDryRun:
			return fmt.Sprintf("team acted (%s); would label %q", actors, run.Label)
		case run.LabelPresent:
			return fmt.Sprintf("team acted (%s); %q already present", actors, run.Label)
		default:
			return fmt.Sprintf("team acted (%s); labeled %q", actors, run.Label)
		}
	default:
		return "no team member has acted"
	}
}

// Rows returns the summary as field/value pairs, in display order.
func Rows(run Run) [][]string {
	rows := [][]string{
		{"Run", run.RunID},
		{"Request", fmt.Sprintf("%s#%d", run.Repo, run.Number)},
		{"Event", run.EventName},
		{"Outcome", string(Classify(run))},
	}
	if run.Team != "" {
		rows = append(rows, []string{"Team", fmt.Sprintf("%s (%d members)", run.Team, run.RosterSize)})
	}
	if run.Decided {
		rows = append(rows,
			[]string{"Participants", fmt.Sprint(run.Participants)},
			[]string{"Team actors", orNone(strings.Join(run.Actors, ", "))},
		)
	}
	if run.Label != "" {
		rows = append(rows, []string{"Label", labelState(run)})
	}
	if run.ChannelMapErr != nil {
		rows = append(rows, []string{"Channel map", "invalid: " + run.ChannelMapErr.Error()})
	} else if len(run.Channels) > 0 {
		rows = append(rows, []string{"Channels", strings.Join(run.Channels, ", ")})
	}
	if len(run.Sent) > 0 {
		rows = append(rows, []string{"Notified", strings.Join(run.Sent, ", ")})
	}
	for _, ch := range slices.Sorted(maps.Keys(run.Failed)) {
		rows = append(rows, []string{"Failed " + ch, run.Failed[ch].Error()})
	}
	for _, stage := range slices.Sorted(maps.Keys(run.Skipped)) {
		rows = append(rows, []string{"Skipped " + stage, "missing " + strings.Join(run.Skipped[stage], ", ")})
	}
	if run.Completed {
		rows = append(rows, []string{"Duration", run.Duration.Round(time.Millisecond).String()})
	}
	return rows
}

// WriteMarkdown renders run as a markdown section with a two-column table.
func WriteMarkdown(w io.Writer, run Run) error {
	if _, err := fmt.Fprintf(w, "### teamlabel\n\n%s\n\n", Verdict(run)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	for _, row := range Rows(run) {
		table.Append([]string{row[0], escapeMarkdown(row[1])})
	}
	table.Render()

	_, err := io.WriteString(w, "\n")
	return err
}

// AppendStepSummary appends the markdown summary to the file at path,
// which the Actions runner renders on the workflow run page. An empty path
// is a no-op.
func AppendStepSummary(path string, run Run) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening step summary: %w", err)
	}
	if err := WriteMarkdown(f, run); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing step summary: %w", err)
	}
	return f.Close()
}

// WriteConsole renders a styled verdict line followed by a plain table.
func WriteConsole(w io.Writer, run Run) {
	_, _ = fmt.Fprintln(w, styleFor(Classify(run)).Render(Verdict(run)))

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	for _, row := range Rows(run) {
		table.Append([]string{mutedStyle.Render(row[0]), util.TruncateANSI(row[1], MaxCellWidth)})
	}
	table.Render()
}

func styleFor(o Outcome) lipgloss.Style {
	switch o {
	case OutcomeLabeled:
		return successStyle
	case OutcomeFailed, OutcomeIncomplete:
		return errorStyle
	default:
		return warningStyle
	}
}

func labelState(run Run) string {
	switch {
	case run.LabelDryRun:
		return run.Label + " (dry run)"
	case run.LabelPresent:
		return run.Label + " (already present)"
	default:
		return run.Label + " (added)"
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
