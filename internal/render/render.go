// Package render formats interview output for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spigell/interviewer/internal/interview"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	goodStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	followUpStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("141"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

// Action renders what the interviewer says next.
func Action(a interview.Action) string {
	var b strings.Builder

	header := fmt.Sprintf("%s  %s", strings.ReplaceAll(a.Phase.String(), "_", " "), a.Progress)
	b.WriteString(titleStyle.Render(strings.TrimSpace(header)))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%.0f min left", a.RemainingMinutes)))
	b.WriteString("\n")

	switch {
	case a.Type == interview.ActionCompleted:
		b.WriteString(a.Message)
	case a.Type == interview.ActionFollowUp:
		b.WriteString(followUpStyle.Render(a.FollowUp))
	case len(a.Prompts) > 0:
		b.WriteString(strings.Join(a.Prompts, "\n"))
	case a.Question != nil:
		b.WriteString(a.Question.Text)
	}

	if a.TimeWarning && a.Type != interview.ActionCompleted {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(a.Message))
	}

	return boxStyle.Render(b.String())
}

// Result renders the outcome of an answer. Scripted acknowledgements render empty.
func Result(r interview.AnswerResult) string {
	if r.Evaluation == nil {
		return ""
	}

	e := r.Evaluation
	line := fmt.Sprintf("%s %s", labelStyle.Render("score"), scoreStyle(float64(e.TotalScore)).Render(fmt.Sprintf("%d", e.TotalScore)))
	if e.Fallback {
		line += " " + warnStyle.Render("(default)")
	}
	if fb := strings.TrimSpace(e.Feedback); fb != "" {
		line += "\n" + fb
	}

	return line
}

// Report renders the final report.
func Report(r interview.Report) string {
	rows := []string{
		titleStyle.Render("Interview report"),
		row("candidate", r.Candidate),
		row("duration", fmt.Sprintf("%.1f min", r.DurationMinutes)),
		row("questions", fmt.Sprintf("%d (%d follow-ups)", r.TotalQuestions, r.TotalFollowups)),
		labelStyle.Render(pad("overall")) + scoreStyle(r.OverallScore).Render(fmt.Sprintf("%.1f", r.OverallScore)),
		row("level", string(r.Level)),
		labelStyle.Render(pad("recommendation")) + recommendationStyle(r.Recommendation).Render(r.Recommendation),
		"",
	}

	for _, d := range interview.Dimensions() {
		if v, ok := r.DimensionAverages[d]; ok {
			rows = append(rows, labelStyle.Render(pad(string(d)))+scoreStyle(v).Render(fmt.Sprintf("%.1f", v)))
		}
	}

	if len(r.Evaluations) > 0 {
		rows = append(rows, "", titleStyle.Render("Per question"))
		for _, e := range r.Evaluations {
			rows = append(rows, fmt.Sprintf("%s %s", scoreStyle(float64(e.TotalScore)).Render(fmt.Sprintf("%3d", e.TotalScore)), e.QuestionID))
		}
	}

	if n := strings.TrimSpace(r.Narrative); n != "" {
		rows = append(rows, "", lipgloss.NewStyle().Width(72).Render(n))
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func row(label, value string) string {
	return labelStyle.Render(pad(label)) + valueStyle.Render(value)
}

func pad(label string) string {
	return fmt.Sprintf("%-16s", label)
}

func scoreStyle(v float64) lipgloss.Style {
	switch {
	case v >= 75:
		return goodStyle
	case v < 60:
		return badStyle
	default:
		return warnStyle
	}
}

func recommendationStyle(r string) lipgloss.Style {
	if r == "recommend" {
		return goodStyle
	}
	return warnStyle
}
