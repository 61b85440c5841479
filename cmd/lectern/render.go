package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lectern/internal/api"
)

var statusTitle = cases.Title(language.English)

func isTerminalWriter(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func displayStatus(status string) string {
	return statusTitle.String(strings.TrimSpace(status))
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func renderJobStatus(w io.Writer, status api.JobStatus) {
	rows := [][]string{
		{"Job", status.ID},
		{"File", status.FileName},
		{"Status", displayStatus(status.Status)},
		{"Step", status.CurrentStep},
		{"Created", formatTimestamp(status.CreatedAt)},
		{"Updated", formatTimestamp(status.UpdatedAt)},
	}
	if status.Error != "" {
		rows = append(rows, []string{"Error", status.Error})
	}
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, nil))
}

func renderJobList(w io.Writer, list api.JobListResponse) {
	if len(list.Jobs) == 0 {
		fmt.Fprintln(w, "No jobs.")
		return
	}
	rows := make([][]string, 0, len(list.Jobs))
	for _, job := range list.Jobs {
		detail := job.CurrentStep
		if job.Error != "" {
			detail = job.Error
		}
		rows = append(rows, []string{
			job.ID,
			job.FileName,
			displayStatus(job.Status),
			detail,
			formatTimestamp(job.UpdatedAt),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "File", "Status", "Detail", "Updated"}, rows, nil))
}

func renderDaemonStatus(w io.Writer, status api.DaemonStatus) {
	running := "no"
	if status.Running {
		running = "yes"
	}
	rows := [][]string{
		{"Running", running},
		{"PID", fmt.Sprintf("%d", status.PID)},
		{"Job DB", status.JobDBPath},
		{"Active jobs", fmt.Sprintf("%d", status.ActiveJobs)},
		{"Queue depth", fmt.Sprintf("%d", status.QueueDepth)},
		{"Queued", fmt.Sprintf("%d", status.Stats.Queued)},
		{"Processing", fmt.Sprintf("%d", status.Stats.Processing)},
		{"Done", fmt.Sprintf("%d", status.Stats.Done)},
		{"Errored", fmt.Sprintf("%d", status.Stats.Errored)},
	}
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, nil))
	if len(status.StageLabels) > 0 {
		fmt.Fprintf(w, "Pipeline: %s\n", strings.Join(status.StageLabels, " -> "))
	}
	if len(status.Health) > 0 {
		healthRows := make([][]string, 0, len(status.Health))
		for _, check := range status.Health {
			state := "ready"
			if !check.Ready {
				state = "unavailable"
				if check.Detail != "" {
					state = "unavailable: " + check.Detail
				}
			}
			healthRows = append(healthRows, []string{check.Name, state})
		}
		fmt.Fprintln(w, renderTable([]string{"Collaborator", "State"}, healthRows, nil))
	}
}

func renderResults(w io.Writer, results api.JobResults) {
	renderJobStatus(w, results.JobStatus)

	if results.Transcript != nil {
		fmt.Fprintln(w, sectionHeading("Transcript"))
		fmt.Fprintln(w, results.Transcript.Text)
		fmt.Fprintln(w)
	}
	if results.CleanedText != "" {
		fmt.Fprintln(w, sectionHeading("Cleaned Text"))
		fmt.Fprintln(w, results.CleanedText)
		fmt.Fprintln(w)
	}
	if len(results.Keywords) > 0 {
		fmt.Fprintln(w, sectionHeading("Keywords"))
		fmt.Fprintln(w, strings.Join(results.Keywords, ", "))
		fmt.Fprintln(w)
	}
	if len(results.Topics) > 0 {
		fmt.Fprintln(w, sectionHeading("Topics"))
		for _, topic := range results.Topics {
			fmt.Fprintf(w, "%s: %s\n", topic.Title, strings.Join(topic.Sentences, ". "))
		}
		fmt.Fprintln(w)
	}
	if results.Summary != nil {
		fmt.Fprintln(w, sectionHeading("Summary"))
		fmt.Fprintln(w, results.Summary.Overview)
		for _, point := range results.Summary.KeyPoints {
			fmt.Fprintf(w, "  - %s\n", point)
		}
		fmt.Fprintln(w)
	}
	if results.Assessment != nil {
		renderAssessment(w, results.Assessment)
	}
	if results.Metrics != nil {
		fmt.Fprintln(w, sectionHeading("Metrics"))
		wer := "n/a (no reference transcript)"
		if results.Metrics.WER != nil {
			wer = fmt.Sprintf("%.4f", *results.Metrics.WER)
		}
		rows := [][]string{
			{"WER", wer},
			{"ROUGE-1", fmt.Sprintf("%.4f", results.Metrics.Rouge1)},
			{"ROUGE-L", fmt.Sprintf("%.4f", results.Metrics.RougeL)},
		}
		fmt.Fprintln(w, renderTable([]string{"Metric", "Score"}, rows, []columnAlignment{alignLeft, alignRight}))
	}
}

func renderAssessment(w io.Writer, assessment *api.AssessmentView) {
	if len(assessment.Quiz) > 0 {
		fmt.Fprintln(w, sectionHeading("Quiz"))
		for i, q := range assessment.Quiz {
			fmt.Fprintf(w, "%d. [%s] %s\n", i+1, q.Difficulty, q.Question)
			for _, option := range q.Options {
				fmt.Fprintf(w, "     - %s\n", option)
			}
			fmt.Fprintf(w, "   Answer: %s\n", q.Answer)
		}
		fmt.Fprintln(w)
	}
	if len(assessment.ShortAnswers) > 0 {
		fmt.Fprintln(w, sectionHeading("Short Answers"))
		for i, s := range assessment.ShortAnswers {
			fmt.Fprintf(w, "%d. [%s] %s\n   Expected: %s\n", i+1, s.Difficulty, s.Question, s.ExpectedAnswer)
		}
		fmt.Fprintln(w)
	}
	if len(assessment.Flashcards) > 0 {
		fmt.Fprintln(w, sectionHeading("Flashcards"))
		for i, card := range assessment.Flashcards {
			fmt.Fprintf(w, "%d. %s\n   %s\n", i+1, card.Question, card.Answer)
		}
		fmt.Fprintln(w)
	}
}

func sectionHeading(title string) string {
	return fmt.Sprintf("== %s ==", title)
}
