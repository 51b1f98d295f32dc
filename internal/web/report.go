package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/trail/internal/ops"
)

var reportPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
h1 { border-bottom: 1px solid #ddd; padding-bottom: .3rem; }
blockquote { color: #555; border-left: 3px solid #ddd; margin-left: 0; padding-left: 1rem; }
code { background: #f4f4f4; padding: .1rem .3rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HandleTaskReport renders one task with its associated activity as HTML.
// The task description and the model's reasoning are markdown.
func (h *Handlers) HandleTaskReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	task, err := ops.GetTask(h.store, id)
	if err != nil {
		writeError(w, err)
		return
	}
	contexts, err := ops.ListContexts(h.store, ops.ContextListInput{TaskID: &task.ID})
	if err != nil {
		writeError(w, err)
		return
	}

	md := buildReportMarkdown(h, task, contexts)

	var rendered bytes.Buffer
	if err := goldmark.Convert([]byte(md), &rendered); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := reportPage.Execute(w, struct {
		Title string
		Body  template.HTML
	}{
		Title: task.Name,
		Body:  template.HTML(rendered.String()),
	}); err != nil {
		writeError(w, err)
	}
}

// buildReportMarkdown assembles the report source: the task header and
// description, then one entry per associated event with its reasoning.
func buildReportMarkdown(h *Handlers, task *ops.TaskOutput, contexts *ops.ContextListOutput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", task.Name)
	fmt.Fprintf(&b, "Status: `%s`\n\n", task.Status)
	if task.Description != nil && *task.Description != "" {
		b.WriteString(*task.Description)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "## Activity (%d events)\n\n", contexts.Total)
	if contexts.Total == 0 {
		b.WriteString("No activity associated with this task yet.\n")
		return b.String()
	}

	for _, c := range contexts.Contexts {
		app := "(unknown)"
		if c.AppName != nil {
			app = *c.AppName
		}
		window := ""
		if c.WindowTitle != nil {
			window = *c.WindowTitle
		}
		fmt.Fprintf(&b, "- **%s** %s (%s)\n", app, window, time.Unix(c.StartTime, 0).Format("2006-01-02 15:04"))

		detail, err := ops.GetContext(h.store, c.EventID)
		if err == nil && detail.Reasoning != nil && *detail.Reasoning != "" {
			fmt.Fprintf(&b, "  - %s\n", *detail.Reasoning)
		}
	}
	return b.String()
}
