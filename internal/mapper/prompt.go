package mapper

import (
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/trail/internal/activity"
	"github.com/hpungsan/trail/internal/project"
)

const (
	// Token budgets per call site. Project determination returns two
	// numbers; task association also carries a reasoning sentence.
	projectMaxTokens = 200
	taskMaxTokens    = 500

	// maxPromptOCRBlocks bounds the screen text included in the project
	// prompt. Task prompts get the full text.
	maxPromptOCRBlocks = 3
)

const projectSystemPrompt = `You are a work activity classifier. Given a captured activity event and a list of the user's projects, decide which project the activity most likely belongs to.

Respond with strict JSON only, no markdown, no code fences, no extra text:
{"project_id": <integer>, "confidence": <number between 0.0 and 1.0>}

Scoring guide:
- 0.9-1.0: the screen text or window title directly names the project or its files
- 0.7-0.9: strong topical overlap with the project goal
- 0.4-0.7: plausible but ambiguous
- below 0.4: guessing

Pick exactly one project_id from the list. Never invent an id.`

const taskSystemPrompt = `You are a work activity classifier. Given a captured activity event already attributed to a project, decide which of the project's in-progress tasks the activity belongs to, if any.

Respond with strict JSON only, no markdown, no code fences, no extra text:
{"task_id": <integer or null>, "confidence_score": <number between 0.0 and 1.0>, "reasoning": "<one sentence>"}

Use null for task_id when the activity does not match any listed task. Never invent an id.`

// buildProjectPrompt assembles the user message for project determination:
// the event header, up to maxPromptOCRBlocks blocks of screen text, and the
// project catalog.
func buildProjectPrompt(ev activity.Event, ocrBlocks []string, projects []project.Project) string {
	var b strings.Builder

	b.WriteString("Activity event:\n")
	writeEventHeader(&b, ev)

	if len(ocrBlocks) > 0 {
		blocks := ocrBlocks
		if len(blocks) > maxPromptOCRBlocks {
			blocks = blocks[:maxPromptOCRBlocks]
		}
		b.WriteString("\nScreen text (OCR):\n")
		b.WriteString(strings.Join(blocks, "\n---\n"))
		b.WriteString("\n")
	}

	b.WriteString("\nProjects:\n")
	for _, p := range projects {
		fmt.Fprintf(&b, "- Project ID: %d, Name: %s, Goal: %s\n", p.ID, p.Name, deref(p.Goal, "(none)"))
	}

	return b.String()
}

// buildTaskPrompt assembles the user message for task association: the
// project, the event header, the full screen text, and the in-progress
// task catalog.
func buildTaskPrompt(ev activity.Event, proj *project.Project, ocrBlocks []string, tasks []project.Task) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project: %s\nGoal: %s\n\n", proj.Name, deref(proj.Goal, "(none)"))

	b.WriteString("Activity event:\n")
	writeEventHeader(&b, ev)
	if ev.EndTime != nil {
		fmt.Fprintf(&b, "- End: %s\n", formatTime(*ev.EndTime))
	}

	if len(ocrBlocks) > 0 {
		b.WriteString("\nScreen text (OCR):\n")
		b.WriteString(strings.Join(ocrBlocks, "\n---\n"))
		b.WriteString("\n")
	}

	b.WriteString("\nIn-progress tasks:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "- Task ID: %d, Name: %s, Description: %s\n", t.ID, t.Name, deref(t.Description, "(none)"))
	}

	return b.String()
}

func writeEventHeader(b *strings.Builder, ev activity.Event) {
	fmt.Fprintf(b, "- App: %s\n", deref(ev.AppName, "(unknown)"))
	fmt.Fprintf(b, "- Window: %s\n", deref(ev.WindowTitle, "(unknown)"))
	fmt.Fprintf(b, "- Start: %s\n", formatTime(ev.StartTime))
}

func formatTime(unix int64) string {
	return time.Unix(unix, 0).Format("2006-01-02 15:04:05")
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
