package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/yusufhabibalfatha/nulis/internal/autosave"
	"github.com/yusufhabibalfatha/nulis/internal/config"
	"github.com/yusufhabibalfatha/nulis/internal/model"
	"github.com/yusufhabibalfatha/nulis/internal/render"
	"github.com/yusufhabibalfatha/nulis/internal/store"
	"github.com/yusufhabibalfatha/nulis/internal/util"
)

const editorPollInterval = 500 * time.Millisecond

// draftState is the editable view of one writing while its markdown draft sits
// in the editor. The autosave snapshot reads content under the same lock the
// poller writes it under.
type draftState struct {
	mu      sync.Mutex
	title   string
	status  model.Status
	content string
}

func (d *draftState) snapshot() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content
}

func (d *draftState) set(title string, status model.Status, content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if title != "" {
		d.title = title
	}
	if status.Valid() {
		d.status = status
	}
	d.content = content
}

func (d *draftState) input() model.WritingInput {
	d.mu.Lock()
	defer d.mu.Unlock()
	return model.WritingInput{
		Title:   d.title,
		Content: d.content,
		Excerpt: util.Excerpt(d.content, config.AppConfig.Content.ExcerptLength),
		Status:  d.status,
	}
}

// editSession opens $EDITOR on a markdown draft of current (or a fresh
// template when current is nil), polls the file for writes, and drives the
// autosave coordinator while the editor runs. On a clean exit the draft is
// saved explicitly.
func editSession(ctx context.Context, st *store.WritingsStore, current *model.Writing) error {
	draft := &draftState{title: model.DefaultTitle, status: model.StatusDraft}
	var id model.WritingID
	if current != nil {
		id = current.ID
		draft.set(current.Title, current.Status, current.Content)
	}

	path, err := writeDraftFile(draft, current)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	coord := autosave.NewCoordinator(st, config.AppConfig.Content.AutosaveInterval())
	coord.SetOnState(func(s model.SaveState) {
		fmt.Fprintln(os.Stderr, faintStyle.Render("autosave: "+string(s)))
	})
	coord.Open(id, draft.snapshot)
	defer coord.Close()

	editor := exec.Command(editorCommand(), path)
	editor.Stdin = os.Stdin
	editor.Stdout = os.Stdout
	editor.Stderr = os.Stderr
	if err := editor.Start(); err != nil {
		return fmt.Errorf("failed to launch editor: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- editor.Wait() }()

	lastMod := statMtime(path)
	ticker := time.NewTicker(editorPollInterval)
	defer ticker.Stop()

	edited := false
	var editorErr error
poll:
	for {
		select {
		case editorErr = <-done:
			break poll
		case <-ticker.C:
			mod := statMtime(path)
			if mod.Equal(lastMod) {
				continue
			}
			lastMod = mod

			if err := loadDraftFile(path, draft); err != nil {
				cliLogger.Warn().Err(err).Msg("Skipping unreadable draft")
				continue
			}
			edited = true

			if id == "" {
				// First write of a brand-new draft: create it so autosave
				// has a writing to target from here on.
				created, err := st.Create(ctx, draft.input())
				if err != nil {
					cliLogger.Error().Err(err).Msg("Failed to create writing")
					continue
				}
				id = created.ID
				coord.Adopt(id)
				fmt.Fprintln(os.Stderr, faintStyle.Render("created "+string(id)))
			}
			coord.Edit()
		}
	}

	// The editor may have written the file one last time on its way out,
	// after the final tick.
	if err := loadDraftFile(path, draft); err == nil && readBody(path) != "" {
		edited = true
	}

	if editorErr != nil && coord.CanDiscard(confirmPrompt("Editor failed; discard unsaved changes?")) {
		return editorErr
	}

	if id == "" {
		if !edited {
			fmt.Println(faintStyle.Render("Nothing to save."))
			return nil
		}
		created, err := st.Create(ctx, draft.input())
		if err != nil {
			return err
		}
		coord.MarkSaved()
		fmt.Println("Created " + titleStyle.Render(created.Title) + faintStyle.Render(" ("+string(created.ID)+")"))
		return nil
	}

	updated, err := st.Update(ctx, id, draft.input())
	if err != nil {
		return err
	}
	coord.MarkSaved()
	fmt.Println("Saved " + titleStyle.Render(updated.Title) + faintStyle.Render(" ("+string(updated.ID)+")"))
	return nil
}

func editorCommand() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	return "vi"
}

func statMtime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// writeDraftFile seeds a temp markdown file with a front matter block and the
// writing's content converted back to markdown-ish text.
func writeDraftFile(draft *draftState, current *model.Writing) (string, error) {
	f, err := os.CreateTemp("", "nulis-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create draft file: %w", err)
	}

	var b strings.Builder
	b.WriteString("%%%\n")
	fmt.Fprintf(&b, "title = %q\n", draft.title)
	fmt.Fprintf(&b, "status = %q\n", draft.status)
	b.WriteString("%%%\n\n")
	if current != nil {
		b.WriteString(htmlToDraft(current.Content))
		b.WriteString("\n")
	}

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to seed draft file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// loadDraftFile re-reads the draft from disk and folds it into draft.
// The markdown body is rendered to the HTML blob the service stores.
func loadDraftFile(path string, draft *draftState) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	body := raw
	var title string
	var status model.Status
	if fm, err := util.GetFrontMatter(raw); err == nil {
		title = fm.Title
		status = model.Status(fm.Status)
		body = fm.Body
	}

	html := strings.TrimSpace(string(render.MarkdownToHTML(body)))
	draft.set(title, status, html)
	return nil
}

func readBody(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	if fm, err := util.GetFrontMatter(raw); err == nil {
		raw = fm.Body
	}
	return strings.TrimSpace(string(raw))
}

// htmlToDraft converts a stored content blob back into editable markdown:
// text blocks verbatim, code blocks re-fenced.
func htmlToDraft(content string) string {
	var b strings.Builder
	for i, block := range render.Blocks(content) {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if block.Code {
			b.WriteString("```" + block.Lang + "\n")
			b.WriteString(block.Text)
			b.WriteString("\n```")
		} else {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
