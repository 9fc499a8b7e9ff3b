package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/yusufhabibalfatha/nulis/internal/api"
	"github.com/yusufhabibalfatha/nulis/internal/autosave"
	"github.com/yusufhabibalfatha/nulis/internal/config"
	"github.com/yusufhabibalfatha/nulis/internal/logger"
	"github.com/yusufhabibalfatha/nulis/internal/model"
	"github.com/yusufhabibalfatha/nulis/internal/render"
	"github.com/yusufhabibalfatha/nulis/internal/store"
	"github.com/yusufhabibalfatha/nulis/internal/view"
)

var cliLogger zerolog.Logger

const usage = `Usage: nulis <command> [flags]

Commands:
  list      List writings (-status, -search, -page, -interactive)
  show      Show one writing (-theme)
  new       Compose a new writing in $EDITOR
  edit      Edit a writing in $EDITOR, autosaving as you go
  publish   Mark a writing as published
  draft     Mark a writing back as draft
  delete    Delete a writing (asks first)
`

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("NULIS_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := config.LoadConfig(configPath); err != nil {
		// A broken config file shouldn't brick the CLI; fall back to defaults.
		fmt.Fprintln(os.Stderr, "Warning: "+err.Error())
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		config.AppConfig = cfg
	}

	cliLogger = logger.New(config.AppConfig.Logging.Level)
	config.SetLogger(cliLogger)
	api.SetLogger(cliLogger)
	store.SetLogger(cliLogger)
	autosave.SetLogger(cliLogger)
	render.SetLogger(cliLogger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	client := api.NewClient(config.AppConfig.Remote.BaseURL, config.AppConfig.Remote.Timeout())
	st := store.NewWritingsStore(client)
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "list":
		err = cmdList(ctx, st, os.Args[2:])
	case "show":
		err = cmdShow(ctx, st, os.Args[2:])
	case "new":
		err = editSession(ctx, st, nil)
	case "edit":
		err = cmdEdit(ctx, st, os.Args[2:])
	case "publish":
		err = cmdSetStatus(ctx, st, os.Args[2:], model.StatusPublished)
	case "draft":
		err = cmdSetStatus(ctx, st, os.Args[2:], model.StatusDraft)
	case "delete":
		err = cmdDelete(ctx, st, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func cmdList(ctx context.Context, st *store.WritingsStore, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", "all", "Filter by status: all, draft or published")
	search := fs.String("search", "", "Filter by title")
	page := fs.Int("page", 1, "Page to fetch")
	interactive := fs.Bool("interactive", false, "Browse interactively")
	fs.Parse(args)

	if *interactive {
		return listLoop(ctx, st, view.StatusFilter(*status))
	}

	if err := st.LoadPage(ctx, *page, *search); err != nil {
		return err
	}
	printList(st.Snapshot(), view.StatusFilter(*status))
	return nil
}

func printList(snap store.Snapshot, filter view.StatusFilter) {
	writings := view.SortByModified(view.FilterByStatus(snap.Writings, filter))
	counts := view.CountByStatus(snap.Writings)

	fmt.Println(headerStyle.Render(fmt.Sprintf("Writings: %d total, %d draft, %d published",
		counts.Total, counts.Draft, counts.Published)))

	if len(writings) == 0 {
		fmt.Println(faintStyle.Render("No writings."))
		return
	}

	for _, w := range writings {
		badge := draftStyle.Render("draft")
		if w.Status == model.StatusPublished {
			badge = publishedStyle.Render("published")
		}
		fmt.Printf("%s  %s  %s\n", badge, titleStyle.Render(w.Title),
			faintStyle.Render(string(w.ID)))
		if w.Excerpt != "" {
			fmt.Println("           " + faintStyle.Render(w.Excerpt))
		}
	}

	p := snap.Pagination
	fmt.Println(faintStyle.Render(fmt.Sprintf("Page %d of %d (%d writings)",
		p.CurrentPage, p.TotalPages, p.TotalItems)))
}

const listLoopHelp = "/<term> to search, 'more' for the next page, 'q' to quit"

// listLoop drives an interactive listing. Search lines feed the debouncer, so
// a burst of refinements issues a single query; re-rendering rides on store
// notifications.
func listLoop(ctx context.Context, st *store.WritingsStore, filter view.StatusFilter) error {
	if err := st.LoadPage(ctx, 1, ""); err != nil {
		return err
	}

	var mu sync.Mutex
	query := ""

	updates := st.Subscribe()
	defer st.Unsubscribe(updates)
	go func() {
		for range updates {
			snap := st.Snapshot()
			if snap.Loading {
				continue
			}
			printList(snap, filter)
		}
	}()

	debouncer := view.NewSearchDebouncer(config.AppConfig.Content.SearchDebounce(), func(term string) {
		mu.Lock()
		query = term
		mu.Unlock()
		if err := st.LoadPage(ctx, 1, term); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		}
	})
	defer debouncer.Stop()

	printList(st.Snapshot(), filter)
	fmt.Println(faintStyle.Render(listLoopHelp))

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "q" || line == "quit":
			return nil
		case line == "more":
			snap := st.Snapshot()
			if !snap.Pagination.HasNext {
				fmt.Println(faintStyle.Render("No more pages."))
				continue
			}
			mu.Lock()
			term := query
			mu.Unlock()
			if err := st.LoadMore(ctx, snap.Pagination.CurrentPage+1, term); err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
			}
		case strings.HasPrefix(line, "/"):
			debouncer.Input(strings.TrimPrefix(line, "/"))
		case line == "":
			printList(st.Snapshot(), filter)
		default:
			fmt.Println(faintStyle.Render(listLoopHelp))
		}
	}
	return scanner.Err()
}

func cmdShow(ctx context.Context, st *store.WritingsStore, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	theme := fs.String("theme", "monokai", "Chroma style for code blocks")
	fs.Parse(args)

	id, err := argID(fs)
	if err != nil {
		return err
	}

	w, err := st.Get(ctx, id)
	if err != nil {
		return err
	}

	badge := draftStyle.Render("draft")
	if w.Status == model.StatusPublished {
		badge = publishedStyle.Render("published")
	}
	fmt.Println(titleStyle.Render(w.Title) + "  " + badge)
	fmt.Println(faintStyle.Render("modified " + w.ModifiedDate.Local().Format("2006-01-02 15:04")))
	fmt.Println()
	fmt.Println(render.Terminal(w.Content, *theme))
	return nil
}

func cmdEdit(ctx context.Context, st *store.WritingsStore, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	fs.Parse(args)

	id, err := argID(fs)
	if err != nil {
		return err
	}

	w, err := st.Get(ctx, id)
	if err != nil {
		return err
	}
	return editSession(ctx, st, &w)
}

func cmdSetStatus(ctx context.Context, st *store.WritingsStore, args []string, status model.Status) error {
	fs := flag.NewFlagSet(string(status), flag.ExitOnError)
	fs.Parse(args)

	id, err := argID(fs)
	if err != nil {
		return err
	}

	w, err := st.Get(ctx, id)
	if err != nil {
		return err
	}
	if w.Status == status {
		fmt.Println(faintStyle.Render("Already " + string(status) + "."))
		return nil
	}

	updated, err := st.Update(ctx, id, model.WritingInput{
		Title:   w.Title,
		Content: w.Content,
		Excerpt: w.Excerpt,
		Status:  status,
	})
	if err != nil {
		return err
	}
	fmt.Println(titleStyle.Render(updated.Title) + " is now " + string(updated.Status) + ".")
	return nil
}

func cmdDelete(ctx context.Context, st *store.WritingsStore, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	force := fs.Bool("force", false, "Skip the confirmation prompt")
	fs.Parse(args)

	id, err := argID(fs)
	if err != nil {
		return err
	}

	w, err := st.Get(ctx, id)
	if err != nil {
		return err
	}

	if !*force && !confirmPrompt("Delete "+fmt.Sprintf("%q", w.Title)+"?")() {
		fmt.Println(faintStyle.Render("Kept."))
		return nil
	}

	if err := st.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Println("Deleted " + titleStyle.Render(w.Title) + ".")
	return nil
}

func argID(fs *flag.FlagSet) (model.WritingID, error) {
	if fs.NArg() < 1 {
		return "", fmt.Errorf("missing writing id")
	}
	return model.WritingID(fs.Arg(0)), nil
}

// confirmPrompt returns a yes/no gate reading from stdin. Anything but an
// explicit yes keeps the writing.
func confirmPrompt(question string) func() bool {
	return func() bool {
		fmt.Print(question + " [y/N] ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
