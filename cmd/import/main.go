package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yusufhabibalfatha/nulis/internal/db"
	"github.com/yusufhabibalfatha/nulis/internal/model"
	"github.com/yusufhabibalfatha/nulis/internal/render"
	"github.com/yusufhabibalfatha/nulis/internal/repository"
	"github.com/yusufhabibalfatha/nulis/internal/util"
)

// main imports a directory of markdown files into the writing database.
func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	dbPath := flag.String("db", "./nulis.db", "Path to the sqlite database")
	excerptLen := flag.Int("excerpt", 150, "Maximum excerpt length in runes")
	flag.Parse()

	if *path == "" {
		log.Fatal("The --path flag is required")
	}

	repo := repository.NewDBWritingRepository(db.NewSQLite(*dbPath))
	if err := repo.Init(); err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	files, err := os.ReadDir(*path)
	if err != nil {
		log.Fatalf("Error reading directory %s: %v", *path, err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}
		if err := processFile(*path, file.Name(), repo, *excerptLen); err != nil {
			log.Printf("Error processing file %s: %v", file.Name(), err)
			continue
		}
		log.Printf("Imported %s", file.Name())
	}
}

// processFile converts a single markdown file into a stored writing. Front
// matter supplies the title and status; both fall back to the file name and
// draft.
func processFile(dirPath, name string, repo repository.WritingRepository, excerptLen int) error {
	raw, err := os.ReadFile(filepath.Join(dirPath, name))
	if err != nil {
		return err
	}

	title := strings.TrimSuffix(name, ".md")
	status := model.StatusDraft
	body := raw
	if fm, err := util.GetFrontMatter(raw); err == nil {
		if fm.Title != "" {
			title = fm.Title
		}
		if s := model.Status(fm.Status); s.Valid() {
			status = s
		}
		body = fm.Body
	}

	content := strings.TrimSpace(string(render.MarkdownToHTML(body)))

	_, err = repo.Create(model.WritingInput{
		Title:   title,
		Content: content,
		Excerpt: util.Excerpt(content, excerptLen),
		Status:  status,
	})
	return err
}
