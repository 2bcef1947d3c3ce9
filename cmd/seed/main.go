package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paperchat-be/internal/config"
	"paperchat-be/internal/entity"
	"paperchat-be/internal/model"
	"paperchat-be/internal/repository/unitofwork"
	"paperchat-be/pkg/database"
	"paperchat-be/pkg/utils"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// seed stores a plain-text file (pages separated by form feeds, as written by
// pdftotext) as a document that chat sessions can select.
func main() {
	file := flag.String("file", "", "path to the extracted text")
	title := flag.String("title", "", "document title (defaults to the file name)")
	chunkSize := flag.Int("chunk", 800, "chunk size in characters")
	overlap := flag.Int("overlap", 100, "overlap between chunks in characters")
	flag.Parse()

	if *file == "" {
		color.Red("Usage: seed -file report.txt [-title \"Annual Report\"]")
		os.Exit(2)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		color.Red("Failed to read %s: %v", *file, err)
		os.Exit(1)
	}

	if *title == "" {
		*title = strings.TrimSuffix(filepath.Base(*file), filepath.Ext(*file))
	}

	pages := utils.SplitPages(string(raw), *chunkSize, *overlap)
	if len(pages) == 0 {
		color.Red("%s contains no text", *file)
		os.Exit(1)
	}

	cfg := config.Load()
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.Options{})
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	if err := database.Migrate(db, model.All()...); err != nil {
		color.Red("Migration failed: %v", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	doc := &entity.Document{
		Id:         uuid.New(),
		Title:      *title,
		SourceName: filepath.Base(*file),
		PageCount:  strings.Count(string(raw), string(utils.PageBreak)) + 1,
		CreatedAt:  now,
	}
	for i, p := range pages {
		doc.Chunks = append(doc.Chunks, &entity.DocumentChunk{
			Id:         uuid.New(),
			DocumentId: doc.Id,
			Ordinal:    i,
			Page:       p.Page,
			Content:    p.Text,
			CreatedAt:  now,
		})
	}

	ctx := context.Background()
	err = unitofwork.Run(ctx, unitofwork.NewRepositoryFactory(db), func(uow unitofwork.UnitOfWork) error {
		return uow.DocumentRepository().Create(ctx, doc)
	})
	if err != nil {
		color.Red("Failed to store document: %v", err)
		os.Exit(1)
	}

	color.Green("Stored %q", doc.Title)
	color.Cyan("  id:     %s", doc.Id)
	color.Cyan("  pages:  %d", doc.PageCount)
	color.Cyan("  chunks: %d", len(doc.Chunks))
}
