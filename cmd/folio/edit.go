package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/autosave"
	"github.com/jackzampolin/folio/internal/document"
	"github.com/jackzampolin/folio/internal/importer"
	"github.com/jackzampolin/folio/internal/page"
)

var (
	editFile  string
	editTitle string
)

var editCmd = &cobra.Command{
	Use:   "edit <slug>",
	Short: "Edit a page from a local file with autosave",
	Long: `Watch a local markdown or HTML file and autosave it to a page.

Every change to the file is debounced (autosave.debounce) and saved to the
running server; unchanged content is never re-sent. A missing page is
created from the file. Ctrl+C flushes the last edit and exits.

Examples:
  folio edit getting-started --file getting-started.md
  folio edit new-page --file draft.md --title "New Page"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h, err := getHome()
		if err != nil {
			return err
		}
		cfgMgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		settings := cfgMgr.Get()
		logger, _, err := newLogger(settings.Log)
		if err != nil {
			return err
		}

		parse := fileParser(editFile)
		client := newClient()
		p, err := openPage(ctx, client, args[0], editFile, parse)
		if err != nil {
			return err
		}
		title := p.Title
		if editTitle != "" {
			title = editTitle
		}

		saver := &pageSaver{client: client, slug: p.Slug}
		coord := autosave.New(autosave.Config{
			Saver:    saver,
			Debounce: settings.Autosave.Debounce,
			Timeout:  settings.Autosave.Timeout,
			Title:    p.Title,
			Content:  p.Content,
			Logger:   logger.With("component", "autosave"),
		})
		defer coord.Close()
		coord.OnStatus(func(s autosave.Status) {
			if s == autosave.StatusError {
				logger.Error("save failed", "slug", saver.Slug(), "error", coord.Err())
				return
			}
			logger.Info("autosave", "status", s, "slug", saver.Slug())
		})

		watcher, err := autosave.NewFileWatcher(editFile, func() string { return title }, parse, coord, logger)
		if err != nil {
			return err
		}
		// Pick up edits made before the watch started.
		watcher.Load()

		fmt.Fprintf(cmd.OutOrStdout(), "Editing %s from %s (Ctrl+C to stop)\n", p.Slug, editFile)
		if err := watcher.Run(ctx); err != nil {
			return err
		}

		flushCtx, cancel := context.WithTimeout(context.Background(), settings.Autosave.Timeout+5*time.Second)
		defer cancel()
		if err := coord.Flush(flushCtx); err != nil {
			return fmt.Errorf("final save failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", saver.Slug())
		return nil
	},
}

func init() {
	editCmd.Flags().StringVarP(&editFile, "file", "f", "", "Markdown or HTML file to watch")
	editCmd.Flags().StringVar(&editTitle, "title", "", "Page title (default: the current title)")
	_ = editCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(editCmd)
}

// fileParser picks the importer for path by extension.
func fileParser(path string) autosave.ParseFunc {
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return func(data []byte) (*document.Node, error) {
			res, err := importer.FromHTML(bytes.NewReader(data), name)
			if err != nil {
				return nil, err
			}
			return res.Content, nil
		}
	default:
		return func(data []byte) (*document.Node, error) {
			res, err := importer.FromMarkdown(data, name)
			if err != nil {
				return nil, err
			}
			return res.Content, nil
		}
	}
}

// openPage fetches the page, creating it from the file when it does not
// exist yet.
func openPage(ctx context.Context, client *api.Client, slug, path string, parse autosave.ParseFunc) (*page.Page, error) {
	var p page.Page
	err := client.Get(ctx, "/api/pages/"+slug, &p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, page.ErrNotFound) {
		return nil, err
	}

	in := page.CreateInput{Title: editTitle}
	if data, readErr := os.ReadFile(path); readErr == nil {
		if in.Content, err = parse(data); err != nil {
			return nil, err
		}
	}
	if in.Title == "" {
		in.Title = importer.TitleFromFilename(slug)
	}
	if err := client.Post(ctx, "/api/pages", in, &p); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &p, nil
}

// pageSaver writes drafts with PUT. A title change moves the slug, so the
// slug of each response is used for the next save.
type pageSaver struct {
	client *api.Client
	mu     sync.Mutex
	slug   string
}

func (s *pageSaver) Slug() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slug
}

func (s *pageSaver) Save(ctx context.Context, d autosave.Draft) error {
	title := d.Title
	var p page.Page
	if err := s.client.Put(ctx, "/api/pages/"+s.Slug(), page.Patch{Title: &title, Content: d.Content}, &p); err != nil {
		return err
	}
	s.mu.Lock()
	s.slug = p.Slug
	s.mu.Unlock()
	return nil
}
