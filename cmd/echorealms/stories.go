package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pbaille/echorealms/internal/api"
	"github.com/pbaille/echorealms/internal/archive"
	"github.com/pbaille/echorealms/internal/classifier"
	"github.com/pbaille/echorealms/internal/fetcher"
	"github.com/pbaille/echorealms/internal/render"
	"github.com/pbaille/echorealms/internal/storyteller"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, 1<<20))
}

func scanCmd() *cobra.Command {
	var fromURL string

	cmd := &cobra.Command{
		Use:   "scan [text | url | -]",
		Short: "Sense the emotion in a piece of text",
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			var err error
			page := fromURL
			if page == "" && len(args) == 1 && fetcher.IsURL(args[0]) {
				page = args[0]
			}
			if page != "" {
				ctx, cancel := withTimeout(cmd)
				defer cancel()
				text, err = fetcher.New(cfg.HTTPTimeout).Text(ctx, page)
				if err != nil {
					return err
				}
			} else if text, err = inputText(cmd, args); err != nil {
				return err
			}

			c, err := getClassifier()
			if err != nil {
				return err
			}

			result := c.Classify(text)
			logger.Debug("scanned", zap.String("emotion", string(result.Emotion)), zap.Float64("intensity", result.Intensity))
			fmt.Fprint(cmd.OutOrStdout(), render.Scan(result, c.Matches(text), classifier.EchoWords(text, 8)))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromURL, "url", "", "scan the readable text of a web page")
	return cmd
}

func weaveCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "weave [text | -]",
		Short: "Scan text and weave a story from its emotion",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}

			c, err := getClassifier()
			if err != nil {
				return err
			}

			_, story := storyteller.Weave(c, storyteller.New(nil), text)
			fmt.Fprint(cmd.OutOrStdout(), render.Story(story))

			if !save {
				return nil
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			a, err := loadArchive(s)
			if err != nil {
				return err
			}
			if err := s.SaveStory(story); err != nil {
				return err
			}
			a.Add(story)
			logger.Debug("story saved", zap.String("id", story.ID), zap.Int("archived", a.Len()))
			fmt.Fprintln(cmd.OutOrStdout(), "Saved to archive.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&save, "save", "s", false, "save the story to the archive")
	return cmd
}

func archiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse, remove and export saved stories",
	}
	cmd.AddCommand(archiveListCmd())
	cmd.AddCommand(archiveShowCmd())
	cmd.AddCommand(archiveRemoveCmd())
	cmd.AddCommand(archiveExportCmd())
	return cmd
}

func archiveListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved stories, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			a, err := loadArchive(s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.Len() == 0 {
				fmt.Fprintln(out, "Your archive awaits. Use 'echorealms weave --save' to keep a story.")
				return nil
			}

			stories := a.List()
			if limit > 0 && len(stories) > limit {
				stories = stories[:limit]
			}
			for _, story := range stories {
				fmt.Fprintln(out, render.StoryLine(story))
			}

			plural := "s"
			if a.Len() == 1 {
				plural = ""
			}
			fmt.Fprintf(out, "\n%d tale%s woven from your emotions\n", a.Len(), plural)

			counts, err := s.CountByEmotion()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, render.Tally(counts))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of stories to show")
	return cmd
}

func archiveShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a saved story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := resolveID(s, args[0])
			if err != nil {
				return err
			}
			story, err := s.GetStory(id)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), render.Story(*story))
			return nil
		},
	}
}

func archiveRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a saved story",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			a, err := loadArchive(s)
			if err != nil {
				return err
			}
			id, err := resolveID(s, args[0])
			if err != nil {
				return err
			}
			if err := s.DeleteStory(id); err != nil {
				return err
			}
			a.Remove(id)

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s, %d left\n", id, a.Len())
			return nil
		},
	}
}

func archiveExportCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the archive to echorealms-archive-<date>.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			a, err := loadArchive(s)
			if err != nil {
				return err
			}

			data, err := a.Export()
			if err != nil {
				return err
			}

			path := filepath.Join(outDir, archive.FileName(time.Now()))
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			logger.Info("archive exported", zap.String("path", path), zap.Int("stories", a.Len()))
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d stories to %s\n", a.Len(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory to write the export into")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := getStore()
			if err != nil {
				return err
			}
			// Note: don't defer s.Close() as server runs indefinitely

			a, err := loadArchive(s)
			if err != nil {
				return err
			}
			c, err := getClassifier()
			if err != nil {
				return err
			}

			if addr == "" {
				addr = cfg.Addr
			}
			server := api.New(c, storyteller.New(nil), a, s, logger, addr)
			return server.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (default $ECHOREALMS_ADDR or :8080)")
	return cmd
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, cfg.HTTPTimeout)
}
