package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pbaille/echorealms/internal/archive"
	"github.com/pbaille/echorealms/internal/classifier"
	"github.com/pbaille/echorealms/internal/config"
	"github.com/pbaille/echorealms/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfg     *config.Config
	logger  *zap.Logger
	dbPath  string
	verbose bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "echorealms",
		Short: "Turn how you feel into short stories",
		Long: `EchoRealms scans a piece of journal-style text for its emotion,
weaves a short story around it, and keeps the stories you like in an archive.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.DBPath
			}

			zcfg := zap.NewProductionConfig()
			if verbose || strings.EqualFold(cfg.LogLevel, "debug") {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			} else if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
				zcfg.Level = zap.NewAtomicLevelAt(lvl)
			}
			logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "story shelf database path (default $ECHOREALMS_DATA_DIR/shelf.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(weaveCmd())
	rootCmd.AddCommand(archiveCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(signUpCmd())
	rootCmd.AddCommand(signInCmd())
	rootCmd.AddCommand(signOutCmd())
	rootCmd.AddCommand(profileCmd())

	return rootCmd
}

func getStore() (*store.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(dbPath)
}

// loadArchive rebuilds the in-memory archive from the shelf
func loadArchive(s *store.Store) (*archive.Archive, error) {
	stories, err := s.ListStories()
	if err != nil {
		return nil, err
	}
	a := archive.New()
	a.Load(stories)
	return a, nil
}

func getClassifier() (*classifier.Classifier, error) {
	if cfg.LexiconPath == "" {
		return classifier.Default(), nil
	}
	lex, err := classifier.LoadLexiconFile(cfg.LexiconPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("custom lexicon loaded", zap.String("path", cfg.LexiconPath), zap.Int("emotions", len(lex)))
	return classifier.New(lex)
}

// resolveID expands an id prefix to exactly one saved story id
func resolveID(s *store.Store, prefix string) (string, error) {
	found, err := s.FindByPrefix(prefix)
	if err != nil {
		return "", err
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("story not found: %s", prefix)
	case 1:
		return found[0].ID, nil
	default:
		return "", fmt.Errorf("ambiguous id %s matches %d stories", prefix, len(found))
	}
}

// inputText joins args, or reads stdin when args is "-"
func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := readAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		args = []string{string(data)}
	}
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("nothing to scan: text is empty")
	}
	return text, nil
}
