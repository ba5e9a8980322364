package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"decreechat/internal/api"
	"decreechat/internal/archive"
	"decreechat/internal/chat"
	"decreechat/internal/config"
	"decreechat/internal/export"
	"decreechat/internal/session"
	"decreechat/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "decreechat:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, rest, err := config.Parse(args)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store := session.NewStore(cfg.TokenPath)

	if len(rest) > 0 {
		return runCommand(cfg, store, logger, rest)
	}
	return runTUI(cfg, store, logger)
}

func buildLogger(cfg config.AppConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	// The TUI owns the terminal; logs go to a file.
	zcfg.OutputPaths = []string{cfg.LogPath}
	zcfg.ErrorOutputPaths = []string{cfg.LogPath}
	if cfg.Verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	return logger, nil
}

func runCommand(cfg config.AppConfig, store *session.Store, logger *zap.Logger, args []string) error {
	switch args[0] {
	case "login":
		if len(args) != 2 {
			return errors.New("usage: decreechat login <token>")
		}
		user, err := session.ParseUser(args[1])
		if err != nil {
			return err
		}
		if err := store.Save(args[1]); err != nil {
			return err
		}
		fmt.Println("Logged in as", user.Email)
		return nil

	case "logout":
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil

	case "whoami":
		user, err := store.CurrentUser()
		if err != nil {
			return err
		}
		fmt.Println(user.Email)
		return nil

	case "docs":
		client, _, err := authedClient(cfg, store, logger)
		if err != nil {
			return err
		}
		docs, err := client.ListDocuments(context.Background())
		if err != nil {
			return err
		}
		for _, d := range docs {
			fmt.Printf("%6d  %s  %s\n", d.ID, d.UploadedAt.Local().Format("2006-01-02"), d.Filename)
		}
		return nil

	case "upload":
		if len(args) < 2 {
			return errors.New("usage: decreechat upload <files...>")
		}
		return runUpload(cfg, store, logger, args[1:])

	case "wipe":
		client, user, err := authedClient(cfg, store, logger)
		if err != nil {
			return err
		}
		if !user.Superuser {
			return errors.New("wiping documents requires an administrator session")
		}
		if len(args) != 2 || args[1] != "--yes" {
			return errors.New("wipe removes every uploaded document; run: decreechat wipe --yes")
		}
		removed, err := client.DeleteAllDocuments(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("removed %d documents\n", len(removed))
		return nil

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// runUpload classifies the batch locally before anything leaves the
// machine: only files declared as PDF are submitted; everything else
// is reported by name. An all-inadmissible batch never reaches the
// server.
func runUpload(cfg config.AppConfig, store *session.Store, logger *zap.Logger, paths []string) error {
	client, user, err := authedClient(cfg, store, logger)
	if err != nil {
		return err
	}
	if !user.Superuser {
		return errors.New("document upload requires an administrator session")
	}

	files := make([]chat.FileDescriptor, 0, len(paths))
	for _, p := range paths {
		files = append(files, chat.DescribeFile(p))
	}
	admissible, inadmissible := chat.ClassifyUploads(files)

	if len(admissible) == 0 {
		names := make([]string, 0, len(inadmissible))
		for _, f := range inadmissible {
			names = append(names, f.Name)
		}
		return fmt.Errorf("no PDF files in the batch; rejected: %s", strings.Join(names, ", "))
	}

	submit := make([]string, 0, len(admissible))
	for _, f := range admissible {
		submit = append(submit, f.Path)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	result, err := client.UploadDocuments(ctx, submit)
	if err != nil {
		return err
	}

	for _, d := range result.Accepted {
		fmt.Printf("accepted  %s (id %d)\n", d.Filename, d.ID)
	}
	for _, r := range result.Rejected {
		fmt.Printf("rejected  %s: %s\n", r.Filename, r.Reason)
	}
	for _, f := range inadmissible {
		fmt.Printf("rejected  %s: not a PDF\n", f.Name)
	}
	return nil
}

func authedClient(cfg config.AppConfig, store *session.Store, logger *zap.Logger) (*api.Client, session.User, error) {
	token, err := store.Token()
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil, session.User{}, errors.New("not logged in; run: decreechat login <token>")
		}
		return nil, session.User{}, err
	}
	user, err := session.ParseUser(token)
	if err != nil {
		return nil, session.User{}, err
	}
	return api.NewClient(cfg.ServerURL, token, logger), user, nil
}

func runTUI(cfg config.AppConfig, store *session.Store, logger *zap.Logger) error {
	token, err := store.Token()
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		return err
	}
	var user session.User
	if token != "" {
		if user, err = session.ParseUser(token); err != nil {
			return err
		}
	}

	client := api.NewClient(cfg.ServerURL, token, logger)

	arch, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		// The archive is a convenience; the chat works without it.
		logger.Warn("archive unavailable", zap.Error(err))
		arch = nil
	} else {
		defer func() { _ = arch.Close() }()
	}

	exporter, err := export.New(cfg.ExportDir)
	if err != nil {
		return err
	}

	model := ui.NewModel(cfg, client, arch, exporter, logger, user)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
