// Package clipboard puts completed answers on the system clipboard by
// shelling out to the platform tool.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

var ErrToolNotFound = errors.New("clipboard tool not found")

// FormatAnswer renders an answer and its cited source documents as the
// plain text placed on the clipboard.
func FormatAnswer(answer string, sources []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(answer))
	if len(sources) > 0 {
		b.WriteString("\n\nSources: " + strings.Join(sources, ", "))
	}
	b.WriteString("\n")
	return b.String()
}

// CopyAnswer formats and copies one completed answer.
func CopyAnswer(ctx context.Context, answer string, sources []string) error {
	return Copy(ctx, FormatAnswer(answer, sources))
}

type Command struct {
	Path string
	Args []string
}

// SelectCommand picks the copy tool for the platform. Injected lookup
// keeps it testable without the tools installed.
func SelectCommand(goos string, lookPath func(string) (string, error)) (Command, error) {
	switch goos {
	case "darwin":
		path, err := lookPath("pbcopy")
		if err != nil {
			return Command{}, ErrToolNotFound
		}
		return Command{Path: path}, nil
	case "linux":
		if path, err := lookPath("wl-copy"); err == nil {
			return Command{Path: path}, nil
		}
		if path, err := lookPath("xclip"); err == nil {
			return Command{Path: path, Args: []string{"-selection", "clipboard"}}, nil
		}
		if path, err := lookPath("xsel"); err == nil {
			return Command{Path: path, Args: []string{"--clipboard", "--input"}}, nil
		}
		return Command{}, ErrToolNotFound
	default:
		return Command{}, ErrToolNotFound
	}
}

func Copy(ctx context.Context, text string) error {
	cmdDef, err := SelectCommand(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, cmdDef.Path, cmdDef.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("clipboard stdin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start clipboard command: %w", err)
	}

	if _, err := stdin.Write([]byte(text)); err != nil {
		_ = stdin.Close()
		_ = cmd.Wait()
		return fmt.Errorf("write clipboard data: %w", err)
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("clipboard command failed: %w", err)
	}
	return nil
}
