package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/vzahanych/weather-now/internal/app"
	"github.com/vzahanych/weather-now/internal/config"
	"github.com/vzahanych/weather-now/internal/navigator"
	"github.com/vzahanych/weather-now/internal/render"
	"github.com/vzahanych/weather-now/internal/screen"
)

const clearScreen = "\033[H\033[2J"

const browseHelp = "f: forecast  b: back  r: reload  q: quit"

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Navigate between the current and forecast screens",
		Long: `Open the current conditions screen and navigate interactively.
Type a key and press enter: ` + browseHelp + `.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(config.GetConfig(), log.Logger, tele)
			if err != nil {
				return fmt.Errorf("failed to build app: %w", err)
			}
			return browse(cmd.Context(), a.NewNavigator(cmd.Context()), os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
		},
	}
}

func browse(ctx context.Context, nav *navigator.Navigator, in io.Reader, out io.Writer, clear bool) error {
	defer nav.Close()

	var mu sync.Mutex
	view := render.NewText(out)
	nav.SetListener(func(route screen.Route, st screen.State) {
		mu.Lock()
		defer mu.Unlock()
		if clear {
			fmt.Fprint(out, clearScreen)
		}
		if err := view.Render(route, st); err != nil {
			log.Warn("Failed to render screen", zap.Error(err))
		}
		fmt.Fprintln(out, browseHelp)
	})

	if err := nav.Start(screen.RouteCurrent); err != nil {
		return err
	}

	keys := make(chan string)
	go func() {
		defer close(keys)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case keys <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok || key == "q" {
				return nil
			}
			if err := handleKey(nav, key); err != nil {
				log.Debug("Key ignored", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

func handleKey(nav *navigator.Navigator, key string) error {
	switch key {
	case "f":
		if s, ok := nav.Active().(interface{ OpenForecast() error }); ok {
			return s.OpenForecast()
		}
		return errors.New("no forecast link on this screen")
	case "b":
		if s, ok := nav.Active().(interface{ GoHome() error }); ok {
			return s.GoHome()
		}
		return nav.Back()
	case "r":
		return nav.Reload()
	case "":
		return nil
	default:
		return fmt.Errorf("unknown key %q", key)
	}
}
