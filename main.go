package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/groupchat/app"
	"github.com/CrestNiraj12/groupchat/chat"
	"github.com/CrestNiraj12/groupchat/domain"
	"github.com/CrestNiraj12/groupchat/infra/archive"
	"github.com/CrestNiraj12/groupchat/infra/auth"
	"github.com/CrestNiraj12/groupchat/infra/config"
	"github.com/CrestNiraj12/groupchat/infra/editor"
	"github.com/CrestNiraj12/groupchat/infra/habitica"
	"github.com/CrestNiraj12/groupchat/infra/logging"
	"github.com/CrestNiraj12/groupchat/infra/markup"
	"github.com/CrestNiraj12/groupchat/tui"
	"github.com/CrestNiraj12/groupchat/tui/feed"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// renderWidth keeps rendered bodies inside a bordered row of an 80 column terminal.
const renderWidth = 76

type cliMode int

const (
	cliRun cliMode = iota
	cliVersion
	cliHelp
	cliInvalid
)

func parseCLIArgs(args []string) (cliMode, string) {
	if len(args) == 0 {
		return cliRun, ""
	}

	switch args[0] {
	case "--version", "-version", "-v":
		return cliVersion, ""
	case "--help", "-h", "help":
		return cliHelp, ""
	default:
		return cliInvalid, fmt.Sprintf("unexpected argument: %s", strings.Join(args, " "))
	}
}

func usage() string {
	return "Usage: groupchat [--version|-version|-v] [--help|-h]"
}

func resolveVersionInfo(v, c, d, moduleVersion string, settings map[string]string) (string, string, string) {
	if v == "dev" {
		mv := strings.TrimSpace(moduleVersion)
		if mv != "" && mv != "(devel)" {
			v = mv
		}
	}
	if c == "none" {
		rev := strings.TrimSpace(settings["vcs.revision"])
		if rev != "" {
			if len(rev) > 12 {
				rev = rev[:12]
			}
			c = rev
		}
	}
	if d == "unknown" {
		t := strings.TrimSpace(settings["vcs.time"])
		if t != "" {
			d = t
		}
	}
	return v, c, d
}

func buildSettingsMap(in []debug.BuildSetting) map[string]string {
	out := make(map[string]string, len(in))
	for _, s := range in {
		out[s.Key] = s.Value
	}
	return out
}

func resolvedRuntimeVersionInfo(v, c, d string) (string, string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return v, c, d
	}
	return resolveVersionInfo(v, c, d, info.Main.Version, buildSettingsMap(info.Settings))
}

func main() {
	mode, msg := parseCLIArgs(os.Args[1:])
	switch mode {
	case cliVersion:
		v, c, d := resolvedRuntimeVersionInfo(version, commit, date)
		fmt.Printf("groupchat %s\ncommit: %s\nbuilt: %s\n", v, c, d)
		return
	case cliHelp:
		fmt.Println(usage())
		return
	case cliInvalid:
		fmt.Fprintf(os.Stderr, "%s\n%s\n", msg, usage())
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "groupchat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config from .env and the environment.
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := logging.Init(cfg.LogPath, logging.ParseLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer logging.Close()
	logging.Info("starting", "group", cfg.Group, "api", cfg.APIURL)

	// 2. Build infrastructure.
	var tokens auth.TokenProvider = auth.NewFileTokenProvider(cfg.TokenPath)
	if cfg.APIKey != "" {
		tokens = auth.FirstOf(auth.StaticTokenProvider(cfg.APIKey), tokens)
	}
	client := habitica.NewClient(cfg.APIURL, cfg.UserID, tokens,
		habitica.WithRequestsPerMinute(cfg.RequestsPerMinute),
		habitica.WithLogger(logging.WithPrefix("habitica")),
	)
	chatSvc := habitica.NewChatService(client)
	userSvc := habitica.NewUserService(client)

	user, err := currentUser(userSvc, cfg.UserID)
	if err != nil {
		logging.Warn("could not load user, continuing offline", "err", err)
	}

	renderer, err := markup.New(markup.WithWidth(renderWidth))
	if err != nil {
		return fmt.Errorf("markup: %w", err)
	}

	storeOpts := []chat.StoreOption{chat.WithStoreLogger(logging.WithPrefix("store"))}
	if arch, err := archive.Open(cfg.CachePath); err != nil {
		logging.Warn("message archive unavailable", "path", cfg.CachePath, "err", err)
	} else {
		defer arch.Close()
		storeOpts = append(storeOpts, chat.WithArchive(arch))
	}

	// 3. Build the feed engine.
	store := chat.NewStore(cfg.Group, chatSvc, storeOpts...)
	cache := chat.NewRenderCache(renderer,
		chat.WithRenderConcurrency(cfg.RenderWorkers),
		chat.WithQuiescence(cfg.Quiescence),
		chat.WithRenderLogger(logging.WithPrefix("render")),
	)
	cache.Bind(store)
	expansion := &chat.Expansion{}
	expansion.Bind(store)
	coord := chat.NewCoordinator(store, chatSvc, userSvc, user,
		chat.WithCoordinatorLogger(logging.WithPrefix("actions")),
	)

	uiState, err := config.LoadUIState(cfg.StatePath)
	if err != nil {
		logging.Warn("ignoring ui state", "err", err)
	}
	var lastSeen string
	if uiState.Group == cfg.Group {
		lastSeen = uiState.LastSeenID
	}

	// 4. Wire root TUI model.
	rootModel := tui.NewApp(tui.Deps{
		Feed: feed.Deps{
			Store:       store,
			Cache:       cache,
			Expansion:   expansion,
			Coordinator: coord,
			Group:       cfg.Group,
			LastSeenID:  lastSeen,
			ProfileURL:  feed.ProfileURL(cfg.APIURL),
		},
		Editor: editor.NewEnvEditor(),
	})

	// 5. Run.
	p := tea.NewProgram(rootModel, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}

	if root, ok := final.(tui.App); ok {
		st := config.UIState{Group: cfg.Group, LastSeenID: root.NewestID()}
		if err := config.SaveUIState(cfg.StatePath, st); err != nil {
			logging.Warn("could not save ui state", "err", err)
		}
	}
	return nil
}

// currentUser fetches the signed-in user. On failure it returns a user
// carrying only the configured id so ownership still resolves offline.
func currentUser(svc app.UserService, userID string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	user, err := svc.CurrentUser(ctx)
	if err != nil {
		return domain.User{ID: userID}, err
	}
	return user, nil
}
