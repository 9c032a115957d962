package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"chirp/internal/apperr"
	"chirp/internal/cmdlog"
	"chirp/internal/config"
	"chirp/internal/logging"
	"chirp/internal/metrics"
	"chirp/internal/store/journal"
	"chirp/internal/tweet"
	"chirp/internal/ui"
	"chirp/internal/xclient"
	"github.com/urfave/cli/v3"
)

const version = "0.3.0"

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "chirp",
		Usage:   "read timelines and post status updates from the terminal",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path of the YAML config file",
				Value:   config.DefaultPath(),
				Sources: cli.EnvVars("CHIRP_CONFIG"),
			},
			&cli.IntFlag{Name: "num", Aliases: []string{"n", "count"}, Usage: "statuses per page (overrides timeline.count)"},
			&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Usage: "page to fetch (overrides timeline.page)"},
			&cli.StringFlag{Name: "proxy", Usage: "HTTP proxy host[:port] (overrides network.proxy)"},
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "account screen name (overrides account.username)"},
			&cli.BoolFlag{Name: "no-url-shorten", Usage: "send links in updates as typed"},
			&cli.BoolFlag{Name: "no-colors", Usage: "disable colored output"},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level: debug, info, warn or error",
				Value:   "error",
				Sources: cli.EnvVars("CHIRP_LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logging.Setup(os.Stderr, c.String("log-level"))
			return ctx, nil
		},
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return fmt.Errorf("%w: %w", apperr.ErrCommandLine, err)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Present() {
				return fmt.Errorf("%w: %s", apperr.ErrUnknownCommand, c.Args().First())
			}
			return homeCmd.Action(ctx, c)
		},
		Commands: []*cli.Command{
			homeCmd,
			mentionsCmd,
			userCmd,
			friendsCmd,
			followersCmd,
			searchCmd,
			updateCmd,
			historyCmd,
			initCmd,
		},
	}
}

var homeCmd = &cli.Command{
	Name:   "home",
	Usage:  "show the home timeline (default)",
	Action: list("home", (*xclient.Client).Home),
}

var mentionsCmd = &cli.Command{
	Name:   "mentions",
	Usage:  "show statuses mentioning you",
	Action: list("mentions", (*xclient.Client).Mentions),
}

var userCmd = &cli.Command{
	Name:      "user",
	Usage:     "show a user's statuses",
	ArgsUsage: "[screen name]",
	Action: action("user", func(ctx context.Context, s *session, c *cli.Command) error {
		_, err := s.client.User(ctx, c.Args().First())
		return err
	}),
}

var friendsCmd = &cli.Command{
	Name:   "friends",
	Usage:  "list the accounts you follow",
	Action: list("friends", (*xclient.Client).Friends),
}

var followersCmd = &cli.Command{
	Name:   "followers",
	Usage:  "list your followers",
	Action: list("followers", (*xclient.Client).Followers),
}

var searchCmd = &cli.Command{
	Name:      "search",
	Usage:     "search public statuses",
	ArgsUsage: "word [word...]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "or", Usage: "match any word instead of all"},
	},
	Action: action("search", func(ctx context.Context, s *session, c *cli.Command) error {
		op := xclient.OpAnd
		if c.Bool("or") {
			op = xclient.OpOr
		}
		_, err := s.client.Search(ctx, c.Args().Slice(), op)
		return err
	}),
}

var updateCmd = &cli.Command{
	Name:      "update",
	Usage:     "post a status update (prompts when no text is given)",
	ArgsUsage: "[text...]",
	Action: action("update", func(ctx context.Context, s *session, c *cli.Command) error {
		var err error
		if c.Args().Present() {
			_, err = s.client.Update(ctx, strings.Join(c.Args().Slice(), " "))
		} else {
			_, err = s.client.PromptUpdate(ctx)
		}
		return err
	}),
}

var historyCmd = &cli.Command{
	Name:  "history",
	Usage: "list status updates sent from this machine",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Usage: "number of updates to show", Value: 10},
	},
	Action: action("history", func(ctx context.Context, s *session, c *cli.Command) error {
		_, err := s.client.History(ctx, c.Int("limit"))
		return err
	}),
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "write a config file if none exists and authorize this client",
	Action: action("init", func(ctx context.Context, s *session, _ *cli.Command) error {
		ui.PrintBanner(os.Stdout, s.colors)
		if err := s.client.Authorize(ctx); err != nil {
			return err
		}
		s.term.Info("Authorized as " + s.client.Authorizer().ScreenName() + ". Settings saved to " + s.cfg.Path())
		return nil
	}),
}

// session holds what one command invocation needs.
type session struct {
	cfg    *config.Config
	term   *ui.Terminal
	client *xclient.Client
	db     *journal.DB
	colors bool
}

func openSession(c *cli.Command) (*session, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: config %s: %w", apperr.ErrCommandLine, path, err)
	}
	if c.IsSet("num") {
		cfg.Timeline.Count = c.Int("num")
	}
	if c.IsSet("page") {
		cfg.Timeline.Page = c.Int("page")
	}
	if c.IsSet("proxy") {
		cfg.Network.Proxy = c.String("proxy")
	}
	if c.IsSet("username") {
		cfg.Account.Username = c.String("username")
	}
	if c.Bool("no-url-shorten") {
		cfg.Shorten.Enabled = false
	}
	if c.Name == "init" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := cfg.Persist(); err != nil {
				return nil, err
			}
		}
	}

	s := &session{cfg: &cfg, colors: cfg.Display.Colors && !c.Bool("no-colors")}
	s.term = ui.New(os.Stdin, os.Stdout, os.Stderr, s.colors)
	opts := xclient.Options{Config: s.cfg, UI: s.term}
	if cfg.Storage.DBPath != "" {
		db, err := journal.Open(cfg.Storage.DBPath)
		if err != nil {
			logging.Warn("journal_open_failed", map[string]any{"path": cfg.Storage.DBPath, "error": err.Error()})
		} else {
			s.db = db
			opts.Journal = db
		}
	}
	client, err := xclient.New(opts)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.client = client
	return s, nil
}

func (s *session) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// list runs a read operation whose output the client has already shown.
func list(name string, op func(*xclient.Client, context.Context) ([]tweet.Tweet, error)) cli.ActionFunc {
	return action(name, func(ctx context.Context, s *session, _ *cli.Command) error {
		_, err := op(s.client, ctx)
		return err
	})
}

// action wraps a command body with session setup, logging and metrics.
func action(name string, f func(ctx context.Context, s *session, c *cli.Command) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		var textfile string
		err := cmdlog.Run(name, func() error {
			s, err := openSession(c)
			if err != nil {
				return err
			}
			defer s.Close()
			textfile = s.cfg.Metrics.Textfile
			return f(ctx, s, c)
		})
		if textfile != "" {
			if werr := metrics.WriteTextfile(textfile); werr != nil {
				logging.Warn("metrics_textfile_failed", map[string]any{"path": textfile, "error": werr.Error()})
			}
		}
		return err
	}
}
