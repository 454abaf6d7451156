package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/healthyfy/internal/errors"
	"github.com/hpungsan/healthyfy/internal/mcp"
	"github.com/hpungsan/healthyfy/internal/ops"
	"github.com/hpungsan/healthyfy/internal/remote"
	"github.com/hpungsan/healthyfy/internal/web"
)

// runtime builds services on first use so help and version never touch
// the database. Only services it built are closed after the command.
type runtime struct {
	svc   *services
	owned bool
}

func (rt *runtime) services(c *cli.Context) (*services, error) {
	if rt.svc != nil {
		return rt.svc, nil
	}
	svc, err := bootstrap(c.Context, c.String("env-file"))
	if err != nil {
		return nil, err
	}
	rt.svc, rt.owned = svc, true
	return svc, nil
}

func (rt *runtime) close() {
	if rt.owned {
		rt.svc.Close()
	}
}

// newCLIApp creates the CLI application with all commands. A nil svc is
// bootstrapped from ~/.healthyfy when a command first needs it.
func newCLIApp(svc *services) *cli.App {
	rt := &runtime{svc: svc}
	app := &cli.App{
		Name:    "healthyfy",
		Usage:   "Wellness assistant: log workouts, meals, water, mood and symptoms by chatting",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Value: "default", Usage: "Conversation id"},
			&cli.StringFlag{Name: "user-id", EnvVars: []string{"HEALTHYFY_USER_ID"}, Usage: "Signed-in user id"},
			&cli.StringFlag{Name: "email", EnvVars: []string{"HEALTHYFY_USER_EMAIL"}, Usage: "Signed-in user email"},
			&cli.StringFlag{Name: "name", EnvVars: []string{"HEALTHYFY_USER_NAME"}, Usage: "Signed-in user display name"},
			&cli.StringFlag{Name: "env-file", Usage: "Load environment from this file instead of ./.env"},
		},
		Commands: []*cli.Command{
			chatCmd(rt),
			stateCmd(rt),
			resetCmd(rt),
			transcriptCmd(rt),
			collectionCmd(rt),
			sessionsCmd(rt),
			serveCmd(rt),
			mcpCmd(rt),
		},
		After: func(*cli.Context) error {
			rt.close()
			return nil
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// userInput reads the global identity flags.
func userInput(c *cli.Context) ops.UserInput {
	return ops.UserInput{
		UserID:      c.String("user-id"),
		Email:       c.String("email"),
		DisplayName: c.String("name"),
	}
}

// chatCmd creates the chat command.
func chatCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "Send a message (or read it from stdin); with no message on a terminal, chat interactively",
		ArgsUsage: "[message...]",
		// "help" is a message here; --help still prints usage.
		HideHelpCommand: true,
		Action: func(c *cli.Context) error {
			svc, err := rt.services(c)
			if err != nil {
				return outputError(err)
			}
			input := ops.SendInput{
				SessionID: c.String("session"),
				User:      userInput(c),
			}

			switch {
			case c.NArg() > 0:
				input.Message = strings.Join(c.Args().Slice(), " ")
			case stdinHasData():
				text, err := readStdin(c.App.Reader)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				input.Message = text
			default:
				return chatLoop(c.Context, c.App.Reader, c.App.Writer, svc.sessions, input)
			}

			output, err := ops.Send(c.Context, svc.sessions, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// stateCmd creates the state command.
func stateCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Show the conversation state",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "messages", Aliases: []string{"m"}, Usage: "Include the message history"},
		},
		Action: func(c *cli.Context) error {
			svc, err := rt.services(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.State(c.Context, svc.sessions, ops.StateInput{
				SessionID:       c.String("session"),
				IncludeMessages: c.Bool("messages"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// resetCmd creates the reset command.
func resetCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Forget the conversation (stored records are kept)",
		Action: func(c *cli.Context) error {
			svc, err := rt.services(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Reset(c.Context, svc.sessions, ops.ResetInput{SessionID: c.String("session")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// transcriptCmd creates the transcript command.
func transcriptCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "transcript",
		Usage: "Export the conversation",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json|yaml|markdown"},
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: exports dir)"},
			&cli.BoolFlag{Name: "stdout", Usage: "Print the transcript instead of writing a file"},
		},
		Action: func(c *cli.Context) error {
			svc, err := rt.services(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Transcript(c.Context, svc.sessions, svc.cfg, ops.TranscriptInput{
				SessionID: c.String("session"),
				Format:    c.String("format"),
				Path:      c.String("path"),
				Inline:    c.Bool("stdout"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("stdout") {
				_, err := io.WriteString(c.App.Writer, output.Content)
				return err
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// collectionCmd creates the collection command.
func collectionCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "collection",
		Usage: "List stored records of the signed-in user, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Collection, e.g. nutrition:water (omit to list names)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Pagination offset"},
		},
		Action: func(c *cli.Context) error {
			name := c.String("name")
			if name == "" {
				return outputJSON(c.App.Writer, ops.Collections())
			}
			svc, err := rt.services(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.ListCollection(c.Context, svc.store, ops.ListCollectionInput{
				OwnerID: c.String("user-id"),
				Name:    name,
				Limit:   c.Int("limit"),
				Offset:  c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// sessionsCmd creates the sessions command.
func sessionsCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List conversations, most recent first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Pagination offset"},
		},
		Action: func(c *cli.Context) error {
			svc, err := rt.services(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.ListSessions(c.Context, svc.store, ops.ListSessionsInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API, websocket chat and transcript pages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			svc, err := rt.services(c)
			if err != nil {
				return outputError(err)
			}
			srv, err := web.NewServer(web.Deps{
				Sessions: svc.sessions,
				Store:    svc.store,
				Config:   svc.cfg,
				Logger:   svc.logger,
			}, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, svc.logger)
		},
	}
}

// mcpCmd creates the mcp command; the same server runs by default when
// stdin is piped.
func mcpCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the assistant tools over MCP stdio",
		Action: func(c *cli.Context) error {
			svc, err := rt.services(c)
			if err != nil {
				return outputError(err)
			}
			return mcp.Run(svc.sessions, svc.store, svc.cfg, Version)
		},
	}
}

// Helper functions

// outputJSON marshals result as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats err as the JSON error envelope shared with the HTTP
// and MCP surfaces. The CLI runs locally, so plain errors keep their text.
func outputError(err error) error {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = &errors.AppError{Code: errors.ErrInternal, Status: 500, Message: err.Error()}
	}
	body, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
			"status":  appErr.Status,
		},
	})
	return cli.Exit(string(body), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads one message from r, at most one byte past the limit so
// oversized input is still rejected.
func readStdin(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, remote.MaxMessageLen+1))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// isCLIMode determines if we should run CLI vs MCP server: any known
// subcommand or help/version flag selects the CLI.
func isCLIMode(args []string) bool {
	for _, arg := range args {
		if cliCommands[arg] || isHelpOrVersionArg(arg) {
			return true
		}
	}
	return false
}

func isHelpOrVersionArg(arg string) bool {
	switch arg {
	case "--help", "-h", "--version", "-v", "help":
		return true
	}
	return false
}

// errorMessage returns what main prints for err.
func errorMessage(err error) string {
	var exit cli.ExitCoder
	if stderrors.As(err, &exit) {
		return exit.Error()
	}
	return fmt.Sprintf("error: %v", err)
}
