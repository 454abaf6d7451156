package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/healthyfy/internal/errors"
	"github.com/hpungsan/healthyfy/internal/ops"
	"github.com/hpungsan/healthyfy/internal/session"
	"github.com/hpungsan/healthyfy/internal/transcript"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("35")).
			MarginBottom(1)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	replyStyle = lipgloss.NewStyle().
			Padding(0, 2)

	chipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true).
			Padding(0, 2).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// quitWords end the interactive loop.
var quitWords = map[string]bool{"exit": true, "quit": true, ":q": true}

// chatLoop reads one message per line from r until EOF or a quit word and
// prints each reply to w.
func chatLoop(ctx context.Context, r io.Reader, w io.Writer, sessions *session.Manager, input ops.SendInput) error {
	snap, err := sessions.Get(ctx, input.SessionID)
	if err != nil {
		return outputError(err)
	}
	fmt.Fprintln(w, headerStyle.Render("Healthyfy - session "+snap.SessionID+" (type exit to quit)"))
	if len(snap.Messages) > 0 {
		last := snap.Messages[len(snap.Messages)-1]
		printReply(w, last.Text, snap.Chips)
	}

	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quitWords[strings.ToLower(line)] {
			return nil
		}

		input.Message = line
		out, err := ops.Send(ctx, sessions, input)
		if err != nil {
			var appErr *errors.AppError
			if stderrors.As(err, &appErr) && appErr.Code != errors.ErrInternal {
				fmt.Fprintln(w, errorStyle.Render(appErr.Message))
				continue
			}
			return outputError(err)
		}
		printReply(w, out.Reply, out.Chips)
	}
}

func printReply(w io.Writer, text string, chips []transcript.Chip) {
	fmt.Fprintln(w, assistantStyle.Render("healthyfy"))
	fmt.Fprintln(w, replyStyle.Render(text))
	if len(chips) == 0 {
		return
	}
	labels := make([]string, len(chips))
	for i, c := range chips {
		labels[i] = c.Label
	}
	fmt.Fprintln(w, chipStyle.Render("try: "+strings.Join(labels, " | ")))
}
