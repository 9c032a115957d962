// Package ui is the interactive terminal front end: messages, prompts and
// tweet listings.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"chirp/internal/tweet"
	"chirp/internal/util"
	"github.com/fatih/color"
)

type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	err io.Writer
	now func() time.Time

	user  *color.Color
	meta  *color.Color
	warn  *color.Color
	quiet *color.Color
}

// New builds a terminal over the given streams. colors=false forces plain
// output; otherwise color follows the attached terminal.
func New(in io.Reader, out, errOut io.Writer, colors bool) *Terminal {
	t := &Terminal{
		in:    bufio.NewReader(in),
		out:   out,
		err:   errOut,
		now:   time.Now,
		user:  color.New(color.FgCyan, color.Bold),
		meta:  color.New(color.FgYellow),
		warn:  color.New(color.FgRed),
		quiet: color.New(color.Faint),
	}
	if !colors {
		for _, c := range []*color.Color{t.user, t.meta, t.warn, t.quiet} {
			c.DisableColor()
		}
	}
	return t
}

func (t *Terminal) Info(msg string) { fmt.Fprintln(t.out, msg) }

func (t *Terminal) Warn(msg string) { fmt.Fprintln(t.err, t.warn.Sprint("Warning: "+msg)) }

// Prompt shows text and reads one line. End of input yields what was read.
func (t *Terminal) Prompt(text string) (string, error) {
	fmt.Fprint(t.out, text+": ")
	line, err := t.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm accepts y or yes, case-insensitively.
func (t *Terminal) Confirm(text string) (bool, error) {
	answer, err := t.Prompt(text + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (t *Terminal) ShowStatusPreview(text string) {
	fmt.Fprintf(t.out, "%s\n  %s\n", t.meta.Sprintf("Status update (%d characters):", util.RuneCount(text)), text)
}

func (t *Terminal) ShowTweets(tweets []tweet.Tweet) {
	for _, tw := range tweets {
		t.showTweet(tw)
	}
}

func (t *Terminal) showTweet(tw tweet.Tweet) {
	if !tw.HasStatus() {
		fmt.Fprintln(t.out, t.user.Sprint(tw.FromUser))
		return
	}
	header := t.user.Sprint(tw.FromUser)
	if tw.Retweet() {
		header += t.meta.Sprint(", RT " + tw.RTUser)
	}
	if tw.Reply() {
		header += t.meta.Sprint(", in reply to " + tw.ToUser)
	}
	if tw.Timestamped() {
		header += t.quiet.Sprint(", " + Age(t.now().Sub(tw.CreatedAt)) + " ago")
	}
	fmt.Fprintf(t.out, "%s:\n  %s\n", header, tw.Status)
}

// Age renders d coarsely, e.g. "1 minute" or "3 days".
func Age(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return plural(int(d/time.Second), "second")
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d/(24*time.Hour)), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
