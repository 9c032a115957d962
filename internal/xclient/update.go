package xclient

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"chirp/internal/logging"
	"chirp/internal/metrics"
	"chirp/internal/tweet"
	"chirp/internal/util"
)

// MaxStatusLength is the longest status, in code points, the service accepts.
const MaxStatusLength = 140

// PromptUpdate asks for the status text and then runs Update.
func (c *Client) PromptUpdate(ctx context.Context) ([]tweet.Tweet, error) {
	text, err := c.ui.Prompt("Status")
	if err != nil {
		return nil, err
	}
	return c.Update(ctx, text)
}

// Update posts text as a new status after shortening, truncation and
// confirmation. A cancelled update returns no tweets and no error.
func (c *Client) Update(ctx context.Context, text string) ([]tweet.Tweet, error) {
	text = strings.TrimSpace(text)
	if c.shortener != nil && text != "" {
		text = c.shortenURLs(ctx, text)
	}
	if util.RuneCount(text) > MaxStatusLength {
		text = util.Truncate(text, MaxStatusLength)
		c.ui.Warn(fmt.Sprintf("Status is longer than %d characters and will be truncated.", MaxStatusLength))
	}
	if text == "" {
		c.ui.Info("Cancelled.")
		return nil, nil
	}
	c.ui.ShowStatusPreview(text)
	ok, err := c.ui.Confirm("Send this status update?")
	if err != nil {
		return nil, err
	}
	if !ok {
		c.ui.Info("Cancelled.")
		return nil, nil
	}

	res := c.rest.Sub("statuses", "update.json")
	body, err := c.withReauth(ctx, func() (string, error) {
		return res.Post(ctx, url.Values{"status": {text}})
	})
	if err != nil {
		return nil, err
	}
	metrics.UpdatesSent.Inc()
	tweets, err := tweet.FromJSON(body, nil, tweet.RESTStatusPaths, c.ui.Warn)
	if err != nil {
		return nil, err
	}
	c.record(ctx, tweets)
	c.ui.ShowTweets(tweets)
	return tweets, nil
}

func (c *Client) record(ctx context.Context, tweets []tweet.Tweet) {
	if c.journal == nil {
		return
	}
	now := time.Now()
	for _, t := range tweets {
		if err := c.journal.RecordUpdate(ctx, t, now); err != nil {
			logging.Warn("journal_write_failed", map[string]any{"error": err.Error()})
		}
	}
}

// shortenURLs replaces each distinct URL in text by its short form. Any
// service failure leaves the whole text as it was.
func (c *Client) shortenURLs(ctx context.Context, text string) string {
	var pairs [][2]string
	for _, long := range util.ExtractURLs(text) {
		short, err := c.shortener.Shorten(ctx, long)
		if err != nil {
			logging.Warn("shorten_failed", map[string]any{"error": err.Error()})
			c.ui.Warn("URL shortening failed, sending links unshortened: " + err.Error())
			return text
		}
		short = strings.TrimSpace(short)
		if short == "" || short == long {
			c.ui.Warn("Could not shorten " + long + ", leaving it as is.")
			continue
		}
		pairs = append(pairs, [2]string{long, short})
	}
	if len(pairs) == 0 {
		return text
	}
	// longest first so a URL never clobbers a longer one it prefixes
	sort.SliceStable(pairs, func(i, j int) bool { return len(pairs[i][0]) > len(pairs[j][0]) })
	oldnew := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		oldnew = append(oldnew, p[0], p[1])
	}
	return strings.NewReplacer(oldnew...).Replace(text)
}
