package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"offrecord/internal/domain"
	messagesvc "offrecord/internal/services/message"
)

// fetchLimit caps envelopes drained per poll.
const fetchLimit = 50

// Chat is an interactive conversation with one peer over the relay.
type Chat struct {
	Service *messagesvc.Service
	Relay   domain.RelayClient
	Key     domain.ConversationKey
	Out     io.Writer
	Log     zerolog.Logger
}

// Poll drains the relay once and prints what should be shown.
func (c *Chat) Poll(ctx context.Context) error {
	msgs, err := c.Service.Drain(ctx, c.Relay, c.Key.Account, c.Key.Protocol, fetchLimit)
	for _, m := range msgs {
		fmt.Fprintf(c.Out, "<%s> %s\n", m.From, m.Text)
	}
	return err
}

// Handle processes one line typed by the user. "/otr" starts a handshake
// and "/status" prints the state of every conversation; anything else is
// sent.
func (c *Chat) Handle(ctx context.Context, line string) error {
	switch strings.TrimSpace(line) {
	case "":
		return nil
	case "/otr":
		return c.Service.StartAKE(c.Key)
	case "/status":
		return c.status()
	}

	text, err := c.Service.SendMessage(c.Key, line)
	if errors.Is(err, messagesvc.ErrEncryptionRequired) {
		fmt.Fprintln(c.Out, "encryption required; asked the peer to start a private conversation")
		return nil
	}
	if err != nil {
		return err
	}
	return c.Relay.SendMessage(ctx, domain.Envelope{
		From:      c.Key.Account,
		To:        c.Key.User,
		Protocol:  c.Key.Protocol,
		Body:      text,
		Timestamp: time.Now().Unix(),
	})
}

// status prints one line per known conversation, the current peer first.
func (c *Chat) status() error {
	keys := []domain.ConversationKey{c.Key}
	for _, k := range c.Service.Conversations() {
		if k != c.Key {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		st, err := c.Service.Status(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Out, "%s@%s messaging=%s auth=%s ours=%d theirs=%d\n",
			k.User, k.Protocol, st.MessageState, st.Auth, st.OurKeys, st.TheirKeys)
	}
	return nil
}

// Run reads lines from in and polls every interval until in is exhausted or
// ctx is done.
func (c *Chat) Run(ctx context.Context, in io.Reader, interval time.Duration) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return c.Poll(ctx)
			}
			if err := c.Handle(ctx, line); err != nil {
				fmt.Fprintf(c.Out, "error: %v\n", err)
			}
		case <-ticker.C:
			if err := c.Poll(ctx); err != nil {
				c.Log.Warn().Err(err).Msg("poll failed")
			}
		}
	}
}
