package message

import (
	"context"
	"errors"

	"offrecord/internal/conversation"
	"offrecord/internal/domain"
	"offrecord/internal/protocol/wire"
)

// Delivered is a message to show the local user.
type Delivered struct {
	From      string
	Text      string
	Timestamp int64
}

// Drain fetches queued envelopes for account, dispatches them in order, and
// acknowledges the processed prefix.
//
// Unsupported and malformed messages are logged and count as processed.
// Any other failure stops the drain so the remaining envelopes stay queued;
// the envelopes before it are still acknowledged.
func (s *Service) Drain(
	ctx context.Context,
	relay domain.RelayClient,
	account, protocol string,
	limit int,
) ([]Delivered, error) {
	envs, err := relay.FetchMessages(ctx, account, limit)
	if err != nil {
		return nil, err
	}

	var (
		out       []Delivered
		processed int
		stopErr   error
	)
	for _, env := range envs {
		proto := env.Protocol
		if proto == "" {
			proto = protocol
		}
		key := domain.ConversationKey{User: env.From, Account: account, Protocol: proto}
		got, err := s.ReceiveMessage(key, env.Body)
		if err != nil && !skippable(err) {
			stopErr = err
			break
		}
		if err != nil {
			s.log.Warn().Err(err).Str("peer", peerID(key)).Msg("skipped message")
		}
		processed++
		if got.Display {
			out = append(out, Delivered{From: env.From, Text: got.Text, Timestamp: env.Timestamp})
		}
	}

	if processed > 0 {
		if err := relay.AckMessages(ctx, account, processed); err != nil {
			return out, err
		}
	}
	return out, stopErr
}

func skippable(err error) bool {
	return errors.Is(err, ErrUnsupported) ||
		errors.Is(err, wire.ErrMalformed) ||
		errors.Is(err, conversation.ErrInvalidArgument)
}
