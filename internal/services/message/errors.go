package message

import (
	"errors"
	"fmt"

	"offrecord/internal/protocol/wire"
)

var (
	// ErrUnsupported matches every *UnsupportedError via errors.Is.
	ErrUnsupported = errors.New("unsupported message kind")
	// ErrEncryptionRequired is returned by SendMessage when policy forbids
	// plaintext; a Query has been injected instead.
	ErrEncryptionRequired = errors.New("encryption required; sent a query instead of the message")
	// ErrConversationFinished is returned by SendMessage once the peer has
	// ended the private conversation.
	ErrConversationFinished = errors.New("private conversation finished; message not sent")
	// ErrDisabled is returned by StartAKE when policy allows no version.
	ErrDisabled = errors.New("protocol disabled by policy")
)

// UnsupportedError reports a message kind this implementation does not
// process.
type UnsupportedError struct {
	Kind wire.Kind
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s messages are not supported", e.Kind)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }
