package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrContract reports that a transaction resolved with a different
	// event kind than the issuing request expected.
	ErrContract = errors.New("response event kind does not match request")

	// ErrDetached reports an operation attempted on a detached handle.
	ErrDetached = errors.New("handle detached")
)

// ProtocolError is an error reported by the remote service inside an event
// envelope. It always carries both the code and the message.
type ProtocolError struct {
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("audiobridge error %d: %s", e.Code, e.Message)
}
