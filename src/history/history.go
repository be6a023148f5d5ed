// Package history persists chat transcripts between requests. A transcript
// is an ordered list of turns stored under an opaque id; the id travels back
// to the client, which presents it on the next request to continue the
// conversation.
package history

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no transcript exists under the given id.
var ErrNotFound = errors.New("history: conversation not found")

// Turn is one message in a transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store persists transcripts. Save replaces the whole transcript under id;
// Load must return the turns in the exact order they were saved.
type Store interface {
	Load(ctx context.Context, id string) ([]Turn, error)
	Save(ctx context.Context, id string, turns []Turn) error
	Close(ctx context.Context) error
}
