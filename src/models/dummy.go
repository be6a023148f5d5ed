package models

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Dummy is a scriptable backend for tests. Replies are returned in order;
// when the script runs out it echoes the last non-empty prompt line.
type Dummy struct {
	mu      sync.Mutex
	Prefix  string
	Replies []Reply
	Err     error

	// Requests records every request received, in order.
	Requests []Request
}

func NewDummy(prefix string) *Dummy {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &Dummy{Prefix: prefix}
}

func (d *Dummy) Name() string { return "dummy" }

// Script queues canned replies for subsequent Generate calls.
func (d *Dummy) Script(replies ...Reply) *Dummy {
	d.mu.Lock()
	d.Replies = append(d.Replies, replies...)
	d.mu.Unlock()
	return d
}

func (d *Dummy) Generate(_ context.Context, req Request) (Reply, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Requests = append(d.Requests, req)
	if d.Err != nil {
		return Reply{}, d.Err
	}
	if len(d.Replies) > 0 {
		next := d.Replies[0]
		d.Replies = d.Replies[1:]
		return next, nil
	}

	lines := strings.Split(req.Prompt, "\n")
	var last string
	for i := len(lines) - 1; i >= 0; i-- {
		if candidate := strings.TrimSpace(lines[i]); candidate != "" {
			last = candidate
			break
		}
	}
	if last == "" {
		last = "<empty prompt>"
	}
	return Reply{Content: fmt.Sprintf("%s %s", d.Prefix, last)}, nil
}

var _ Backend = (*Dummy)(nil)
