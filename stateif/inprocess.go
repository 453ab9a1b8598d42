// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package stateif

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// InProcess is the default, lowest-latency StateInterface: a direct
// buffered channel per topic, single process. It is what
// config.BuildStateInterface returns when no external transport is
// configured, and what the state-interface integration test runs over.
// A tickit.Master built with a nil Dispatcher, and every tickit.Slave,
// call Component.HandleInput directly instead of going through it.
//
// Grounded on the teacher's Socket/Pin indirection (socket.go): a direct,
// allocate-on-first-use reference per named endpoint, no network framing.
type InProcess struct {
	mu      sync.Mutex
	topics  map[string]chan Message
	bufSize int
	closed  bool
}

// NewInProcess returns a ready-to-use in-process state interface. bufSize
// sets the per-topic channel buffer.
func NewInProcess(bufSize int) *InProcess {
	if bufSize < 1 {
		bufSize = 1
	}
	return &InProcess{topics: make(map[string]chan Message), bufSize: bufSize}
}

func (p *InProcess) channel(topic string) chan Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.topics[topic]
	if !ok {
		ch = make(chan Message, p.bufSize)
		p.topics[topic] = ch
	}
	return ch
}

// Publish implements StateInterface.
func (p *InProcess) Publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("tickit/stateif: publish on closed InProcess")
	}
	p.mu.Unlock()

	ch := p.channel(topic)
	select {
	case ch <- Message{Topic: topic, Payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe implements StateInterface. The returned channel delivers
// messages in publication order and is closed when ctx is cancelled.
func (p *InProcess) Subscribe(ctx context.Context, topic string) (<-chan Message, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New("tickit/stateif: subscribe on closed InProcess")
	}
	p.mu.Unlock()

	src := p.channel(topic)
	out := make(chan Message, p.bufSize)
	go func() {
		defer close(out)
		for {
			select {
			case msg, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close implements StateInterface. Idempotent.
func (p *InProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, ch := range p.topics {
		close(ch)
	}
	return nil
}
