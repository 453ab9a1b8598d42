// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package stateif

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/db47h/tickit"
)

// RunComponent bridges comp onto si (spec §4.6 / §6): it subscribes to
// comp's conventional input topic, decodes each message as a tickit.Input,
// runs comp.HandleInput, and publishes the resulting tickit.Output on comp's
// conventional output topic. It blocks until ctx is done or si's
// subscription channel closes, and is the component-side half of the
// round trip a Dispatcher drives from the scheduler side — this is what
// lets a component run in a separate OS process from its scheduler when si
// is an external-bus transport such as Kafka.
func RunComponent(ctx context.Context, si StateInterface, id tickit.ComponentId, comp tickit.Component) error {
	in, err := si.Subscribe(ctx, InputTopic(string(id)))
	if err != nil {
		return tickit.NewTransportError(InputTopic(string(id)), err)
	}
	outTopic := OutputTopic(string(id))
	for {
		select {
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			var env tickit.Input
			if err := json.Unmarshal(msg.Payload, &env); err != nil {
				return tickit.NewTransportError(msg.Topic, err)
			}
			out, err := comp.HandleInput(ctx, env)
			if err != nil {
				return err
			}
			payload, err := json.Marshal(out)
			if err != nil {
				return tickit.NewTransportError(outTopic, err)
			}
			if err := si.Publish(ctx, outTopic, payload); err != nil {
				return tickit.NewTransportError(outTopic, err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Dispatcher adapts a StateInterface into a tickit.Dispatcher (spec §4.6):
// it serializes each Input and publishes it on the target component's input
// topic, then awaits the matching Output on that component's output topic.
// It is the scheduler-side half of the round trip RunComponent drives on
// the component side.
//
// A Dispatcher subscribes to a component's output topic at most once, the
// first time that component is dispatched to, and reuses the same
// subscription channel for every later call: InProcess's Subscribe starts a
// fresh forwarding goroutine draining a shared per-topic channel on every
// call, so two concurrent subscriptions to the same topic would split its
// messages between them rather than each observing every one.
type Dispatcher struct {
	si     StateInterface
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs map[tickit.ComponentId]<-chan Message
}

// NewDispatcher builds a Dispatcher over si. The returned Dispatcher owns a
// background context used for its output subscriptions; call Close to
// release it.
func NewDispatcher(si StateInterface) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{si: si, ctx: ctx, cancel: cancel, subs: make(map[tickit.ComponentId]<-chan Message)}
}

// Close releases the Dispatcher's output subscriptions. It does not close
// the underlying StateInterface, which may be shared with RunComponent
// bridges still in flight.
func (d *Dispatcher) Close() {
	d.cancel()
}

func (d *Dispatcher) outputChannel(component tickit.ComponentId) (<-chan Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch, ok := d.subs[component]; ok {
		return ch, nil
	}
	ch, err := d.si.Subscribe(d.ctx, OutputTopic(string(component)))
	if err != nil {
		return nil, err
	}
	d.subs[component] = ch
	return ch, nil
}

// Dispatch implements tickit.Dispatcher: it is the method value passed to
// tickit.NewMaster as its Dispatcher argument. tickit.NewSlave takes no
// Dispatcher; a Slave always calls its inner components directly.
func (d *Dispatcher) Dispatch(ctx context.Context, component tickit.ComponentId, in tickit.Input) (tickit.Output, error) {
	inTopic := InputTopic(string(component))
	payload, err := json.Marshal(in)
	if err != nil {
		return tickit.Output{}, tickit.NewTransportError(inTopic, err)
	}
	if err := d.si.Publish(ctx, inTopic, payload); err != nil {
		return tickit.Output{}, tickit.NewTransportError(inTopic, err)
	}

	ch, err := d.outputChannel(component)
	if err != nil {
		return tickit.Output{}, tickit.NewTransportError(OutputTopic(string(component)), err)
	}

	select {
	case msg, ok := <-ch:
		if !ok {
			return tickit.Output{}, tickit.NewTransportError(OutputTopic(string(component)), errors.New("output subscription closed"))
		}
		var out tickit.Output
		if err := json.Unmarshal(msg.Payload, &out); err != nil {
			return tickit.Output{}, tickit.NewTransportError(msg.Topic, err)
		}
		return out, nil
	case <-ctx.Done():
		return tickit.Output{}, ctx.Err()
	}
}
