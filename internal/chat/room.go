// Package chat implements the single-room chat relay streamed over SSE.
package chat

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mediashelf/mediashelf/internal/models"
	"github.com/mediashelf/mediashelf/pkg/metrics"
)

const (
	DefaultRoom = "default_room"

	EventMessage  = "message"
	EventRoomData = "room_data"

	systemUser = "system"
)

var (
	ErrNotInRoom = errors.New("join the chat before sending messages")
	ErrClosed    = errors.New("chat room closed")
)

// Event is delivered to subscribers; Type becomes the SSE event name.
type Event struct {
	Type string
	Data interface{}
}

type Message struct {
	User string `json:"user"`
	Text string `json:"text"`
}

type RoomData struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// Subscription is one open stream. Events is closed on Leave or Close.
type Subscription struct {
	ID     string
	UserID string
	Name   string
	Events <-chan Event

	events chan Event
}

type sendReq struct {
	userID string
	text   string
	resp   chan error
}

// Room relays messages between joined members.
//
// A single goroutine owns the member list; exported methods talk to it over
// channels so no mutex is needed.
type Room struct {
	name string

	joinCh    chan joinReq
	leaveCh   chan *Subscription
	sendCh    chan sendReq
	membersCh chan chan []string

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

type joinReq struct {
	sub  *Subscription
	done chan struct{}
}

func NewRoom(name string) *Room {
	if name == "" {
		name = DefaultRoom
	}
	r := &Room{
		name:      name,
		joinCh:    make(chan joinReq),
		leaveCh:   make(chan *Subscription),
		sendCh:    make(chan sendReq),
		membersCh: make(chan chan []string),
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Room) run() {
	defer close(r.stopped)

	var order []*Subscription
	members := make(map[string]*Subscription)

	deliver := func(s *Subscription, ev Event) {
		select {
		case s.events <- ev:
		default:
			// slow reader; drop rather than stall the room
		}
	}
	broadcast := func(ev Event, except *Subscription) {
		for _, s := range order {
			if s != except {
				deliver(s, ev)
			}
		}
	}
	names := func() []string {
		out := make([]string, 0, len(order))
		for _, s := range order {
			out = append(out, s.Name)
		}
		return out
	}
	roomData := func() Event {
		return Event{Type: EventRoomData, Data: RoomData{Room: r.name, Users: names()}}
	}

	for {
		select {
		case <-r.stopCh:
			for _, s := range order {
				close(s.events)
			}
			metrics.ChatMembers.Set(0)
			return

		case req := <-r.joinCh:
			s := req.sub
			members[s.ID] = s
			order = append(order, s)
			metrics.ChatMembers.Set(float64(len(order)))
			deliver(s, Event{Type: EventMessage, Data: Message{User: systemUser, Text: fmt.Sprintf("Welcome, %s.", s.Name)}})
			broadcast(Event{Type: EventMessage, Data: Message{User: systemUser, Text: fmt.Sprintf("%s has entered the chat.", s.Name)}}, s)
			broadcast(roomData(), nil)
			close(req.done)

		case s := <-r.leaveCh:
			if _, ok := members[s.ID]; !ok {
				continue
			}
			delete(members, s.ID)
			for i, m := range order {
				if m == s {
					order = append(order[:i], order[i+1:]...)
					break
				}
			}
			close(s.events)
			metrics.ChatMembers.Set(float64(len(order)))
			broadcast(Event{Type: EventMessage, Data: Message{User: systemUser, Text: fmt.Sprintf("%s has left the chat.", s.Name)}}, nil)
			broadcast(roomData(), nil)

		case req := <-r.sendCh:
			var from *Subscription
			for _, s := range order {
				if s.UserID == req.userID {
					from = s
					break
				}
			}
			if from == nil {
				req.resp <- ErrNotInRoom
				continue
			}
			broadcast(Event{Type: EventMessage, Data: Message{User: from.Name, Text: req.text}}, nil)
			req.resp <- nil

		case resp := <-r.membersCh:
			resp <- names()
		}
	}
}

// Join adds the caller to the room. The returned subscription already holds
// the welcome notice and the current room data.
func (r *Room) Join(id *models.Identity) (*Subscription, error) {
	ch := make(chan Event, 64)
	s := &Subscription{
		ID:     uuid.New().String(),
		UserID: id.ID,
		Name:   id.DisplayName(),
		Events: ch,
		events: ch,
	}
	if r.closed.Load() {
		return nil, ErrClosed
	}
	done := make(chan struct{})
	select {
	case r.joinCh <- joinReq{sub: s, done: done}:
	case <-r.stopped:
		return nil, ErrClosed
	}
	select {
	case <-done:
	case <-r.stopped:
		return nil, ErrClosed
	}
	return s, nil
}

// Leave removes s; calling it twice is harmless.
func (r *Room) Leave(s *Subscription) {
	if r.closed.Load() {
		return
	}
	select {
	case r.leaveCh <- s:
	case <-r.stopped:
	}
}

// Send relays text from userID to every member, the sender included.
func (r *Room) Send(userID, text string) error {
	if r.closed.Load() {
		return ErrClosed
	}
	resp := make(chan error, 1)
	select {
	case r.sendCh <- sendReq{userID: userID, text: text, resp: resp}:
	case <-r.stopped:
		return ErrClosed
	}
	select {
	case err := <-resp:
		return err
	case <-r.stopped:
		return ErrClosed
	}
}

// Members returns the display names of joined members in join order.
func (r *Room) Members() []string {
	if r.closed.Load() {
		return nil
	}
	resp := make(chan []string, 1)
	select {
	case r.membersCh <- resp:
	case <-r.stopped:
		return nil
	}
	select {
	case m := <-resp:
		return m
	case <-r.stopped:
		return nil
	}
}

func (r *Room) Name() string { return r.name }

// Close stops the loop and closes every subscription.
func (r *Room) Close() {
	if r.closed.CompareAndSwap(false, true) {
		close(r.stopCh)
	}
	<-r.stopped
}
