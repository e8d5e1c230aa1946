package session

import (
	"sync"
	"time"

	"veo-prompt-studio/internal/apperr"
	"veo-prompt-studio/internal/charpreview"
	"veo-prompt-studio/internal/prompt"
	"veo-prompt-studio/internal/refimage"
)

type EventType string

const (
	EventState   EventType = "state"
	EventPreview EventType = "preview"
	EventOutput  EventType = "output"
	EventError   EventType = "error"
)

// Event is pushed to subscribers after every change to a session.
type Event struct {
	Type        EventType      `json:"type"`
	CharacterID string         `json:"characterId,omitempty"`
	Message     string         `json:"message,omitempty"`
	State       *prompt.State  `json:"state,omitempty"`
	Output      *prompt.Output `json:"output,omitempty"`
}

const subscriberBuffer = 16

// Session owns one prompt form. All mutations go through Update so the
// preview refresher sees every change.
type Session struct {
	ID string

	mu           sync.Mutex
	state        prompt.State
	output       prompt.Output
	lastActivity time.Time
	refresher    *charpreview.Refresher
	subs         map[int]chan Event
	nextSub      int
	closed       bool
}

func newSession(id string) *Session {
	return &Session{
		ID:           id,
		state:        prompt.NewState(),
		lastActivity: time.Now(),
		subs:         make(map[int]chan Event),
	}
}

func (s *Session) Snapshot() prompt.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
	return s.state.Clone()
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Update applies fn to the current state. On error the state is left as it
// was. Previews whose characters lost all preview inputs are cleared in the
// same step.
func (s *Session) Update(fn func(prompt.State) (prompt.State, error)) (prompt.State, error) {
	return s.update(Event{Type: EventState}, fn)
}

func (s *Session) update(ev Event, fn func(prompt.State) (prompt.State, error)) (prompt.State, error) {
	s.mu.Lock()
	next, err := fn(s.state)
	if err != nil {
		s.mu.Unlock()
		return prompt.State{}, err
	}
	if s.refresher != nil {
		for _, id := range s.refresher.Observe(next.Characters) {
			if cleared, err := prompt.ClearPreview(next, id); err == nil {
				next = cleared
			}
		}
	}
	s.state = next
	s.lastActivity = time.Now()
	snapshot := next.Clone()
	ev.State = &snapshot
	s.broadcastLocked(ev)
	s.mu.Unlock()

	return snapshot, nil
}

func (s *Session) SetField(key, value string) (prompt.State, error) {
	return s.Update(func(st prompt.State) (prompt.State, error) {
		return prompt.SetField(st, key, value)
	})
}

func (s *Session) ApplyTemplate(name string) (prompt.State, error) {
	return s.Update(func(st prompt.State) (prompt.State, error) {
		return prompt.ApplyTemplate(st, name), nil
	})
}

// AddCharacter appends a blank character and returns its id.
func (s *Session) AddCharacter() (string, prompt.State, error) {
	var id string
	st, err := s.Update(func(st prompt.State) (prompt.State, error) {
		var next prompt.State
		next, id = prompt.AddCharacter(st)
		return next, nil
	})
	return id, st, err
}

func (s *Session) RemoveCharacter(id string) (prompt.State, error) {
	return s.Update(func(st prompt.State) (prompt.State, error) {
		return prompt.RemoveCharacter(st, id), nil
	})
}

func (s *Session) UpdateCharacter(id, field, value string) (prompt.State, error) {
	return s.Update(func(st prompt.State) (prompt.State, error) {
		return prompt.UpdateCharacter(st, id, field, value)
	})
}

// UploadImage runs an upload through the image pipeline and stores it in the
// slot. A failed upload empties the slot and returns the processing error.
func (s *Session) UploadImage(id string, slot prompt.ImageSlot, name string, data []byte, opts refimage.Options) (prompt.State, error) {
	ref, procErr := refimage.Ingest(slot, name, data, opts)
	var stored *prompt.ImageRef
	if procErr == nil {
		stored = &ref
	}

	st, err := s.Update(func(st prompt.State) (prompt.State, error) {
		return prompt.SetCharacterImage(st, id, slot, stored)
	})
	if procErr != nil {
		return st, procErr
	}
	return st, err
}

func (s *Session) ClearImage(id string, slot prompt.ImageSlot) (prompt.State, error) {
	return s.Update(func(st prompt.State) (prompt.State, error) {
		return prompt.SetCharacterImage(st, id, slot, nil)
	})
}

func (s *Session) AddDialogueLine() (string, prompt.State, error) {
	var id string
	st, err := s.Update(func(st prompt.State) (prompt.State, error) {
		var next prompt.State
		next, id = prompt.AddDialogueLine(st)
		return next, nil
	})
	return id, st, err
}

func (s *Session) RemoveDialogueLine(id string) (prompt.State, error) {
	return s.Update(func(st prompt.State) (prompt.State, error) {
		return prompt.RemoveDialogueLine(st, id), nil
	})
}

func (s *Session) UpdateDialogueLine(id, field, value string) (prompt.State, error) {
	return s.Update(func(st prompt.State) (prompt.State, error) {
		return prompt.UpdateDialogueLine(st, id, field, value)
	})
}

// Reset returns the form to its initial state. Previews in flight for the
// old characters are dropped when they try to write back.
func (s *Session) Reset() (prompt.State, error) {
	s.mu.Lock()
	s.output = prompt.Output{}
	s.mu.Unlock()
	return s.Update(func(prompt.State) (prompt.State, error) {
		return prompt.NewState(), nil
	})
}

// render is swapped in tests to force a failure.
var render = prompt.Render

// Render produces the outputs for the current state and keeps them for
// Export. A failed render clears the kept outputs.
func (s *Session) Render() (prompt.Output, error) {
	s.mu.Lock()
	out, err := render(s.state)
	s.output = out
	s.lastActivity = time.Now()
	if err != nil {
		s.broadcastLocked(Event{Type: EventError, Message: apperr.UserMessage(err)})
	} else {
		s.broadcastLocked(Event{Type: EventOutput, Output: &out})
	}
	s.mu.Unlock()

	return out, err
}

// Export returns the text of the last render for the given tab and language.
// An empty string means there is nothing to copy.
func (s *Session) Export(tab, lang string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output.Export(tab, lang)
}

func (s *Session) Output() prompt.Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

func (s *Session) SetPreviewDescription(characterID, description string) error {
	_, err := s.update(Event{Type: EventPreview, CharacterID: characterID}, func(st prompt.State) (prompt.State, error) {
		return prompt.SetPreviewDescription(st, characterID, description)
	})
	return err
}

func (s *Session) SetPreviewImage(characterID, imageURL string) error {
	_, err := s.update(Event{Type: EventPreview, CharacterID: characterID}, func(st prompt.State) (prompt.State, error) {
		return prompt.SetPreviewImage(st, characterID, imageURL)
	})
	return err
}

func (s *Session) ClearPreview(characterID string) error {
	_, err := s.update(Event{Type: EventPreview, CharacterID: characterID}, func(st prompt.State) (prompt.State, error) {
		return prompt.ClearPreview(st, characterID)
	})
	return err
}

// Notify sends an event to all subscribers without touching the state.
func (s *Session) Notify(ev Event) {
	s.mu.Lock()
	s.broadcastLocked(ev)
	s.mu.Unlock()
}

// Subscribe registers for session events. Slow subscribers miss events
// rather than block the session. The returned func unsubscribes.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
			s.mu.Unlock()
		})
	}
}

func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	refresher := s.refresher
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	if refresher != nil {
		refresher.Close()
	}
}

// broadcastLocked never blocks, so it is safe under s.mu; holding the lock
// keeps sends ordered and away from channels being closed.
func (s *Session) broadcastLocked(ev Event) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
