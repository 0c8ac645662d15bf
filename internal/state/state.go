// Package state holds the channel levels of every universe in use.
package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Channels is the number of DMX channels in one universe.
const Channels = 512

var (
	ErrOutOfRange     = errors.New("channel out of range")
	ErrLengthMismatch = errors.New("channel data length mismatch")
	ErrNotFound       = errors.New("universe not found")
)

// Universe wraps the 512 byte array for convenience.
type Universe [Channels]byte

// ChannelValue defines a universe and the value of one of its channels.
type ChannelValue struct {
	Universe uint8 // Universe: номер вселенной.
	Channel  int   // Channel: номер байта (канал), 0-511.
	Value    uint8 // Value: значение для канала.
}

// State holds the state of all used universes. It is safe for concurrent use.
type State struct {
	mu        sync.RWMutex
	universes map[uint8]*Universe
}

// NewState returns an empty store.
func NewState() *State {
	return &State{universes: map[uint8]*Universe{}}
}

// EnsureUniverse allocates a zeroed universe if it does not exist yet.
func (s *State) EnsureUniverse(id uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(id)
}

func (s *State) ensure(id uint8) *Universe {
	u, ok := s.universes[id]
	if !ok {
		u = new(Universe)
		s.universes[id] = u
	}
	return u
}

// Has reports whether the universe is allocated.
func (s *State) Has(id uint8) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.universes[id]
	return ok
}

// SetChannel sets one channel of an allocated universe.
func (s *State) SetChannel(id uint8, channel int, value uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(id, channel, value)
}

func (s *State) set(id uint8, channel int, value uint8) error {
	u, err := s.lookup(id, channel)
	if err != nil {
		return err
	}
	u[channel] = value
	return nil
}

func (s *State) lookup(id uint8, channel int) (*Universe, error) {
	if err := CheckChannel(channel); err != nil {
		return nil, fmt.Errorf("universe %d: %w", id, err)
	}
	u, ok := s.universes[id]
	if !ok {
		return nil, fmt.Errorf("%w: universe %d is not allocated", ErrOutOfRange, id)
	}
	return u, nil
}

// CheckChannel reports ErrOutOfRange for a channel outside 0-511.
func CheckChannel(channel int) error {
	if channel < 0 || channel >= Channels {
		return fmt.Errorf("%w: channel %d", ErrOutOfRange, channel)
	}
	return nil
}

// SetChannelValues applies the whole batch or, when any entry is invalid,
// none of it.
func (s *State) SetChannelValues(values []ChannelValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range values {
		if _, err := s.lookup(v.Universe, v.Channel); err != nil {
			return err
		}
	}
	for _, v := range values {
		s.universes[v.Universe][v.Channel] = v.Value
	}
	return nil
}

// SetChannels replaces the whole universe.
func (s *State) SetChannels(id uint8, values []byte) error {
	if len(values) != Channels {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrLengthMismatch, len(values), Channels)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.universes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	copy(u[:], values)
	return nil
}

// Universe returns a copy of the universe, so callers never alias the live buffer.
func (s *State) Universe(id uint8) ([Channels]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.universes[id]
	if !ok {
		return [Channels]byte{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return *u, nil
}

// Universes returns the allocated ids in ascending order.
func (s *State) Universes() []uint8 {
	s.mu.RLock()
	ids := make([]uint8, 0, len(s.universes))
	for id := range s.universes {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ResetUniverse zeroes one universe.
func (s *State) ResetUniverse(id uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.universes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	*u = Universe{}
	return nil
}

// RemoveUniverse drops the universe. Removing an absent one is a no-op.
func (s *State) RemoveUniverse(id uint8) {
	s.mu.Lock()
	delete(s.universes, id)
	s.mu.Unlock()
}

// Blackout zeroes every allocated universe.
func (s *State) Blackout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.universes {
		*u = Universe{}
	}
}
