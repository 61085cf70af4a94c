package state

import (
	"encoding/json"

	"tokenauth/internal/config"
	"tokenauth/internal/credentials"
)

// State is the observable session: the active user type, the active
// credential set and the profile returned by the API. Each slot is
// independent and nil when unset; a nil Credentials slot means signed out.
type State struct {
	UserType    *Slot[*config.UserType]
	Credentials *Slot[*credentials.Set]
	Profile     *Slot[json.RawMessage]
}

// New creates a signed-out state.
func New() *State {
	return &State{
		UserType:    NewSlot[*config.UserType](nil),
		Credentials: NewSlot[*credentials.Set](nil),
		Profile:     NewSlot[json.RawMessage](nil),
	}
}

// Reset publishes nil to all three slots.
func (s *State) Reset() {
	s.Credentials.Next(nil)
	s.UserType.Next(nil)
	s.Profile.Next(nil)
}
