package models

import (
	"encoding/json"
	"fmt"
)

// Command is a client-submitted mutation or fetch inside a Sync request.
// It is a sealed tagged union: exactly one of CommandAdd, CommandChange,
// CommandDelete or CommandFetch. The JSON form is an envelope with an "op"
// discriminator, e.g. {"op":"Add","client_id":"tmp1","props":{...}}.
type Command interface {
	isCommand()
}

// CommandAdd creates a new item. The client names it with a temporary
// ClientID; the response echoes the mapping to the server-assigned ID.
type CommandAdd struct {
	ClientID string            `json:"client_id"`
	Class    Class             `json:"class,omitempty"`
	Props    map[string]string `json:"props"`
}

// CommandChange mutates an existing item. Properties omitted from Props
// are either preserved (ghosted) or explicitly cleared (not ghosted),
// per the collection's cached ghost set.
type CommandChange struct {
	ServerID string            `json:"server_id"`
	Props    map[string]string `json:"props"`
}

// CommandDelete removes an item. When DeletesAsMoves is unset or true the
// item is moved to the account's Deleted Items collection instead of being
// removed outright.
type CommandDelete struct {
	ServerID string `json:"server_id"`
}

// CommandFetch requests the full current property set of an item inside
// the sync response.
type CommandFetch struct {
	ServerID string `json:"server_id"`
}

func (CommandAdd) isCommand()    {}
func (CommandChange) isCommand() {}
func (CommandDelete) isCommand() {}
func (CommandFetch) isCommand()  {}

// commandEnvelope is the wire form of a Command before the discriminator
// is resolved.
type commandEnvelope struct {
	Op       string            `json:"op"`
	ClientID string            `json:"client_id,omitempty"`
	ServerID string            `json:"server_id,omitempty"`
	Class    Class             `json:"class,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
}

// CommandList is a JSON-decodable slice of Command values.
type CommandList []Command

// UnmarshalJSON decodes a JSON array of command envelopes into concrete
// tagged variants. An unknown "op" value fails the whole decode.
func (c *CommandList) UnmarshalJSON(data []byte) error {
	var envelopes []commandEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return err
	}

	commands := make([]Command, 0, len(envelopes))
	for _, e := range envelopes {
		switch e.Op {
		case string(OpAdd):
			commands = append(commands, CommandAdd{ClientID: e.ClientID, Class: e.Class, Props: e.Props})
		case string(OpChange):
			commands = append(commands, CommandChange{ServerID: e.ServerID, Props: e.Props})
		case string(OpDelete):
			commands = append(commands, CommandDelete{ServerID: e.ServerID})
		case "Fetch":
			commands = append(commands, CommandFetch{ServerID: e.ServerID})
		default:
			return fmt.Errorf("unknown command op %q", e.Op)
		}
	}

	*c = commands
	return nil
}

// MarshalJSON encodes the list back into the envelope form.
func (c CommandList) MarshalJSON() ([]byte, error) {
	envelopes := make([]commandEnvelope, 0, len(c))
	for _, cmd := range c {
		switch v := cmd.(type) {
		case CommandAdd:
			envelopes = append(envelopes, commandEnvelope{Op: string(OpAdd), ClientID: v.ClientID, Class: v.Class, Props: v.Props})
		case CommandChange:
			envelopes = append(envelopes, commandEnvelope{Op: string(OpChange), ServerID: v.ServerID, Props: v.Props})
		case CommandDelete:
			envelopes = append(envelopes, commandEnvelope{Op: string(OpDelete), ServerID: v.ServerID})
		case CommandFetch:
			envelopes = append(envelopes, commandEnvelope{Op: "Fetch", ServerID: v.ServerID})
		default:
			return nil, fmt.Errorf("unknown command type %T", cmd)
		}
	}
	return json.Marshal(envelopes)
}
