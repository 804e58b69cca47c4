package models

import (
	"encoding/json"
	"fmt"
)

// SyncOption is one optional per-collection setting inside a Sync request.
// It is a sealed tagged union replacing the protocol's parallel
// element-name/value arrays: exactly one of the Option* types below.
// The JSON form is an envelope with a "kind" discriminator.
type SyncOption interface {
	isSyncOption()
}

// OptionFilterType narrows enumeration to a recency window.
type OptionFilterType struct {
	Filter FilterType `json:"filter"`
}

// OptionConflict selects the conflict resolution policy.
type OptionConflict struct {
	Policy ConflictPolicy `json:"policy"`
}

// OptionClass restricts enumeration to one content class. May appear at
// most twice, and only for the sanctioned Email+SMS pairing.
type OptionClass struct {
	Class Class `json:"class"`
}

// OptionBodyPreference requests a body rendering format and truncation
// size. The engine carries it through to the payload untouched.
type OptionBodyPreference struct {
	Type           int `json:"type"`
	TruncationSize int `json:"truncation_size,omitempty"`
}

// OptionMIMESupport controls MIME delivery for Email items. Opaque to the
// engine.
type OptionMIMESupport struct {
	Value int `json:"value"`
}

// OptionMIMETruncation controls MIME truncation for Email items. Opaque to
// the engine.
type OptionMIMETruncation struct {
	Value int `json:"value"`
}

// OptionMaxItems bounds recipient-cache enumeration.
type OptionMaxItems struct {
	Value int `json:"value"`
}

func (OptionFilterType) isSyncOption()     {}
func (OptionConflict) isSyncOption()       {}
func (OptionClass) isSyncOption()          {}
func (OptionBodyPreference) isSyncOption() {}
func (OptionMIMESupport) isSyncOption()    {}
func (OptionMIMETruncation) isSyncOption() {}
func (OptionMaxItems) isSyncOption()       {}

type optionEnvelope struct {
	Kind           string          `json:"kind"`
	Filter         *FilterType     `json:"filter,omitempty"`
	Policy         *ConflictPolicy `json:"policy,omitempty"`
	Class          Class           `json:"class,omitempty"`
	Type           int             `json:"type,omitempty"`
	TruncationSize int             `json:"truncation_size,omitempty"`
	Value          int             `json:"value,omitempty"`
}

// OptionList is a JSON-decodable slice of SyncOption values.
type OptionList []SyncOption

// UnmarshalJSON decodes a JSON array of option envelopes into concrete
// tagged variants. An unknown "kind" fails the whole decode.
func (o *OptionList) UnmarshalJSON(data []byte) error {
	var envelopes []optionEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return err
	}

	options := make([]SyncOption, 0, len(envelopes))
	for _, e := range envelopes {
		switch e.Kind {
		case "FilterType":
			var f FilterType
			if e.Filter != nil {
				f = *e.Filter
			}
			options = append(options, OptionFilterType{Filter: f})
		case "Conflict":
			p := ConflictPreferServer
			if e.Policy != nil {
				p = *e.Policy
			}
			options = append(options, OptionConflict{Policy: p})
		case "Class":
			options = append(options, OptionClass{Class: e.Class})
		case "BodyPreference":
			options = append(options, OptionBodyPreference{Type: e.Type, TruncationSize: e.TruncationSize})
		case "MIMESupport":
			options = append(options, OptionMIMESupport{Value: e.Value})
		case "MIMETruncation":
			options = append(options, OptionMIMETruncation{Value: e.Value})
		case "MaxItems":
			options = append(options, OptionMaxItems{Value: e.Value})
		default:
			return fmt.Errorf("unknown sync option kind %q", e.Kind)
		}
	}

	*o = options
	return nil
}

// MarshalJSON encodes the list back into the envelope form.
func (o OptionList) MarshalJSON() ([]byte, error) {
	envelopes := make([]optionEnvelope, 0, len(o))
	for _, opt := range o {
		switch v := opt.(type) {
		case OptionFilterType:
			f := v.Filter
			envelopes = append(envelopes, optionEnvelope{Kind: "FilterType", Filter: &f})
		case OptionConflict:
			p := v.Policy
			envelopes = append(envelopes, optionEnvelope{Kind: "Conflict", Policy: &p})
		case OptionClass:
			envelopes = append(envelopes, optionEnvelope{Kind: "Class", Class: v.Class})
		case OptionBodyPreference:
			envelopes = append(envelopes, optionEnvelope{Kind: "BodyPreference", Type: v.Type, TruncationSize: v.TruncationSize})
		case OptionMIMESupport:
			envelopes = append(envelopes, optionEnvelope{Kind: "MIMESupport", Value: v.Value})
		case OptionMIMETruncation:
			envelopes = append(envelopes, optionEnvelope{Kind: "MIMETruncation", Value: v.Value})
		case OptionMaxItems:
			envelopes = append(envelopes, optionEnvelope{Kind: "MaxItems", Value: v.Value})
		default:
			return nil, fmt.Errorf("unknown sync option type %T", opt)
		}
	}
	return json.Marshal(envelopes)
}
