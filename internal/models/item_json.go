package models

import (
	"encoding/json"
	"fmt"
)

// itemAlias drops the methods of BookableItem so the codec below does not recurse.
type itemAlias BookableItem

type itemEnvelope struct {
	itemAlias
	Kind    Kind            `json:"kind"`
	Details json.RawMessage `json:"details"`
}

func (i BookableItem) MarshalJSON() ([]byte, error) {
	if i.Details == nil {
		return nil, ErrMissingDetails
	}
	details, err := json.Marshal(i.Details)
	if err != nil {
		return nil, fmt.Errorf("encode %s details: %w", i.Details.Kind(), err)
	}
	return json.Marshal(itemEnvelope{
		itemAlias: itemAlias(i),
		Kind:      i.Details.Kind(),
		Details:   details,
	})
}

func (i *BookableItem) UnmarshalJSON(b []byte) error {
	var env itemEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	details, err := decodeDetails(env.Kind, env.Details)
	if err != nil {
		return err
	}
	*i = BookableItem(env.itemAlias)
	i.Details = details
	return nil
}

func decodeDetails(kind Kind, raw json.RawMessage) (Details, error) {
	if len(raw) == 0 {
		return nil, ErrMissingDetails
	}
	switch kind {
	case KindTable:
		var d TableDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	case KindEvent:
		var d EventDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	case KindExperience:
		var d ExperienceDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	case KindGuestlist:
		var d GuestlistDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	case KindStoreItem:
		var d StoreItemDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	default:
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
}
