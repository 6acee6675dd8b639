package graphapi

import (
	"encoding/json"
	"errors"
)

// Link is the editor-form record of one connection. It is transient: once
// normalization resolves links into per-input edge references, links are
// discarded.
type Link struct {
	ID         int
	OriginID   int
	OriginSlot int
	TargetID   int
	TargetSlot int
	Type       string
}

// links are serialized as 6-tuples:
// [id, origin_id, origin_slot, target_id, target_slot, type]
func (l *Link) UnmarshalJSON(b []byte) error {
	var tmp []interface{}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	if len(tmp) != 6 {
		return errors.New("wrong number of fields in JSON array")
	}

	for i, v := range tmp[:5] {
		f, ok := v.(float64)
		if !ok {
			return errors.New("non-numeric link field")
		}
		switch i {
		case 0:
			l.ID = int(f)
		case 1:
			l.OriginID = int(f)
		case 2:
			l.OriginSlot = int(f)
		case 3:
			l.TargetID = int(f)
		case 4:
			l.TargetSlot = int(f)
		}
	}
	l.Type, _ = tmp[5].(string)

	return nil
}

func (l *Link) MarshalJSON() ([]byte, error) {
	tmp := []interface{}{
		l.ID,
		l.OriginID,
		l.OriginSlot,
		l.TargetID,
		l.TargetSlot,
		l.Type,
	}
	return json.Marshal(tmp)
}
