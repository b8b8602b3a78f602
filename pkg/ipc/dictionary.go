package ipc

import (
	"reflect"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
)

// dictionaryMemo holds the current dictionary of every id seen on a stream.
type dictionaryMemo struct {
	types map[int64]*datatype.DataType
	dicts map[int64]*data.Data
}

func newDictionaryMemo(schema *datatype.Schema) *dictionaryMemo {
	m := &dictionaryMemo{
		types: make(map[int64]*datatype.DataType),
		dicts: make(map[int64]*data.Data),
	}
	for _, d := range schema.Dictionaries() {
		m.types[d.ID] = d.Type.Value
	}
	return m
}

// valueType returns the dictionary value type declared for id.
func (m *dictionaryMemo) valueType(id int64) (*datatype.DataType, error) {
	t, ok := m.types[id]
	if !ok {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "dictionary batch for unknown id %d", id)
	}
	return t, nil
}

// add stores dict for id, taking ownership of it. A delta is concatenated
// onto the current dictionary.
func (m *dictionaryMemo) add(id int64, dict *data.Data, delta bool) error {
	old, ok := m.dicts[id]
	if !delta {
		if ok {
			old.Release()
		}
		m.dicts[id] = dict
		return nil
	}
	if !ok {
		dict.Release()
		return colerrors.Newf(colerrors.ErrorTypeProtocol, "delta for dictionary id %d before its first batch", id)
	}
	merged, err := data.Concat(old, dict)
	dict.Release()
	if err != nil {
		return colerrors.Wrapf(err, colerrors.ErrorTypeProtocol, "merge delta for dictionary %d", id)
	}
	old.Release()
	m.dicts[id] = merged
	return nil
}

func (m *dictionaryMemo) release() {
	for id, d := range m.dicts {
		d.Release()
		delete(m.dicts, id)
	}
}

// dictionaryUpdate is one dictionary batch a writer must send.
type dictionaryUpdate struct {
	id       int64
	dict     *data.Data
	delta    bool
	replaced bool
}

func (u dictionaryUpdate) kind() string {
	switch {
	case u.delta:
		return "delta"
	case u.replaced:
		return "replacement"
	}
	return "initial"
}

// dictionaryTracker remembers the last dictionary sent per id and decides
// what a new batch needs: nothing, a delta, or a replacement. File writers
// cannot replace, so they send any growth as a delta.
type dictionaryTracker struct {
	sent   map[int64]*data.Data
	deltas bool
	file   bool
}

func newDictionaryTracker(deltas, file bool) *dictionaryTracker {
	return &dictionaryTracker{sent: make(map[int64]*data.Data), deltas: deltas, file: file}
}

// collect walks the columns and returns the updates to send before them,
// inner dictionaries first. The caller owns the returned dictionaries.
func (t *dictionaryTracker) collect(columns []*data.Data) ([]dictionaryUpdate, error) {
	var updates []dictionaryUpdate
	seen := make(map[int64]bool)
	staged := make(map[int64]*data.Data)

	var walk func(d *data.Data) error
	walk = func(d *data.Data) error {
		if d.Type().ID == datatype.DICTIONARY {
			dict := d.Dictionary()
			if dict == nil {
				return colerrors.Newf(colerrors.ErrorTypeInvalid, "dictionary column %d has no dictionary", d.Type().DictID)
			}
			if err := walk(dict); err != nil {
				return err
			}
			id := d.Type().DictID
			if seen[id] {
				return nil
			}
			seen[id] = true
			u, err := t.update(id, dict, staged)
			if err != nil || u == nil {
				return err
			}
			updates = append(updates, *u)
			return nil
		}
		for _, c := range d.Children() {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}

	for _, c := range columns {
		if err := walk(c); err != nil {
			for _, u := range updates {
				u.dict.Release()
			}
			for _, d := range staged {
				d.Release()
			}
			return nil, err
		}
	}
	for id, d := range staged {
		if prev, ok := t.sent[id]; ok {
			prev.Release()
		}
		t.sent[id] = d
	}
	return updates, nil
}

// update decides what dict needs. The dictionary it will have sent goes to
// staged and only replaces the sent one once the whole batch is accepted.
func (t *dictionaryTracker) update(id int64, dict *data.Data, staged map[int64]*data.Data) (*dictionaryUpdate, error) {
	prev, ok := t.sent[id]
	if !ok {
		stage(staged, id, dict)
		dict.Retain()
		return &dictionaryUpdate{id: id, dict: dict}, nil
	}
	if prev == dict {
		return nil, nil
	}

	n := prev.Len()
	if dict.Len() >= n && prefixEqual(prev, dict, n) {
		if dict.Len() == n {
			stage(staged, id, dict)
			return nil, nil
		}
		if t.deltas || t.file {
			delta, err := dict.Slice(n, dict.Len()-n)
			if err != nil {
				return nil, err
			}
			stage(staged, id, dict)
			return &dictionaryUpdate{id: id, dict: delta, delta: true}, nil
		}
	}
	if t.file {
		return nil, colerrors.Newf(colerrors.ErrorTypeUnsupported,
			"dictionary %d replaced; the file format only allows deltas", id)
	}
	stage(staged, id, dict)
	dict.Retain()
	return &dictionaryUpdate{id: id, dict: dict, replaced: true}, nil
}

func stage(staged map[int64]*data.Data, id int64, dict *data.Data) {
	dict.Retain()
	staged[id] = dict
}

func (t *dictionaryTracker) release() {
	for id, d := range t.sent {
		d.Release()
		delete(t.sent, id)
	}
}

func prefixEqual(a, b *data.Data, n int) bool {
	for i := 0; i < n; i++ {
		if a.IsNull(i) != b.IsNull(i) || !reflect.DeepEqual(a.Value(i), b.Value(i)) {
			return false
		}
	}
	return true
}
