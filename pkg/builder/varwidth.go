package builder

import (
	"slices"

	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/memory"
)

// pendingWrites holds the index/value pairs written since the last flush.
// The byte offset of slot i is unknown until every slot before it is known,
// so values are resolved in one pass at flush time. Writes to an index that
// already has a pending value replace it in place.
type pendingWrites[T any] struct {
	entries []pendingEntry[T]
	index   map[int]int
	sorted  bool
}

type pendingEntry[T any] struct {
	slot  int
	value T
}

func newPendingWrites[T any]() pendingWrites[T] {
	return pendingWrites[T]{index: make(map[int]int), sorted: true}
}

// put stores v for slot i and returns the value it replaced, if any.
func (p *pendingWrites[T]) put(i int, v T) (old T, replaced bool) {
	if pos, ok := p.index[i]; ok {
		old = p.entries[pos].value
		p.entries[pos].value = v
		return old, true
	}
	if n := len(p.entries); n > 0 && p.entries[n-1].slot > i {
		p.sorted = false
	}
	p.index[i] = len(p.entries)
	p.entries = append(p.entries, pendingEntry[T]{slot: i, value: v})
	return old, false
}

// drop removes the pending value for slot i and returns it.
func (p *pendingWrites[T]) drop(i int) (old T, ok bool) {
	pos, ok := p.index[i]
	if !ok {
		return old, false
	}
	old = p.entries[pos].value
	delete(p.index, i)
	last := len(p.entries) - 1
	if pos != last {
		p.entries[pos] = p.entries[last]
		p.index[p.entries[pos].slot] = pos
		p.sorted = false
	}
	p.entries = p.entries[:last]
	return old, true
}

// ordered returns the entries sorted by slot.
func (p *pendingWrites[T]) ordered() []pendingEntry[T] {
	if !p.sorted {
		slices.SortFunc(p.entries, func(a, b pendingEntry[T]) int { return a.slot - b.slot })
		for pos, e := range p.entries {
			p.index[e.slot] = pos
		}
		p.sorted = true
	}
	return p.entries
}

func (p *pendingWrites[T]) reset() {
	p.entries = p.entries[:0]
	clear(p.index)
	p.sorted = true
}

// VariableWidthBuilder builds binary and utf8 columns.
type VariableWidthBuilder struct {
	*base
	pending      pendingWrites[[]byte]
	pendingBytes int
	offsets      *memory.ResizableBuffer
	values       *memory.ResizableBuffer
}

func newVariableWidthBuilder(base *base) *VariableWidthBuilder {
	b := &VariableWidthBuilder{
		base:    base,
		pending: newPendingWrites[[]byte](),
		offsets: memory.NewResizableBuffer(base.opts.Allocator),
		values:  memory.NewResizableBuffer(base.opts.Allocator),
	}
	if base.opts.InitialCapacity > 0 {
		b.offsets.Reserve(4 * (base.opts.InitialCapacity + 1))
	}
	return b
}

func (b *VariableWidthBuilder) Append(v any) error { return b.Set(b.length, v) }

func (b *VariableWidthBuilder) AppendNull() error { return b.SetNull(b.length) }

func (b *VariableWidthBuilder) SetNull(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if old, ok := b.pending.drop(i); ok {
		b.pendingBytes -= len(old)
	}
	b.setValidity(i, false)
	return nil
}

func (b *VariableWidthBuilder) AppendValues(vs []any) error { return appendValues(b, vs) }

func (b *VariableWidthBuilder) Set(i int, v any) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if !b.IsValid(v) {
		return b.SetNull(i)
	}
	v = deref(v)
	var p []byte
	switch x := v.(type) {
	case string:
		p = []byte(x)
	case []byte:
		p = append([]byte(nil), x...)
	default:
		return mismatch(b.dtype, v)
	}
	if old, replaced := b.pending.put(i, p); replaced {
		b.pendingBytes -= len(old)
	}
	b.pendingBytes += len(p)
	b.setValidity(i, true)
	return nil
}

func (b *VariableWidthBuilder) Flush() (*data.Data, error) {
	b.flushPending()
	d := data.New(b.dtype, b.length, []*memory.Buffer{
		b.flushValidity(),
		b.offsets.Finish(),
		b.values.Finish(),
	}, nil, b.nullN, 0)
	b.recordFlush()
	b.Clear()
	return d, nil
}

// flushPending computes offsets for every slot and copies pending values
// into the value buffer in slot order.
func (b *VariableWidthBuilder) flushPending() {
	b.offsets.Resize(4 * (b.length + 1))
	b.values.Reset()
	b.values.Reserve(b.pendingBytes)

	offs := b.offsets.Bytes()
	entries := b.pending.ordered()
	next := 0
	for slot := 0; slot < b.length; slot++ {
		le.PutUint32(offs[4*slot:], uint32(b.values.Len()))
		if next < len(entries) && entries[next].slot == slot {
			b.values.Append(entries[next].value)
			next++
		}
	}
	le.PutUint32(offs[4*b.length:], uint32(b.values.Len()))
}

func (b *VariableWidthBuilder) Clear() {
	b.clearBase()
	b.pending.reset()
	b.pendingBytes = 0
	b.offsets.Reset()
	b.values.Reset()
}

func (b *VariableWidthBuilder) ByteLength() int {
	return b.baseByteLength() + 4*(b.length+1) + b.pendingBytes
}

func (b *VariableWidthBuilder) ReservedByteLength() int {
	return b.baseReservedByteLength() + b.offsets.Cap() + b.values.Cap()
}

func (b *VariableWidthBuilder) AddChild(child Builder) error { return b.addChild(child, 0) }

var _ Builder = (*VariableWidthBuilder)(nil)
