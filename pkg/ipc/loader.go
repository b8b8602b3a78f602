package ipc

import (
	"github.com/ajitpratap0/colwire/internal/flatbuf"
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/compression"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/memory"
)

// Load rebuilds one column of type dt from field nodes and buffer regions
// produced by Assemble. Buffers are views of body. Dictionary-encoded nodes
// resolve their dictionary by id in dicts.
func Load(dt *datatype.DataType, nodes []FieldNode, regions []BufferRegion, body *memory.Buffer, dicts map[int64]*data.Data) (*data.Data, error) {
	l := &loader{
		version: currentVersion,
		nodes:   nodes,
		regions: regions,
		body:    body,
		dicts:   dicts,
		mem:     memory.DefaultAllocator,
	}
	d, err := l.load(dt)
	if err != nil {
		return nil, err
	}
	if err := l.done(); err != nil {
		d.Release()
		return nil, err
	}
	return d, nil
}

type loader struct {
	version flatbuf.MetadataVersion
	nodes   []FieldNode
	regions []BufferRegion
	body    *memory.Buffer
	codec   compression.Compressor
	dicts   map[int64]*data.Data
	mem     memory.Allocator

	nodeIdx int
	bufIdx  int
}

// done reports field nodes or buffers the schema did not consume.
func (l *loader) done() error {
	if l.nodeIdx != len(l.nodes) || l.bufIdx != len(l.regions) {
		return colerrors.Newf(colerrors.ErrorTypeProtocol,
			"batch has %d field nodes and %d buffers, schema used %d and %d",
			len(l.nodes), len(l.regions), l.nodeIdx, l.bufIdx)
	}
	return nil
}

func (l *loader) nextNode(dt *datatype.DataType) (FieldNode, error) {
	if l.nodeIdx >= len(l.nodes) {
		return FieldNode{}, colerrors.Newf(colerrors.ErrorTypeProtocol,
			"ran out of field nodes at %s (have %d)", dt, len(l.nodes))
	}
	n := l.nodes[l.nodeIdx]
	l.nodeIdx++
	if n.Length < 0 || n.NullCount < 0 || n.NullCount > n.Length {
		return n, colerrors.Newf(colerrors.ErrorTypeProtocol,
			"field node %d has length %d and null count %d", l.nodeIdx-1, n.Length, n.NullCount)
	}
	return n, nil
}

// nextBuffer returns a view of the next region, decompressing it when the
// batch is compressed. An empty region yields nil.
func (l *loader) nextBuffer() (*memory.Buffer, error) {
	if l.bufIdx >= len(l.regions) {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "ran out of buffers (have %d)", len(l.regions))
	}
	r := l.regions[l.bufIdx]
	l.bufIdx++
	if r.Length == 0 {
		return nil, nil
	}
	if r.Offset < 0 || r.Length < 0 || r.Offset+r.Length > int64(l.body.Len()) {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol,
			"buffer region [%d:%d] outside body of %d bytes", r.Offset, r.Offset+r.Length, l.body.Len())
	}
	view, err := l.body.Slice(int(r.Offset), int(r.Length))
	if err != nil {
		return nil, err
	}
	if l.codec == nil {
		return view, nil
	}
	defer view.Release()
	return l.decompress(view.Bytes())
}

func (l *loader) decompress(b []byte) (*memory.Buffer, error) {
	if len(b) < 8 {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "compressed buffer of %d bytes has no length prefix", len(b))
	}
	n := int64(le.Uint64(b))
	if n == -1 {
		return memory.NewBufferBytes(b[8:]), nil
	}
	if n < 0 {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "compressed buffer declares %d bytes", n)
	}
	alloc := memory.NewAllocation(l.mem, int(n))
	out := memory.NewBuffer(alloc)
	if _, err := l.codec.Decompress(out.Bytes()[:n], b[8:]); err != nil {
		out.Release()
		return nil, err
	}
	if int64(out.Len()) != n {
		trimmed, err := out.Slice(0, int(n))
		out.Release()
		return trimmed, err
	}
	return out, nil
}

func (l *loader) buffers(n int) ([]*memory.Buffer, error) {
	bufs := make([]*memory.Buffer, n)
	for i := range bufs {
		b, err := l.nextBuffer()
		if err != nil {
			releaseBuffers(bufs)
			return nil, err
		}
		bufs[i] = b
	}
	return bufs, nil
}

func releaseBuffers(bufs []*memory.Buffer) {
	for _, b := range bufs {
		b.Release()
	}
}

func releaseData(nodes []*data.Data) {
	for _, d := range nodes {
		if d != nil {
			d.Release()
		}
	}
}

func (l *loader) load(dt *datatype.DataType) (*data.Data, error) {
	node, err := l.nextNode(dt)
	if err != nil {
		return nil, err
	}
	length, nulls := int(node.Length), int(node.NullCount)

	switch dt.Layout() {
	case datatype.LayoutNull:
		return data.New(dt, length, nil, nil, length, 0), nil

	case datatype.LayoutBool, datatype.LayoutFixedWidth:
		bufs, err := l.buffers(2)
		if err != nil {
			return nil, err
		}
		want := length * dt.ByteSize()
		if dt.ID == datatype.BOOL {
			want = memory.BytesForBits(length)
		}
		if err := checkBuffers(dt, bufs, length, nulls, want); err != nil {
			releaseBuffers(bufs)
			return nil, err
		}
		return data.New(dt, length, bufs, nil, nulls, 0), nil

	case datatype.LayoutDictionary:
		dict, ok := l.dicts[dt.DictID]
		if !ok {
			return nil, colerrors.Newf(colerrors.ErrorTypeProtocol,
				"record batch references unknown dictionary id %d", dt.DictID)
		}
		bufs, err := l.buffers(2)
		if err != nil {
			return nil, err
		}
		if err := checkBuffers(dt, bufs, length, nulls, length*dt.Index.ByteSize()); err != nil {
			releaseBuffers(bufs)
			return nil, err
		}
		dict.Retain()
		d := data.NewDictionary(dt, length, bufs, nulls, 0, dict)
		if err := checkIndices(d, dict.Len()); err != nil {
			d.Release()
			return nil, err
		}
		return d, nil

	case datatype.LayoutVariableWidth:
		bufs, err := l.buffers(3)
		if err != nil {
			return nil, err
		}
		end, err := l.checkOffsets(dt, bufs, length, nulls)
		if err == nil && bufs[2].Len() < end {
			err = colerrors.Newf(colerrors.ErrorTypeProtocol,
				"%s values buffer has %d bytes, offsets need %d", dt, bufs[2].Len(), end)
		}
		if err != nil {
			releaseBuffers(bufs)
			return nil, err
		}
		return data.New(dt, length, bufs, nil, nulls, 0), nil

	case datatype.LayoutList:
		bufs, err := l.buffers(2)
		if err != nil {
			return nil, err
		}
		end, err := l.checkOffsets(dt, bufs, length, nulls)
		if err != nil {
			releaseBuffers(bufs)
			return nil, err
		}
		children, err := l.children(dt)
		if err != nil {
			releaseBuffers(bufs)
			return nil, err
		}
		if children[0].Len() < end {
			releaseBuffers(bufs)
			releaseData(children)
			return nil, colerrors.Newf(colerrors.ErrorTypeProtocol,
				"%s child has %d slots, offsets need %d", dt, children[0].Len(), end)
		}
		return data.New(dt, length, bufs, children, nulls, 0), nil

	case datatype.LayoutFixedSizeList, datatype.LayoutStruct:
		bufs, err := l.buffers(1)
		if err != nil {
			return nil, err
		}
		if err := checkBuffers(dt, bufs, length, nulls, 0); err != nil {
			releaseBuffers(bufs)
			return nil, err
		}
		children, err := l.children(dt)
		if err != nil {
			releaseBuffers(bufs)
			return nil, err
		}
		want := length
		if dt.ID == datatype.FIXED_SIZE_LIST {
			want = length * dt.ListSize
		}
		for i, c := range children {
			if c.Len() < want {
				releaseBuffers(bufs)
				releaseData(children)
				return nil, colerrors.Newf(colerrors.ErrorTypeProtocol,
					"%s child %d has %d slots, need %d", dt, i, c.Len(), want)
			}
		}
		return data.New(dt, length, bufs, children, nulls, 0), nil

	case datatype.LayoutUnion:
		if l.version < flatbuf.MetadataVersionV5 {
			// pre-V5 writers sent a validity region for unions
			if _, err := l.nextBuffer(); err != nil {
				return nil, err
			}
		}
		n := 1
		if dt.ID == datatype.DENSE_UNION {
			n = 2
		}
		bufs, err := l.buffers(n)
		if err != nil {
			return nil, err
		}
		if bufs[0].Len() < length || (n == 2 && bufs[1].Len() < 4*length) {
			releaseBuffers(bufs)
			return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "%s buffers too short for %d slots", dt, length)
		}
		children, err := l.children(dt)
		if err != nil {
			releaseBuffers(bufs)
			return nil, err
		}
		if err := checkUnion(dt, bufs, children, length); err != nil {
			releaseBuffers(bufs)
			releaseData(children)
			return nil, err
		}
		return data.New(dt, length, bufs, children, 0, 0), nil
	}
	return nil, colerrors.Newf(colerrors.ErrorTypeUnsupported, "cannot load %s", dt)
}

func (l *loader) children(dt *datatype.DataType) ([]*data.Data, error) {
	out := make([]*data.Data, len(dt.Children))
	for i, f := range dt.Children {
		c, err := l.load(f.Type)
		if err != nil {
			releaseData(out)
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func checkBuffers(dt *datatype.DataType, bufs []*memory.Buffer, length, nulls, valueBytes int) error {
	if nulls > 0 && bufs[0].Len() < memory.BytesForBits(length) {
		return colerrors.Newf(colerrors.ErrorTypeProtocol,
			"%s validity buffer has %d bytes for %d slots", dt, bufs[0].Len(), length)
	}
	if len(bufs) > 1 && bufs[1].Len() < valueBytes {
		return colerrors.Newf(colerrors.ErrorTypeProtocol,
			"%s values buffer has %d bytes, need %d", dt, bufs[1].Len(), valueBytes)
	}
	return nil
}

// checkOffsets validates the validity and offsets buffers and returns the
// last offset. An empty offsets buffer is accepted for a zero-length node.
func (l *loader) checkOffsets(dt *datatype.DataType, bufs []*memory.Buffer, length, nulls int) (int, error) {
	if err := checkBuffers(dt, bufs[:1], length, nulls, 0); err != nil {
		return 0, err
	}
	if bufs[1].Len() == 0 && length == 0 {
		bufs[1] = memory.NewBufferBytes(make([]byte, 4))
		return 0, nil
	}
	if bufs[1].Len() < 4*(length+1) {
		return 0, colerrors.Newf(colerrors.ErrorTypeProtocol,
			"%s offsets buffer has %d bytes for %d slots", dt, bufs[1].Len(), length)
	}
	b := bufs[1].Bytes()
	prev := int32(le.Uint32(b))
	if prev < 0 {
		return 0, colerrors.Newf(colerrors.ErrorTypeProtocol, "%s first offset is %d", dt, prev)
	}
	for i := 1; i <= length; i++ {
		off := int32(le.Uint32(b[4*i:]))
		if off < prev {
			return 0, colerrors.Newf(colerrors.ErrorTypeProtocol,
				"%s offset %d is %d, below the previous %d", dt, i, off, prev)
		}
		prev = off
	}
	return int(prev), nil
}

// checkUnion verifies that every slot names a declared child and, for dense
// unions, points inside it. Sparse children must cover every slot.
func checkUnion(dt *datatype.DataType, bufs []*memory.Buffer, children []*data.Data, length int) error {
	ids := bufs[0].Bytes()
	for i := 0; i < length; i++ {
		c := dt.ChildIndex(int8(ids[i]))
		if c < 0 {
			return colerrors.Newf(colerrors.ErrorTypeProtocol, "%s slot %d has undeclared type id %d", dt, i, int8(ids[i]))
		}
		if dt.ID == datatype.SPARSE_UNION {
			continue
		}
		off := int32(le.Uint32(bufs[1].Bytes()[4*i:]))
		if off < 0 || int(off) >= children[c].Len() {
			return colerrors.Newf(colerrors.ErrorTypeProtocol,
				"%s slot %d points at %d in child %d of %d slots", dt, i, off, c, children[c].Len())
		}
	}
	if dt.ID == datatype.SPARSE_UNION {
		for i, c := range children {
			if c.Len() < length {
				return colerrors.Newf(colerrors.ErrorTypeProtocol,
					"%s child %d has %d slots, need %d", dt, i, c.Len(), length)
			}
		}
	}
	return nil
}

// checkIndices verifies that every valid slot of a dictionary-encoded node
// indexes into a dictionary of n values.
func checkIndices(d *data.Data, n int) error {
	for i := 0; i < d.Len(); i++ {
		if d.IsNull(i) {
			continue
		}
		if idx := d.DictionaryIndex(i); idx < 0 || idx >= n {
			return colerrors.Newf(colerrors.ErrorTypeProtocol,
				"%s slot %d indexes %d into a dictionary of %d values", d.Type(), i, idx, n)
		}
	}
	return nil
}
