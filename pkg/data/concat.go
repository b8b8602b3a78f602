package data

import (
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/memory"
)

// Concat copies the logical contents of nodes, which must share one type,
// into a single fresh node with offset zero. It is how a delta dictionary
// is merged onto the dictionary it extends.
func Concat(nodes ...*Data) (*Data, error) {
	if len(nodes) == 0 {
		return nil, colerrors.New(colerrors.ErrorTypeInvalid, "concat needs at least one node")
	}
	dt := nodes[0].dtype
	total := 0
	for _, n := range nodes {
		if !datatype.Equal(n.dtype, dt) {
			return nil, colerrors.Newf(colerrors.ErrorTypeInvalid,
				"cannot concat %s with %s", dt, n.dtype)
		}
		total += n.length
	}

	switch dt.Layout() {
	case datatype.LayoutNull:
		return New(dt, total, nil, nil, total, 0), nil

	case datatype.LayoutBool:
		validity, nulls := concatValidity(nodes, total)
		values := make([]byte, memory.BytesForBits(total))
		pos := 0
		for _, n := range nodes {
			memory.AppendBits(values, pos, n.buffers[1].Bytes(), n.offset, n.length)
			pos += n.length
		}
		return New(dt, total, []*memory.Buffer{validity, memory.NewBufferBytes(values)}, nil, nulls, 0), nil

	case datatype.LayoutFixedWidth:
		validity, nulls := concatValidity(nodes, total)
		return New(dt, total, []*memory.Buffer{validity, concatFixed(nodes, dt.ByteSize())}, nil, nulls, 0), nil

	case datatype.LayoutVariableWidth:
		validity, nulls := concatValidity(nodes, total)
		offsets := make([]byte, 4*(total+1))
		var values []byte
		pos := 0
		for _, n := range nodes {
			for i := 0; i < n.length; i++ {
				start, end := n.ValueOffsets(i)
				le.PutUint32(offsets[4*pos:], uint32(len(values)))
				values = append(values, n.buffers[2].Bytes()[start:end]...)
				pos++
			}
		}
		le.PutUint32(offsets[4*pos:], uint32(len(values)))
		return New(dt, total, []*memory.Buffer{validity, memory.NewBufferBytes(offsets), memory.NewBufferBytes(values)}, nil, nulls, 0), nil

	case datatype.LayoutList:
		validity, nulls := concatValidity(nodes, total)
		offsets := make([]byte, 4*(total+1))
		parts := make([]*Data, 0, len(nodes))
		pos, childLen := 0, 0
		for _, n := range nodes {
			begin, size := n.ChildRange(0)
			for i := 0; i < n.length; i++ {
				start, _ := n.ValueOffsets(i)
				le.PutUint32(offsets[4*pos:], uint32(childLen+start-begin))
				pos++
			}
			childLen += size
			c, err := n.children[0].Slice(begin, size)
			if err != nil {
				releaseNodes(parts)
				return nil, err
			}
			parts = append(parts, c)
		}
		le.PutUint32(offsets[4*pos:], uint32(childLen))
		child, err := concatChild(dt.Children[0].Type, parts)
		if err != nil {
			return nil, err
		}
		return New(dt, total, []*memory.Buffer{validity, memory.NewBufferBytes(offsets)}, []*Data{child}, nulls, 0), nil

	case datatype.LayoutFixedSizeList, datatype.LayoutStruct:
		validity, nulls := concatValidity(nodes, total)
		children := make([]*Data, len(dt.Children))
		for c := range dt.Children {
			parts := make([]*Data, 0, len(nodes))
			for _, n := range nodes {
				s, err := n.LogicalChild(c)
				if err != nil {
					releaseNodes(parts)
					releaseNodes(children)
					return nil, err
				}
				parts = append(parts, s)
			}
			child, err := concatChild(dt.Children[c].Type, parts)
			if err != nil {
				releaseNodes(children)
				return nil, err
			}
			children[c] = child
		}
		return New(dt, total, []*memory.Buffer{validity}, children, nulls, 0), nil

	case datatype.LayoutUnion:
		return concatUnion(dt, nodes, total)

	case datatype.LayoutDictionary:
		dict := nodes[0].dictionary
		for _, n := range nodes[1:] {
			if n.dictionary != dict {
				return nil, colerrors.New(colerrors.ErrorTypeInvalid,
					"cannot concat dictionary nodes with different dictionaries")
			}
		}
		validity, nulls := concatValidity(nodes, total)
		dict.Retain()
		return NewDictionary(dt, total, []*memory.Buffer{validity, concatFixed(nodes, dt.Index.ByteSize())}, nulls, 0, dict), nil
	}
	return nil, colerrors.Newf(colerrors.ErrorTypeUnsupported, "concat of %s", dt)
}

func concatChild(dt *datatype.DataType, parts []*Data) (*Data, error) {
	if len(parts) == 0 {
		return New(dt, 0, nil, nil, 0, 0), nil
	}
	out, err := Concat(parts...)
	releaseNodes(parts)
	return out, err
}

// releaseNodes releases every non-nil node.
func releaseNodes(nodes []*Data) {
	for _, n := range nodes {
		if n != nil {
			n.Release()
		}
	}
}

func concatUnion(dt *datatype.DataType, nodes []*Data, total int) (*Data, error) {
	typeIDs := make([]byte, 0, total)
	for _, n := range nodes {
		typeIDs = append(typeIDs, n.buffers[0].Bytes()[n.offset:n.offset+n.length]...)
	}
	children := make([]*Data, len(dt.Children))

	if dt.ID == datatype.SPARSE_UNION {
		for c := range dt.Children {
			parts := make([]*Data, 0, len(nodes))
			for _, n := range nodes {
				s, err := n.children[c].Slice(n.offset, n.length)
				if err != nil {
					releaseNodes(parts)
					releaseNodes(children)
					return nil, err
				}
				parts = append(parts, s)
			}
			child, err := concatChild(dt.Children[c].Type, parts)
			if err != nil {
				releaseNodes(children)
				return nil, err
			}
			children[c] = child
		}
		return New(dt, total, []*memory.Buffer{memory.NewBufferBytes(typeIDs)}, children, 0, 0), nil
	}

	// dense: children are kept whole, offsets shift by what came before
	offsets := make([]byte, 4*total)
	base := make([]int, len(dt.Children))
	pos := 0
	for _, n := range nodes {
		for i := 0; i < n.length; i++ {
			c, slot := n.UnionChild(i)
			le.PutUint32(offsets[4*pos:], uint32(base[c]+slot))
			pos++
		}
		for c := range base {
			base[c] += n.children[c].length
		}
	}
	for c := range dt.Children {
		parts := make([]*Data, 0, len(nodes))
		for _, n := range nodes {
			n.children[c].Retain()
			parts = append(parts, n.children[c])
		}
		child, err := concatChild(dt.Children[c].Type, parts)
		if err != nil {
			releaseNodes(children)
			return nil, err
		}
		children[c] = child
	}
	return New(dt, total, []*memory.Buffer{memory.NewBufferBytes(typeIDs), memory.NewBufferBytes(offsets)}, children, 0, 0), nil
}

func concatValidity(nodes []*Data, total int) (*memory.Buffer, int) {
	nulls := 0
	for _, n := range nodes {
		nulls += n.NullN()
	}
	if nulls == 0 {
		return nil, 0
	}
	out := make([]byte, memory.BytesForBits(total))
	pos := 0
	for _, n := range nodes {
		if v := n.validity(); v != nil {
			memory.AppendBits(out, pos, v, n.offset, n.length)
		} else {
			memory.SetBitsTo(out, pos, n.length, true)
		}
		pos += n.length
	}
	return memory.NewBufferBytes(out), nulls
}

func concatFixed(nodes []*Data, width int) *memory.Buffer {
	size := 0
	for _, n := range nodes {
		size += n.length * width
	}
	out := make([]byte, 0, size)
	for _, n := range nodes {
		b := n.buffers[1].Bytes()
		out = append(out, b[n.offset*width:(n.offset+n.length)*width]...)
	}
	return memory.NewBufferBytes(out)
}
