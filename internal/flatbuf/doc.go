// Package flatbuf holds the flatbuffer tables of the Arrow IPC metadata
// (Schema.fbs, Message.fbs and File.fbs) in the shape flatc emits for Go:
// one type per table or struct with Init and field accessors, plus
// Start/Add/End functions for building.
//
// Only the tables and fields this module reads or writes are present. Vtable
// slot numbers follow the .fbs declaration order, so the bytes are
// interchangeable with any other Arrow implementation.
package flatbuf

import flatbuffers "github.com/google/flatbuffers/go"

// vtable offset of field slot n.
func slot(n int) flatbuffers.VOffsetT { return flatbuffers.VOffsetT(4 + 2*n) }

func tableField(t *flatbuffers.Table, n int) flatbuffers.UOffsetT {
	return flatbuffers.UOffsetT(t.Offset(slot(n)))
}
