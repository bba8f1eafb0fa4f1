// Package cutlist implements the render() CutList wire format:
// { num_cuts: i64, cuts: cut[num_cuts] } with each cut { start, end } in
// centiseconds.
package cutlist

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/finnhorvath/cutterd/internal/cutengine"
)

// wireCut mirrors the spec's `cut = { start: i64, end: i64 }`.
type wireCut struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// wireList mirrors the spec's `{ num_cuts: i64, cuts: cut[num_cuts] }`. The
// JSON encoding omits num_cuts (redundant with len(cuts)); the binary
// encoding writes it explicitly as the spec describes.
type wireList struct {
	Cuts []wireCut `json:"cuts"`
}

// DecodeJSON parses a CutList from its JSON wire representation.
func DecodeJSON(r io.Reader) (cutengine.CutList, error) {
	var w wireList
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return cutengine.CutList{}, fmt.Errorf("decoding cutlist json: %w", err)
	}
	return toCutList(w), nil
}

// EncodeJSON writes cl in its JSON wire representation.
func EncodeJSON(w io.Writer, cl cutengine.CutList) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fromCutList(cl))
}

// DecodeBinary parses a CutList from the spec's binary wire format: a
// little-endian i64 num_cuts followed by num_cuts pairs of little-endian i64
// start/end.
func DecodeBinary(r io.Reader) (cutengine.CutList, error) {
	var numCuts int64
	if err := binary.Read(r, binary.LittleEndian, &numCuts); err != nil {
		return cutengine.CutList{}, fmt.Errorf("reading num_cuts: %w", err)
	}
	if numCuts < 0 {
		return cutengine.CutList{}, fmt.Errorf("num_cuts must be non-negative, got %d", numCuts)
	}
	cuts := make([]cutengine.Cut, numCuts)
	for i := range cuts {
		var c wireCut
		if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
			return cutengine.CutList{}, fmt.Errorf("reading cut %d: %w", i, err)
		}
		cuts[i] = cutengine.Cut{Start: c.Start, End: c.End}
	}
	return cutengine.CutList{Cuts: cuts}, nil
}

// EncodeBinary writes cl in the spec's binary wire format.
func EncodeBinary(w io.Writer, cl cutengine.CutList) error {
	if err := binary.Write(w, binary.LittleEndian, int64(len(cl.Cuts))); err != nil {
		return fmt.Errorf("writing num_cuts: %w", err)
	}
	for _, c := range cl.Cuts {
		wc := wireCut{Start: c.Start, End: c.End}
		if err := binary.Write(w, binary.LittleEndian, wc); err != nil {
			return fmt.Errorf("writing cut: %w", err)
		}
	}
	return nil
}

func toCutList(w wireList) cutengine.CutList {
	cuts := make([]cutengine.Cut, len(w.Cuts))
	for i, c := range w.Cuts {
		cuts[i] = cutengine.Cut{Start: c.Start, End: c.End}
	}
	return cutengine.CutList{Cuts: cuts}
}

func fromCutList(cl cutengine.CutList) wireList {
	cuts := make([]wireCut, len(cl.Cuts))
	for i, c := range cl.Cuts {
		cuts[i] = wireCut{Start: c.Start, End: c.End}
	}
	return wireList{Cuts: cuts}
}
