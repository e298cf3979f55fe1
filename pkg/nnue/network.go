// Package nnue implements the incrementally updated neural-network evaluator:
// a HalfKAv2-style feature transformer with two per-perspective accumulators,
// a per-phase piece-square transformer, and a small per-phase dense output
// head. The network weights are embedded in the binary and decoded once at
// startup; they are read-only afterwards.
package nnue

import (
	_ "embed"
	"encoding/binary"
	"fmt"
)

const (
	// FeatureCount is the input width of the feature transformer: 64 squares
	// times 11 piece planes times 64 king squares.
	FeatureCount = 64 * 11 * 64

	// TransformedSize is the per-perspective output width of the feature
	// transformer.
	TransformedSize = 8

	// Phases is the number of game phases distinguished by the output head
	// and the piece-square transformer.
	Phases = 8
)

//go:embed vesper.nnue
var blob []byte

var nn = decode(blob)

// hidden is one per-phase dense output layer.
type hidden struct {
	bias    int32
	weights [2][TransformedSize]int8
}

// forward transforms the two perspective accumulators into a raw score. The
// activations are clamped to [0, 255] and squared in fixed point before the
// int8 dot product.
func (h *hidden) forward(us, them *[TransformedSize]int16) int32 {
	y := h.bias
	for k, acc := range [2]*[TransformedSize]int16{us, them} {
		for i, x := range acc {
			v := int32(x)
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			y += int32(h.weights[k][i]) * (((v << 3) * (v << 3) + 16384) >> 15)
		}
	}
	return y
}

// network holds the decoded weights.
type network struct {
	ftBias    [TransformedSize]int16
	ftWeights [FeatureCount][TransformedSize]int16
	psqt      [FeatureCount][Phases]int32
	output    [Phases]hidden
}

const (
	magic    = "VSPR"
	version  = 1
	blobSize = 4 + 4 + 2*TransformedSize + 2*FeatureCount*TransformedSize + 4*FeatureCount*Phases + Phases*(4+2*TransformedSize)
)

// decode parses the network blob. The layout is little-endian: magic,
// version, transformer bias and weights, piece-square table, then one output
// layer per phase. Called once at startup; a malformed blob is fatal.
func decode(data []byte) *network {
	if len(data) != blobSize || string(data[:4]) != magic {
		panic(fmt.Sprintf("nnue: malformed network blob (%v bytes)", len(data)))
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != version {
		panic(fmt.Sprintf("nnue: unsupported network version %v", v))
	}

	n := &network{}
	off := 8

	for i := range n.ftBias {
		n.ftBias[i] = int16(binary.LittleEndian.Uint16(data[off:]))
		off += 2
	}
	for f := range n.ftWeights {
		for i := range n.ftWeights[f] {
			n.ftWeights[f][i] = int16(binary.LittleEndian.Uint16(data[off:]))
			off += 2
		}
	}
	for f := range n.psqt {
		for phase := range n.psqt[f] {
			n.psqt[f][phase] = int32(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
	}
	for phase := range n.output {
		n.output[phase].bias = int32(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		for k := range n.output[phase].weights {
			for i := range n.output[phase].weights[k] {
				n.output[phase].weights[k][i] = int8(data[off])
				off++
			}
		}
	}

	return n
}

// ftRefresh recomputes a transformer accumulator from scratch: the bias plus
// the weight columns of the active features.
func (n *network) ftRefresh(features []uint16, out *[TransformedSize]int16) {
	*out = n.ftBias
	for _, f := range features {
		n.ftAdd(f, out)
	}
}

func (n *network) ftAdd(f uint16, out *[TransformedSize]int16) {
	w := &n.ftWeights[f]
	for i := range out {
		out[i] += w[i]
	}
}

func (n *network) ftRemove(f uint16, out *[TransformedSize]int16) {
	w := &n.ftWeights[f]
	for i := range out {
		out[i] -= w[i]
	}
}

// psqtRefresh recomputes a piece-square accumulator from scratch.
func (n *network) psqtRefresh(features []uint16, out *[Phases]int32) {
	*out = [Phases]int32{}
	for _, f := range features {
		n.psqtAdd(f, out)
	}
}

func (n *network) psqtAdd(f uint16, out *[Phases]int32) {
	w := &n.psqt[f]
	for i := range out {
		out[i] += w[i]
	}
}

func (n *network) psqtRemove(f uint16, out *[Phases]int32) {
	w := &n.psqt[f]
	for i := range out {
		out[i] -= w[i]
	}
}
