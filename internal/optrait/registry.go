// Package optrait implements the process-wide op-type -> trait table
// described in SPEC_FULL.md §6. The only trait the scheduling core reads
// is ElementWise, used by the lifetime overlap rule (§4.5) and the
// memory-state increment/decrement rule (§4.6).
//
// Grounded on original_source/include/hos/util/op.hpp's OpTraitRegistry;
// the built-in op-name list is grounded on the activation and math op
// inventories of the retrieved born-ml/born ONNX operator registry
// (internal/onnx/operators/activations.go, math_ops.go before this
// repository's adaptation removed the execution side of that package).
package optrait

import "log"

// Trait is a bitflag set of properties an op type may have.
type Trait uint32

const (
	None        Trait = 0
	ElementWise Trait = 1 << 0
)

// Registry maps an ONNX op-type string to its trait bitflags.
type Registry struct {
	traits map[string]Trait
}

// NewRegistry returns a registry seeded with the built-in element-wise
// op list from SPEC_FULL.md §6 ("Abs, Add, ..., Clip").
func NewRegistry() *Registry {
	r := &Registry{traits: make(map[string]Trait, len(elementWiseOps))}
	for _, name := range elementWiseOps {
		r.traits[name] = ElementWise
	}
	return r
}

// elementWiseOps lists ONNX op types whose output has the same shape as
// (at most) one input and can therefore alias that input's storage.
var elementWiseOps = []string{
	"Abs", "Add", "Sub", "Mul", "Div", "Neg", "Sqrt", "Exp", "Log", "Pow",
	"Relu", "LeakyRelu", "PRelu", "Sigmoid", "Tanh", "Softmax", "LogSoftmax",
	"Gelu", "Silu", "Elu", "Selu", "Clip", "Identity", "Cast",
}

// Register adds or overrides the trait set for an op type. Used by
// callers that know about custom or domain-specific operators.
func (r *Registry) Register(opType string, t Trait) {
	r.traits[opType] = t
}

// Match reports whether opType has trait t set. An unrecognized op type
// is conservatively reported as having no traits (never overlap), with a
// warning logged once traits are actually consulted — matching
// SPEC_FULL.md §7's "unknown op-type: warning, treated as no-traits".
func (r *Registry) Match(opType string, t Trait) bool {
	got, ok := r.traits[opType]
	if !ok {
		log.Printf("optrait: unknown op type %q, assuming no traits", opType)
		return false
	}
	return got&t != 0
}
