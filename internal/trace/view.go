package trace

import "github.com/amlvm/engine/vm"

// ViewOf projects a vm.Object into its CBOR-serializable form.
func ViewOf(o vm.Object) ObjectView {
	v := ObjectView{Kind: uint8(o.Kind())}
	switch o.Kind() {
	case vm.KindInteger:
		v.Integer = o.Integer()
	case vm.KindString, vm.KindBuffer:
		v.Bytes = append([]byte(nil), o.Bytes()...)
	case vm.KindPackage:
		// Package elements are not recursively captured in a
		// Snapshot; a package-valued arg/local is recorded as its
		// element count so post-mortem tooling knows one was present
		// without paying for a deep, possibly-cyclic-looking walk.
		v.Integer = uint64(len(o.Package()))
	}
	return v
}
