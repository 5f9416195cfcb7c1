package modeling

import "iter"

// Concat chains sequences one after another.
func Concat[E any](seqs ...iter.Seq[E]) iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, seq := range seqs {
			for v := range seq {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// PortValues iterates over every value of every port, in port order, paired
// with the port holding it.
func PortValues(ports []Port) iter.Seq2[Port, any] {
	return func(yield func(Port, any) bool) {
		for _, p := range ports {
			for v := range p.AnyValues() {
				if !yield(p, v) {
					return
				}
			}
		}
	}
}
