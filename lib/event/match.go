package event

// Is reports whether ev is of concrete type E. It adapts the type switch to
// a predicate, for processors configured with event selectors.
func Is[E Event](ev Event) bool {
	_, ok := ev.(E)
	return ok
}
