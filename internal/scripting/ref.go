package scripting

// Ref is an opaque handle to a callback registered with the engine. Zero is
// never a valid registration.
type Ref int

func (r Ref) Valid() bool { return r != 0 }
