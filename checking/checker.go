package checking

// The Checker verifies that properties hold for the states reached by the search.
type Checker interface {
	// Verify that the configured properties hold for the provided state
	Check(s State) CheckerResponse
}

// CheckerResponse is a response returned by a Checker
//
// Contains the result of checking a state.
type CheckerResponse interface {
	// Create a response.
	//
	// Returns a boolean that is true if all properties hold, false otherwise.
	// Returns a string describing the response.
	// This includes the violated property and the choices leading to the violating state.
	Response() (bool, string)

	// Export the choices which lead to a violation
	//
	// If a property was violated it returns the choice generators on the path, root first.
	// Otherwise it returns an empty slice.
	Export() []string
}
