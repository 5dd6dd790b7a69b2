package checking

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

type predicateCheckerResponse struct {
	Result   bool     // True if all predicates holds. False otherwise
	Sequence []string // The choices leading to the violating state. nil if Result is true
	Test     int      // The index of the failing predicate. -1 if Result is true
	Cause    error    // The violation of the modeled program, if any
}

// Generate a response
// Returns two parameters, result, and description.
// Result is true if all predicates hold, false otherwise.
// Description is a formatted string providing a detailed description of the result.
// If result is false the description contain the choices that lead to the failing state
func (pcr predicateCheckerResponse) Response() (bool, string) {
	if pcr.Result {
		return pcr.Result, "All predicates holds"
	}
	var buffer bytes.Buffer
	wrt := tabwriter.NewWriter(&buffer, 4, 4, 0, ' ', 0)
	out := fmt.Sprintf("Predicate broken. Predicate: %v. ", pcr.Test)
	if pcr.Cause != nil {
		out += fmt.Sprintf("Cause: %v. ", pcr.Cause)
	}
	out += "Sequence: \n"
	for _, element := range pcr.Sequence {
		fmt.Fprintf(wrt, "-> %v \n", element)
	}
	wrt.Flush()
	out += buffer.String()
	return pcr.Result, out
}

// Export the choices leading to the violating state
func (pcr predicateCheckerResponse) Export() []string {
	if pcr.Sequence == nil {
		return []string{}
	}
	return pcr.Sequence
}

// A function to be evaluated on the states
// It returns true if the predicate holds for the state and false otherwise
type Predicate func(s State) bool

type PredicateChecker struct {
	// Predicates that return true if they hold and false if they are broken
	predicates []Predicate
}

func NewPredicateChecker(predicates ...Predicate) *PredicateChecker {
	return &PredicateChecker{
		predicates: predicates,
	}
}

// Check the state on all predicates.
// Returns true and -1 if all predicates hold, otherwise false and the index of the first failing predicate.
func (pc *PredicateChecker) CheckState(s State) (bool, int) {
	for index, pred := range pc.predicates {
		if !pred(s) {
			return false, index
		}
	}
	return true, -1
}

// Returns the response of a search in which every predicate held
func (pc *PredicateChecker) Holds() CheckerResponse {
	return predicateCheckerResponse{Result: true, Test: -1}
}

func (pc *PredicateChecker) Check(s State) CheckerResponse {
	ok, index := pc.CheckState(s)
	if ok {
		return pc.Holds()
	}
	sequence := []string{}
	if s.System != nil {
		for _, cg := range s.System.ChoiceGenerators() {
			sequence = append(sequence, cg.String())
		}
	}
	return predicateCheckerResponse{
		Result:   false,
		Sequence: sequence,
		Test:     index,
		Cause:    s.Violation,
	}
}
