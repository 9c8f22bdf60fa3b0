// Package errors provides structured, actionable error messages for payelements.
//
// Every error carries a code (e.g. "P001") that maps to a registered
// template with a short message, a longer explanation and a documentation
// URL. Errors are grouped into categories that follow the propagation
// policy of the library:
//
//   - usage: a component was built outside its required ancestor scope.
//     Returned synchronously from constructors.
//   - config: a required input combination is missing.
//     Returned synchronously or recorded immediately.
//   - initialization: the provider SDK failed to load.
//     Captured into provider state, never returned across an async boundary.
//   - widget: widget creation or mount failed, or the widget reported an
//     input validation error. Captured into controller state.
//   - redirect: a checkout redirect failed. Emitted to error handlers.
//
// # Usage
//
//	err := errors.New("P002").
//	    WithMessage("%s used outside of an elements scope", "CardElement").
//	    WithSuggestion("Create the widget with a scope returned by elements.New")
//
//	fmt.Println(err.Format())
package errors
