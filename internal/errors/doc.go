// Package errors provides coded, actionable errors for the primitives
// tooling (CLI, playground server, scenario runner).
//
// Each code maps to a category, a short message and a longer detail:
//
//	err := errors.New("E201").
//	    WithDetail("step 3 has no items").
//	    WithSuggestion("add an items list or remove the step")
//
//	fmt.Fprintln(os.Stderr, err.Format())
//	// ERROR E201: Invalid scenario
//	//
//	//   step 3 has no items
//	//
//	//   Hint: add an items list or remove the step
//
// # Categories
//
//   - config: configuration files and environment
//   - scenario: scenario documents
//   - report: report sinks
//   - protocol: playground HTTP and WebSocket payloads
package errors
