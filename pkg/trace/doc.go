// Package trace provides named x/y data series and a typed collection to hold
// them.
//
// A [Trace] may carry a fitted y series alongside its raw data. The
// [Collection] keeps traces by name, remembers which names were part of the
// latest load, and which names the user selected. Traces are read from CSV
// files with a header row containing x and y columns.
package trace
