// Package expr provides CEL (Common Expression Language) functionality
// for matching trace files, file events, and loaded traces.
//
// It creates CEL environments with custom functions for:
//   - File path operations (pathBase, pathDir, pathExt)
//   - CSV header extraction (csvColumns)
//   - File event flags (op.has(fs.WRITE))
//
// Expressions have access to different variables depending on their use:
//   - [FileMatcher]: `file` (string), the path of a candidate file
//   - [EventMatcher]: `file` (string) and `op` (int), a file event
//   - [TraceFilter]: `trace` (map), the fields of a loaded trace
package expr
