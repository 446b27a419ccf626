// Package progress turns raw process output into viewer messages.
//
// Output arrives in arbitrary chunks. LineSplitter reassembles logical lines,
// and Filter classifies each line:
//
//   - a line carrying <<PROGRESS>>{"profile":"p1","current":3,"total":10}<<PROGRESS>>
//     yields a progress update, and the rest of the line, if any, is logged
//   - a marker whose payload is not a JSON object with a profile leaves the
//     line untouched
//   - blank and whitespace-only lines are dropped
//   - phrases such as "salvas em: /path/file.png" additionally report the
//     parent directory of the path as an output folder
package progress
