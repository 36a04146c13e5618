// Package export renders decoded rounds and matches as JSON documents or
// Excel workbooks.
package export
