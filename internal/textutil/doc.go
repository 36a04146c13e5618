// Package textutil holds small string helpers shared by the CLI and the
// exporters: display casing for names recorded in replays and filename
// sanitisation for generated output paths.
package textutil
