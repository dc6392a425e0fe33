// Package docstage builds the static asset bundle (CSS and JavaScript) the
// embedded static package serves.
//
// Build web assets using:
//
//	go generate
package docstage

//go:generate sh -c "mkdir -p static/css static/js && cd web && bun run build"
