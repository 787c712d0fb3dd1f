// Package internal contains the core implementation packages for aeonkit.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - catalog: the Aeon tag catalog with attribute schemas and examples
//   - scanner: tag tokenizing, attribute parsing and workspace discovery
//   - renderer: tag expansion, include resolution and preview documents
//   - mockdata: mock field profiles and generated test data
//   - diagnostics: page validation rules
//   - dom: HTML parsing and selector queries
//   - analyzer: customization detection between two versions of a page
//   - diff: line, side-by-side and structural page diffs
//   - migration: applying selected customizations to a new template
//   - templates: the default template set and its manifest
//   - storage: migration projects, page analyses and custom profiles
//   - registry: the set of documents known to the workspace
//   - config: configuration loading and validation
//   - watcher: file system monitoring with debouncing
//   - server: the preview HTTP server and live reload
//
// # Inter-Package Communication
//
//   - Watcher reports changed pages and includes to the server
//   - Server renders pages through the renderer and broadcasts reloads
//   - Migration consumes analyzer output saved in storage
package internal
