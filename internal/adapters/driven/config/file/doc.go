// Package file loads librarian configuration from disk: application
// settings from a TOML file and corpus definitions from per-corpus
// YAML files under the library root.
package file
