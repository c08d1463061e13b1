// Package util provides small helpers shared by the configuration and CLI
// layers: size parsing, comma-separated list splitting and generic slice
// helpers.
package util
