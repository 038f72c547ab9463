// Package manifest reads package.json dependency declarations.
package manifest
