// Package extractors provides the extension-dispatched content extractor.
//
// Each subpackage knows how to pull text out of one family of formats.
// Extractors are registered with the Registry at startup; optional
// decoders that depend on external tools register as absent when the
// tool is missing, so a lookup never reaches a broken branch.
package extractors
