// Package resolve merges policy descriptors with profile overlays and
// config overrides into resolved policies.
//
// Merge precedence, later wins per key: descriptor defaults, then each
// active profile overlay in activation order (the profile's selector
// scoping defaults before its per-policy overlay), then the generated
// config tier, then the user config tier. Plain list values replace
// wholesale; a trailing `+` on an overlay key declares append intent.
// Legacy flat selector keys are normalized into the role-triplet shape
// without overwriting triplet keys already present. The activation flag
// is resolved last.
//
// Resolution is deterministic: the same descriptor store, profile list
// and config always produce identical resolved policies.
package resolve
