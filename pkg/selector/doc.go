// Package selector compiles role-keyed selector metadata into a single
// path predicate.
//
// A selector spec carries three roles: include, exclude and
// force_include. Each role holds five entry categories: globs, explicit
// files, directory prefixes, name prefixes and suffixes. The algebra is
// fixed: a path is a candidate if it matches any include entry (or no
// include entries are declared); candidates matching an exclude entry
// are removed; force-include entries restore removed candidates. The
// sentinel entry "(none)" in an include category makes the selector
// match nothing.
//
// Every policy shares this one contract; the engine never duplicates
// selection logic per policy.
package selector
