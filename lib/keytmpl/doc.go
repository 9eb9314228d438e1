// Package keytmpl implements a small DSL for constructing storage keys.
//
// A template string mixes literal text with field references:
//
//	user:{userID}:profile
//	user:{id|upper}:{field|default('profile')}
//	cache:{name|trim|slugify}
//
// Outside braces only letters, digits and the delimiters / | - _ : are
// allowed. A field reference names an input field and an optional pipeline
// of transformation functions applied left to right. Builtins: upper, lower,
// trim, slugify, default(v), if(a,b), intadd(n).
//
// Render accepts three input shapes, tried in strict priority order: a
// VarProvider implementation, a map, or a struct with exported fields. All
// missing fields are collected and reported in a single error.
//
// Custom functions can be registered per template instance, or on a Registry
// where they become available to every template registered in it - including
// templates that were registered before the function.
package keytmpl
