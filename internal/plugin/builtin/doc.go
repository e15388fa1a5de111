// Package builtin contains the plugins every widget instance loads by
// default.
package builtin
