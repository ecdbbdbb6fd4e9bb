// Package value is the host-independent datum model.
//
// A Value is one of a closed set of concrete types: integers, floats,
// booleans, strings, byte strings, dates, decimals, timestamps, times of day,
// and the recursive List, Map and Record containers, plus Null. Values are
// immutable once built. Equal and Hash are structural and agree with each
// other; floating point fields compare by total order so that values may be
// used as map keys through Hash and in test oracles.
package value
