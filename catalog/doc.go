// Package catalog holds the named operations for each element type and the
// codecs that turn records into typed values and back.
//
//	text     capitalize, reverse
//	integer  reverse, neg
//	real     neg
//
// Names are matched exactly. An unknown name builds to the identity, so
//
//	t, _ := catalog.ForType("int", []string{"reverse", "shuffle", "neg"})
//	out, _ := t.Apply("-120") // "21"
//
// behaves as if "shuffle" had not been given.
package catalog
