// Package stats counts the records of a run and how many of them were
// distinct.
//
// Distinct values are kept either exactly or as 128-bit xxh3 digests:
//
//	s := stats.New(stats.Hashed)
//	for _, v := range values {
//		s.Observe(v)
//	}
//	fmt.Println(s.Summary())
package stats
