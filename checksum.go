package schemalane

import "hash/crc32"

// checksum computes the deterministic 32-bit digest stored alongside every
// migration. It is a pure function of the payload bytes: the same content
// must always produce the same value, across runs and platforms, so that
// the Status Evaluator can compare a freshly-read file against a row
// written months ago by a different binary.
//
// The table is frozen at the IEEE polynomial (crc32.ChecksumIEEE); changing
// it would reclassify every previously-successful row as ChecksumMismatch.
func checksum(payload []byte) int32 {
	sum := crc32.ChecksumIEEE(payload)
	return int32(sum)
}
