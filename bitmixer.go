package omega

const (
	// Golden ratio bit mixers.
	PHI_C32 = uint32(0x9e3779b9)
	PHI_C64 = uint64(0x9e3779b97f4a7c15)
)

// mix32 is the final mixing step of MurmurHash3.
func mix32(v int) int {
	k := uint32(v)
	k = (k ^ (k >> 16)) * 0x85ebca6b
	k = (k ^ (k >> 13)) * 0xc2b2ae35
	return int(k ^ (k >> 16))
}

// hashInts combines vals into a 64 bit hash.
func hashInts(vals ...int) uint64 {
	h := PHI_C64
	for _, v := range vals {
		h ^= uint64(uint32(mix32(v)))
		h *= PHI_C64
		h ^= h >> 29
	}
	return h
}
