package ports

// RNGPort isolates the pseudo-random inputs of otherwise pure computations
type RNGPort interface {
	// Intn returns a pseudo-random integer in [0, n)
	Intn(n int) int
}
