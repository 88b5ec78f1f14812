package domain

// Zero overwrites b with zeros. Used on data keys and master key copies once
// they are no longer needed.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
