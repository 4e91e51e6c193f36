package trust

// TrustChain holds the currently trusted root and walks it forward
// through successive candidate root files via Update, rejecting
// anything that fails spec.md §4.8's algorithm (Component H).
type TrustChain struct {
	current Role
}

// NewTrustChain seeds a chain from an already-trusted root document,
// typically pinned out-of-band (shipped with the installer) and never
// itself verified against anything.
func NewTrustChain(trustedRootRaw []byte) (*TrustChain, error) {
	root, err := ParseRoot(trustedRootRaw)
	if err != nil {
		return nil, err
	}
	return &TrustChain{current: root}, nil
}

// Current returns the chain's currently trusted root.
func (c *TrustChain) Current() Role { return c.current }

// Apply validates candidateRaw (named filename) against the chain's
// current root and, on success, advances the chain to it.
func (c *TrustChain) Apply(filename string, candidateRaw []byte) error {
	next, err := Update(c.current, filename, candidateRaw)
	if err != nil {
		return err
	}
	c.current = next
	return nil
}
