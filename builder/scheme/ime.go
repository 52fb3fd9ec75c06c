package scheme

// IME is the contract offered to a live text-entry surface. InputEdit is a
// pure function of its argument, so it can be called on every snapshot of
// the input buffer.
type IME struct {
	rules *Scheme
}

// NewIME wraps a compiled input-method scheme.
func NewIME(s *Scheme) *IME {
	return &IME{rules: s}
}

// Rules returns the scheme InputEdit runs.
func (m *IME) Rules() *Scheme { return m.rules }

// InputEdit converts the full buffer text.
func (m *IME) InputEdit(text string) string {
	return m.rules.Transliterate(text)
}
