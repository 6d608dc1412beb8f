package service

// Sequencer hands out a monotonic sequence number per filter so a slow,
// superseded option fetch cannot overwrite a fresher result. It is owned by
// the UI update loop.
type Sequencer struct {
	latest map[string]uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{latest: map[string]uint64{}}
}

// Next issues the sequence number for a new fetch of name.
func (s *Sequencer) Next(name string) uint64 {
	s.latest[name]++
	return s.latest[name]
}

// Latest reports whether seq is the most recent number issued for name.
func (s *Sequencer) Latest(name string, seq uint64) bool {
	return seq != 0 && s.latest[name] == seq
}
