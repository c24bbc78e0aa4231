package vcp

// Scanner wraps an Engine with a minimum score gate for batch work.
// The gate only filters what the caller acts on; the full Result is
// returned either way.
type Scanner struct {
	engine   *Engine
	minScore float64
}

// NewScanner creates a scanner. Scores below minScore are reported but
// not flagged as hits.
func NewScanner(engine *Engine, minScore float64) *Scanner {
	return &Scanner{engine: engine, minScore: minScore}
}

// MinScore returns the scanner's score gate.
func (s *Scanner) MinScore() float64 {
	return s.minScore
}

// Scan analyzes one frame. The boolean is true only when the series is
// a valid pattern and its score clears the gate.
func (s *Scanner) Scan(frame *Frame) (*Result, bool, error) {
	result, err := s.engine.Analyze(frame)
	if err != nil {
		return nil, false, err
	}
	return result, result.IsPattern && result.Score >= s.minScore, nil
}
