package research

import "fmt"

// FetchError reports a network or parse failure in a source fetcher. The
// pipeline recovers by nulling that source's raw results.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Source, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// AnalysisError reports an LLM failure while analyzing one source. The
// pipeline recovers by nulling that source's analysis.
type AnalysisError struct {
	Source string
	Err    error
}

func (e *AnalysisError) Error() string { return fmt.Sprintf("analyze %s: %v", e.Source, e.Err) }
func (e *AnalysisError) Unwrap() error { return e.Err }

// SynthesisError reports an LLM failure at the final step. There is no
// smaller unit to isolate it to, so it surfaces to the caller; the partial
// state remains inspectable.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return fmt.Sprintf("synthesize: %v", e.Err) }
func (e *SynthesisError) Unwrap() error { return e.Err }
