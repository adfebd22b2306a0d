package pipeline

import (
	"github.com/nguyentantai21042004/wordcut/internal/compiler"
)

type Stage string

const (
	StageNormalize  Stage = "normalize"
	StageTranscribe Stage = "transcribe"
	StageTrim       Stage = "trim"
	StageCompile    Stage = "compile"
)

type Outcome string

const (
	Succeeded Outcome = "succeeded"
	Failed    Outcome = "failed"
	Cached    Outcome = "cached"
)

// Result is the outcome of one unit of work: a video or a word.
type Result struct {
	Stage   Stage
	Unit    string
	Outcome Outcome
	Output  string
	Err     error
}

// Report collects every unit result of a run.
type Report struct {
	Results     []Result
	Words       int
	Compilation *compiler.Compilation
}

// Count returns how many results of stage ended with outcome.
func (r Report) Count(stage Stage, outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Stage == stage && res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Partial reports whether some unit failed without failing the run.
func (r Report) Partial() bool {
	for _, res := range r.Results {
		if res.Outcome == Failed {
			return true
		}
	}
	return false
}

func failures(results []Result) []error {
	var errs []error
	for _, r := range results {
		if r.Outcome == Failed && r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
