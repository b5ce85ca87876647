package anyeval

import (
	"log"

	"github.com/dustin/go-humanize"
)

// A Logger logs status messages which are produced during
// evaluation.
type Logger interface {
	LogStart(numWorkers, numEval int)
	LogScore(score float64)
	LogWorkerError(workerID int, err error)
	LogWaiting()
	LogSummary(r *Result)
	LogPlayed(episode, total int, score float64)
}

// StandardLogger is a Logger which uses the log package.
//
// A Field of name <N> controls whether or not the Log<N>
// method does anything.
type StandardLogger struct {
	Start       bool
	Score       bool
	WorkerError bool
	Waiting     bool
	Summary     bool
	Played      bool
}

// NewStandardLogger creates a StandardLogger which logs
// everything except for individual scores, which are only
// logged if verbose is set.
func NewStandardLogger(verbose bool) *StandardLogger {
	return &StandardLogger{
		Start:       true,
		Score:       verbose,
		WorkerError: true,
		Waiting:     true,
		Summary:     true,
		Played:      true,
	}
}

// LogStart logs the start of an evaluation.
func (s *StandardLogger) LogStart(numWorkers, numEval int) {
	if s.Start {
		log.Printf("evaluate: workers=%d episodes=%s", numWorkers,
			humanize.Comma(int64(numEval)))
	}
}

// LogScore logs the return of a finished episode.
func (s *StandardLogger) LogScore(score float64) {
	if s.Score {
		log.Printf("score: %f", score)
	}
}

// LogWorkerError logs the error which killed a worker.
func (s *StandardLogger) LogWorkerError(workerID int, err error) {
	if s.WorkerError {
		log.Printf("worker %d: stopped: %v", workerID, err)
	}
}

// LogWaiting logs that the evaluation is waiting for
// workers to finish their last episode.
func (s *StandardLogger) LogWaiting() {
	if s.Waiting {
		log.Println("waiting for all the workers to finish the last run...")
	}
}

// LogSummary logs the final evaluation result.
func (s *StandardLogger) LogSummary(r *Result) {
	if s.Summary {
		log.Printf("evaluate: episodes=%s mean=%f max=%f dead_workers=%d elapsed=%v",
			humanize.Comma(int64(r.Count)), r.Mean, r.Max, r.DeadWorkers, r.Elapsed)
	}
}

// LogPlayed logs an episode played by PlayEpisodes.
func (s *StandardLogger) LogPlayed(episode, total int, score float64) {
	if s.Played {
		log.Printf("%d/%d, score=%f", episode, total, score)
	}
}
