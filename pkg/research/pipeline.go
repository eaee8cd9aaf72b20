package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mikeboe/research-agent/pkg/websearch"
)

// Options bounds the pipeline's fan-out and deadlines.
type Options struct {
	WebResultLimit  int           // top-N per web engine
	DiscussionLimit int           // max posts from discussion search
	MaxThreads      int           // thread selector cap
	MaxComments     int           // pooled comment cap across all threads
	EvidenceTopK    int           // prior-knowledge hits pulled into synthesis
	Timeout         time.Duration // end-to-end deadline for one question
}

// DefaultOptions mirrors the service defaults.
func DefaultOptions() Options {
	return Options{
		WebResultLimit:  10,
		DiscussionLimit: 8,
		MaxThreads:      3,
		MaxComments:     20,
		EvidenceTopK:    3,
		Timeout:         120 * time.Second,
	}
}

// Pipeline orchestrates the fan-out/fan-in research flow: three independent
// source fetches, thread selection and deep-fetch, one analysis per source,
// and a final synthesis. Each stage owns disjoint state fields; the pipeline
// merges stage outputs into the state after the stage completes, so no two
// goroutines ever write the same field.
type Pipeline struct {
	Primary       websearch.Provider
	PrimaryName   string
	Secondary     websearch.Provider
	SecondaryName string
	Discussion    DiscussionSearcher

	Analyzer    *Analyzer
	Synthesizer *Synthesizer
	Evidence    EvidenceStore // optional, may be nil

	Logger *slog.Logger
	Opts   Options
}

// WithLogger returns a shallow copy using the given logger, so callers can
// attach a per-request logger without touching the shared pipeline.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	cp := *p
	cp.Logger = logger
	return &cp
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Run executes the full pipeline for one question and always returns a
// terminal state. The returned error is non-nil only for a synthesis-stage
// failure; every upstream failure is recorded in the state and degraded
// around.
func (p *Pipeline) Run(ctx context.Context, question string) (*ResearchState, error) {
	if p.Opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Opts.Timeout)
		defer cancel()
	}

	log := p.logger()
	state := &ResearchState{Question: question}
	log.Info("starting research pipeline", "question", question)

	p.runFetchStage(ctx, state)
	p.runThreadStage(ctx, state)
	p.runAnalysisStage(ctx, state)
	p.runEvidenceQuery(ctx, state)

	answer, err := p.Synthesizer.Synthesize(ctx, question,
		state.WebAnalysis, state.AltWebAnalysis, state.DiscussionAnalysis, state.EvidenceHits)
	if err != nil {
		log.Error("synthesis failed", "error", err)
		state.Failures = append(state.Failures, StageFailure{Stage: "synthesize", Detail: err.Error()})
		return state, err
	}
	state.FinalAnswer = &answer

	p.indexEvidence(ctx, state)

	log.Info("pipeline complete", "analyses", state.AnalysisCount(), "answer_length", len(answer))
	return state, nil
}

// runFetchStage dispatches the three independent source fetches in parallel
// and merges their outputs. A failed branch records a failure and leaves its
// raw-result field nil.
func (p *Pipeline) runFetchStage(ctx context.Context, state *ResearchState) {
	log := p.logger()

	type webOut struct {
		hits []SearchHit
		err  error
	}
	webCh := make(chan webOut, 1)
	altCh := make(chan webOut, 1)

	searchWeb := func(provider websearch.Provider, engine string, out chan<- webOut) {
		if provider == nil {
			out <- webOut{err: &FetchError{Source: engine, Err: fmt.Errorf("no provider configured")}}
			return
		}
		results, err := provider.Search(ctx, state.Question, p.Opts.WebResultLimit)
		if err != nil {
			out <- webOut{err: &FetchError{Source: engine, Err: err}}
			return
		}
		hits := make([]SearchHit, len(results))
		for i, r := range results {
			hits[i] = SearchHit{Title: r.Title, URL: r.URL, Snippet: r.Snippet, SourceEngine: engine}
		}
		out <- webOut{hits: hits}
	}

	go searchWeb(p.Primary, p.PrimaryName, webCh)
	go searchWeb(p.Secondary, p.SecondaryName, altCh)

	discussionDone := make(chan error, 1)
	go func() {
		result, err := p.Discussion.SearchPosts(ctx, state.Question, p.Opts.DiscussionLimit)
		if err != nil {
			discussionDone <- &FetchError{Source: SourceDiscussion, Err: err}
			return
		}
		state.DiscussionResults = result
		discussionDone <- nil
	}()

	web := <-webCh
	alt := <-altCh
	discussionErr := <-discussionDone

	if web.err != nil {
		log.Warn("web search failed", "engine", p.PrimaryName, "error", web.err)
		state.Failures = append(state.Failures, StageFailure{Stage: "fetch_web", Detail: web.err.Error()})
	} else {
		state.WebResults = web.hits
		log.Info("web search complete", "engine", p.PrimaryName, "hits", len(web.hits))
	}

	if alt.err != nil {
		log.Warn("secondary web search failed", "engine", p.SecondaryName, "error", alt.err)
		state.Failures = append(state.Failures, StageFailure{Stage: "fetch_alt_web", Detail: alt.err.Error()})
	} else {
		state.AltWebResults = alt.hits
		log.Info("secondary web search complete", "engine", p.SecondaryName, "hits", len(alt.hits))
	}

	if discussionErr != nil {
		log.Warn("discussion search failed", "error", discussionErr)
		state.Failures = append(state.Failures, StageFailure{Stage: "fetch_discussion", Detail: discussionErr.Error()})
		state.DiscussionResults = nil
	} else if state.DiscussionResults != nil {
		log.Info("discussion search complete", "posts", state.DiscussionResults.TotalFound)
	}
}

// runThreadStage selects threads from the discussion search output and
// deep-fetches their comments. Per-thread failures are recorded but never
// abort the batch.
func (p *Pipeline) runThreadStage(ctx context.Context, state *ResearchState) {
	if state.DiscussionResults == nil || len(state.DiscussionResults.Posts) == 0 {
		return
	}
	log := p.logger()

	state.SelectedThreadURLs = SelectThreads(state.DiscussionResults.Posts, p.Opts.MaxThreads)
	if len(state.SelectedThreadURLs) == 0 {
		return
	}
	log.Info("selected threads", "count", len(state.SelectedThreadURLs))

	batch, failures := p.Discussion.FetchComments(ctx, state.SelectedThreadURLs, p.Opts.MaxComments)
	for _, f := range failures {
		log.Warn("thread fetch failed", "url", f.URL, "error", f.Err)
		state.Failures = append(state.Failures, StageFailure{
			Stage:  "fetch_thread",
			Detail: fmt.Sprintf("%s: %v", f.URL, f.Err),
		})
	}
	state.ThreadData = batch
	log.Info("thread deep-fetch complete", "comments", batch.TotalRetrieved, "failed_threads", len(failures))
}

// runAnalysisStage analyzes each source that produced evidence, in parallel.
// A source with no raw results is skipped, so an analysis field can never be
// populated from absent data.
func (p *Pipeline) runAnalysisStage(ctx context.Context, state *ResearchState) {
	log := p.logger()

	type analysisOut struct {
		source string
		text   string
		err    error
	}

	var pending int
	out := make(chan analysisOut, 3)
	analyze := func(source, evidence string) {
		pending++
		go func() {
			text, err := p.Analyzer.Analyze(ctx, state.Question, source, evidence)
			out <- analysisOut{source: source, text: text, err: err}
		}()
	}

	if len(state.WebResults) > 0 {
		analyze(SourceWeb, FormatSearchHits(state.WebResults))
	}
	if len(state.AltWebResults) > 0 {
		analyze(SourceAltWeb, FormatSearchHits(state.AltWebResults))
	}
	if state.ThreadData != nil && state.ThreadData.TotalRetrieved > 0 {
		analyze(SourceDiscussion, FormatThreadData(state.DiscussionResults, state.ThreadData))
	}

	for ; pending > 0; pending-- {
		res := <-out
		if res.err != nil {
			log.Warn("analysis failed", "source", res.source, "error", res.err)
			state.Failures = append(state.Failures, StageFailure{
				Stage:  "analyze_" + res.source,
				Detail: res.err.Error(),
			})
			continue
		}
		text := res.text
		switch res.source {
		case SourceWeb:
			state.WebAnalysis = &text
		case SourceAltWeb:
			state.AltWebAnalysis = &text
		case SourceDiscussion:
			state.DiscussionAnalysis = &text
		}
		log.Info("analysis complete", "source", res.source, "length", len(text))
	}
}

// runEvidenceQuery pulls prior knowledge for the question from the evidence
// store. Store failures are logged and degraded around.
func (p *Pipeline) runEvidenceQuery(ctx context.Context, state *ResearchState) {
	if p.Evidence == nil || p.Opts.EvidenceTopK <= 0 {
		return
	}
	hits, err := p.Evidence.Query(ctx, state.Question, p.Opts.EvidenceTopK)
	if err != nil {
		p.logger().Warn("evidence query failed", "error", err)
		state.Failures = append(state.Failures, StageFailure{Stage: "evidence_query", Detail: err.Error()})
		return
	}
	state.EvidenceHits = hits
}

// indexEvidence stores the run's analyses so later questions can draw on
// them. Best effort only.
func (p *Pipeline) indexEvidence(ctx context.Context, state *ResearchState) {
	if p.Evidence == nil {
		return
	}

	var texts []string
	var metadatas []map[string]any
	add := func(source string, analysis *string) {
		if analysis == nil || strings.TrimSpace(*analysis) == "" {
			return
		}
		texts = append(texts, *analysis)
		metadatas = append(metadatas, map[string]any{
			"question": state.Question,
			"source":   source,
		})
	}
	add(SourceWeb, state.WebAnalysis)
	add(SourceAltWeb, state.AltWebAnalysis)
	add(SourceDiscussion, state.DiscussionAnalysis)

	if len(texts) == 0 {
		return
	}
	if err := p.Evidence.Add(ctx, texts, metadatas); err != nil {
		p.logger().Warn("evidence indexing failed", "error", err)
	}
}
