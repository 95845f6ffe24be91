package identifier

// Result is the output of the normalization pipeline.
type Result struct {
	URL       string  `json:"url"`
	Username  string  `json:"username"`
	Suspicion Profile `json:"suspicion"`
}

// Pipeline runs normalization followed by suspicion analysis.
type Pipeline struct {
	analyzer *Analyzer
}

// NewPipeline returns a pipeline scoring with analyzer. A nil analyzer uses
// the default policy.
func NewPipeline(analyzer *Analyzer) *Pipeline {
	if analyzer == nil {
		analyzer = defaultAnalyzer
	}
	return &Pipeline{analyzer: analyzer}
}

// Process normalizes raw and scores it. Scoring runs on the host-rewritten
// input so tracking parameters removed from the canonical form still count.
func (p *Pipeline) Process(raw string) (Result, error) {
	n, err := normalize(raw)
	if err != nil {
		return Result{}, err
	}
	return Result{
		URL:       n.canonical,
		Username:  n.username,
		Suspicion: p.analyzer.Analyze(n.rewritten),
	}, nil
}
