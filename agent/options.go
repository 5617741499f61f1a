package agent

// Tunables and their defaults, mirroring the pipeline's contract: accept an
// answer scoring at least the threshold, retry the full cycle at most
// MaxRetries extra times, and keep each tool's output bounded.
const (
	QualityThreshold = 3
	MaxRetries       = 2

	defaultSQLRetries  = 2
	defaultRowLimit    = 100
	defaultTopK        = 7
	maxQuestionLen     = 2000
	synthesisMaxTokens = 3000
	routingMaxTokens   = 512
	synthesisTemp      = 0.1
)

type settings struct {
	qualityThreshold int
	maxRetries       int
	sqlRetries       int
	rowLimit         int
	topK             int
	synthMaxTokens   int64
	routingMaxTokens int64
	synthTemperature float64
}

func defaultSettings() settings {
	return settings{
		qualityThreshold: QualityThreshold,
		maxRetries:       MaxRetries,
		sqlRetries:       defaultSQLRetries,
		rowLimit:         defaultRowLimit,
		topK:             defaultTopK,
		synthMaxTokens:   synthesisMaxTokens,
		routingMaxTokens: routingMaxTokens,
		synthTemperature: synthesisTemp,
	}
}

// Option customizes agent construction.
type Option func(*settings)

// WithQualityThreshold sets the minimum accepted quality score.
func WithQualityThreshold(threshold int) Option {
	return func(s *settings) { s.qualityThreshold = threshold }
}

// WithMaxRetries sets how many extra full cycles run after a low score.
func WithMaxRetries(n int) Option {
	return func(s *settings) { s.maxRetries = n }
}

// WithSQLRetries sets how many extra generation attempts the SQL tool makes.
func WithSQLRetries(n int) Option {
	return func(s *settings) { s.sqlRetries = n }
}

// WithRowLimit caps the rows a SQL result may carry.
func WithRowLimit(n int) Option {
	return func(s *settings) { s.rowLimit = n }
}

// WithTopK sets how many passages the document tool retrieves.
func WithTopK(n int) Option {
	return func(s *settings) { s.topK = n }
}

// WithSynthesisBudget sets the synthesis token budget.
func WithSynthesisBudget(tokens int64) Option {
	return func(s *settings) { s.synthMaxTokens = tokens }
}

// WithRoutingBudget sets the token budget for classification, SQL
// generation, and scoring calls.
func WithRoutingBudget(tokens int64) Option {
	return func(s *settings) { s.routingMaxTokens = tokens }
}

// WithSynthesisTemperature sets the sampling temperature for synthesis.
// Routing calls always run deterministic.
func WithSynthesisTemperature(t float64) Option {
	return func(s *settings) { s.synthTemperature = t }
}
