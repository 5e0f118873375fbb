package domain

// Stage names the resolver stage that produced an answer.
type Stage string

const (
	// StageClauseID is an exact clause identifier match.
	StageClauseID Stage = "clause_id"
	// StageKeyword is a keyword-overlap clause match.
	StageKeyword Stage = "keyword"
	// StageVector is a raw nearest-chunk answer.
	StageVector Stage = "vector"
	// StageSummary is an LLM summary of the nearest chunks.
	StageSummary Stage = "summary"
	// StageFallback is the fixed no-match answer.
	StageFallback Stage = "fallback"
)

// NoMatchAnswer is returned when no stage produces a result.
const NoMatchAnswer = "I couldn’t find a specific clause matching your question. " +
	"Try mentioning a clause number or a keyword from the heading."

// Answer is the per-request result of the resolver.
type Answer struct {
	Text      string
	Citations []string
	Stage     Stage
}
