package schema

// RefResultTable represents the 'slr.result' table.
//
// The primary key is (review_id, doi): a DOI appears at most once per
// review, which is what makes save operations idempotent upserts.
type RefResultTable struct {
	Table     string
	ReviewID  string
	DOI       string
	Record    string
	Scores    string
	CreatedAt string
	UpdatedAt string
}

// RefResult is the schema definition for slr.result
var RefResult = RefResultTable{
	Table:     "slr.result",
	ReviewID:  "review_id",
	DOI:       "doi",
	Record:    "record",
	Scores:    "scores",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

func (t RefResultTable) Columns() []string {
	return []string{t.ReviewID, t.DOI, t.Record, t.Scores, t.CreatedAt, t.UpdatedAt}
}
