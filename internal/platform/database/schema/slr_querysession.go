package schema

// RefQuerySessionTable represents the 'slr.query_session' table
type RefQuerySessionTable struct {
	Table     string
	ID        string
	ReviewID  string
	Search    string
	CreatedAt string
}

// RefQuerySession is the schema definition for slr.query_session
var RefQuerySession = RefQuerySessionTable{
	Table:     "slr.query_session",
	ID:        "id",
	ReviewID:  "review_id",
	Search:    "search",
	CreatedAt: "created_at",
}

func (t RefQuerySessionTable) Columns() []string {
	return []string{t.ID, t.ReviewID, t.Search, t.CreatedAt}
}
