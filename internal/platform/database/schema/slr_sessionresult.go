package schema

// RefSessionResultTable represents the 'slr.session_result' join table,
// recording which DOIs each query session produced.
type RefSessionResultTable struct {
	Table     string
	Seq       string
	SessionID string
	DOI       string
}

// RefSessionResult is the schema definition for slr.session_result
var RefSessionResult = RefSessionResultTable{
	Table:     "slr.session_result",
	Seq:       "seq",
	SessionID: "session_id",
	DOI:       "doi",
}

func (t RefSessionResultTable) Columns() []string {
	return []string{t.Seq, t.SessionID, t.DOI}
}
