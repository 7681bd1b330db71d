package schema

// RefReviewTable represents the 'slr.review' table
type RefReviewTable struct {
	Table                string
	ID                   string
	Name                 string
	Description          string
	Owner                string
	Collaborators        string
	ResultCollectionName string
	CreatedAt            string
}

// RefReview is the schema definition for slr.review
var RefReview = RefReviewTable{
	Table:                "slr.review",
	ID:                   "id",
	Name:                 "name",
	Description:          "description",
	Owner:                "owner",
	Collaborators:        "collaborators",
	ResultCollectionName: "result_collection_name",
	CreatedAt:            "created_at",
}

func (t RefReviewTable) Columns() []string {
	return []string{t.ID, t.Name, t.Description, t.Owner, t.Collaborators, t.ResultCollectionName, t.CreatedAt}
}
