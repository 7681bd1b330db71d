// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package review

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slrhub/slrhub/internal/search"
	"github.com/slrhub/slrhub/pkg/pointer"
)

/*
TestMarshalStoredRecord strips the store annotations before encoding: the
row itself carries persistence and scores, so the JSON column must not.
*/
func TestMarshalStoredRecord(t *testing.T) {
	record := &search.Record{
		DOI:       "10.1000/x",
		Title:     "Stored Title",
		Persisted: pointer.To(true),
		Scores:    []search.Score{{User: "u1", Score: 4}},
	}

	encoded, err := marshalStoredRecord(record)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	assert.Equal(t, "10.1000/x", decoded["doi"])
	assert.NotContains(t, decoded, "persisted")
	assert.NotContains(t, decoded, "scores")

	// The input record is untouched.
	assert.NotNil(t, record.Persisted)
	assert.Len(t, record.Scores, 1)
}

// stubRow replays fixed column values into scanStoredRecord.
type stubRow struct {
	values []any
}

func (r *stubRow) Scan(dest ...any) error {
	for i, value := range r.values {
		*(dest[i].(*[]byte)) = value.([]byte)
	}
	return nil
}

/*
TestScanStoredRecord rebuilds the canonical record with its annotations
from the stored JSON columns.
*/
func TestScanStoredRecord(t *testing.T) {
	row := &stubRow{values: []any{
		[]byte(`{"doi": "10.1000/x", "title": "Stored Title"}`),
		[]byte(`[{"user": "u1", "score": 5, "comment": "solid"}]`),
	}}

	record, err := scanStoredRecord(row)
	require.NoError(t, err)

	assert.Equal(t, "10.1000/x", record.DOI)
	assert.Equal(t, "Stored Title", record.Title)
	assert.Equal(t, pointer.To(true), record.Persisted)
	require.Len(t, record.Scores, 1)
	assert.Equal(t, search.Score{User: "u1", Score: 5, Comment: "solid"}, record.Scores[0])
}
