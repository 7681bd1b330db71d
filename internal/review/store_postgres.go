// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package review

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slrhub/slrhub/internal/platform/database/schema"
	"github.com/slrhub/slrhub/internal/platform/dberr"
	"github.com/slrhub/slrhub/internal/search"
	"github.com/slrhub/slrhub/pkg/pointer"
)

// PostgresRepository is the pgx-backed implementation of [Repository].
//
// The review's "collection" is the slice of slr.result rows sharing its
// review_id; the (review_id, doi) primary key gives every save
// upsert-by-DOI semantics.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// # Review Lifecycle

func (repository *PostgresRepository) CreateReview(context context.Context, rev *Review) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5, $6)`,
		schema.RefReview.Table,
		schema.RefReview.ID, schema.RefReview.Name, schema.RefReview.Description,
		schema.RefReview.Owner, schema.RefReview.Collaborators, schema.RefReview.ResultCollectionName)

	collaborators := rev.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}

	_, err := repository.db.Exec(context, query,
		rev.ID, rev.Name, rev.Description, rev.Owner, collaborators, rev.ResultCollectionName)
	if err != nil {
		return dberr.Wrap(err, "create_review")
	}
	return nil
}

func (repository *PostgresRepository) GetReviewByID(context context.Context, reviewID string) (*Review, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.RefReview.ID, schema.RefReview.Name, schema.RefReview.Description,
		schema.RefReview.Owner, schema.RefReview.Collaborators,
		schema.RefReview.ResultCollectionName, schema.RefReview.CreatedAt,
		schema.RefReview.Table, schema.RefReview.ID)

	rev := &Review{}
	err := repository.db.QueryRow(context, query, reviewID).Scan(
		&rev.ID, &rev.Name, &rev.Description, &rev.Owner, &rev.Collaborators,
		&rev.ResultCollectionName, &rev.CreatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "get_review_by_id")
	}

	sessions, err := repository.sessionsForReview(context, reviewID)
	if err != nil {
		return nil, err
	}
	rev.Queries = sessions

	return rev, nil
}

func (repository *PostgresRepository) ListReviews(context context.Context, owner string) ([]*Review, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 OR $1 = ANY(%s)
		ORDER BY %s DESC
	`,
		schema.RefReview.ID, schema.RefReview.Name, schema.RefReview.Description,
		schema.RefReview.Owner, schema.RefReview.Collaborators,
		schema.RefReview.ResultCollectionName, schema.RefReview.CreatedAt,
		schema.RefReview.Table,
		schema.RefReview.Owner, schema.RefReview.Collaborators,
		schema.RefReview.CreatedAt)

	rows, err := repository.db.Query(context, query, owner)
	if err != nil {
		return nil, dberr.Wrap(err, "list_reviews")
	}
	defer rows.Close()

	reviews := make([]*Review, 0)
	for rows.Next() {
		rev := &Review{}
		if err := rows.Scan(
			&rev.ID, &rev.Name, &rev.Description, &rev.Owner, &rev.Collaborators,
			&rev.ResultCollectionName, &rev.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_review")
		}
		reviews = append(reviews, rev)
	}

	return reviews, nil
}

// DeleteReview drops the review's result collection, its sessions and the
// review row itself, in one transaction.
func (repository *PostgresRepository) DeleteReview(context context.Context, reviewID string) error {
	tx, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "delete_review_begin")
	}
	defer func() { _ = tx.Rollback(context) }()

	if err := deleteReviewData(context, tx, reviewID); err != nil {
		return err
	}

	reviewDelete := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.RefReview.Table, schema.RefReview.ID)
	if _, err := tx.Exec(context, reviewDelete, reviewID); err != nil {
		return dberr.Wrap(err, "delete_review")
	}

	if err := tx.Commit(context); err != nil {
		return dberr.Wrap(err, "delete_review_commit")
	}
	return nil
}

// deleteReviewData truncates a review's results and sessions.
func deleteReviewData(context context.Context, tx pgx.Tx, reviewID string) error {
	sessionResultDelete := fmt.Sprintf(`
		DELETE FROM %s WHERE %s IN (SELECT %s FROM %s WHERE %s = $1)
	`,
		schema.RefSessionResult.Table, schema.RefSessionResult.SessionID,
		schema.RefQuerySession.ID, schema.RefQuerySession.Table, schema.RefQuerySession.ReviewID)
	if _, err := tx.Exec(context, sessionResultDelete, reviewID); err != nil {
		return dberr.Wrap(err, "delete_session_results")
	}

	sessionDelete := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.RefQuerySession.Table, schema.RefQuerySession.ReviewID)
	if _, err := tx.Exec(context, sessionDelete, reviewID); err != nil {
		return dberr.Wrap(err, "delete_sessions")
	}

	resultDelete := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.RefResult.Table, schema.RefResult.ReviewID)
	if _, err := tx.Exec(context, resultDelete, reviewID); err != nil {
		return dberr.Wrap(err, "delete_results")
	}

	return nil
}

// # Query Sessions

func (repository *PostgresRepository) CreateQuerySession(context context.Context, session *QuerySession) error {
	searchJSON, err := json.Marshal(session.Search)
	if err != nil {
		return dberr.Wrap(err, "marshal_session_search")
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)`,
		schema.RefQuerySession.Table,
		schema.RefQuerySession.ID, schema.RefQuerySession.ReviewID, schema.RefQuerySession.Search)

	if _, err := repository.db.Exec(context, query, session.ID, session.ReviewID, searchJSON); err != nil {
		return dberr.Wrap(err, "create_query_session")
	}
	return nil
}

func (repository *PostgresRepository) GetQuerySession(context context.Context, sessionID string) (*QuerySession, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.RefQuerySession.ID, schema.RefQuerySession.ReviewID,
		schema.RefQuerySession.Search, schema.RefQuerySession.CreatedAt,
		schema.RefQuerySession.Table, schema.RefQuerySession.ID)

	session := &QuerySession{}
	var searchJSON []byte
	err := repository.db.QueryRow(context, query, sessionID).Scan(
		&session.ID, &session.ReviewID, &searchJSON, &session.CreatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "get_query_session")
	}

	if len(searchJSON) > 0 {
		if err := json.Unmarshal(searchJSON, &session.Search); err != nil {
			return nil, dberr.Wrap(err, "unmarshal_session_search")
		}
	}

	dois, err := repository.sessionDOIs(context, sessionID)
	if err != nil {
		return nil, err
	}
	session.Results = dois

	return session, nil
}

// sessionsForReview loads a review's sessions with their DOI lists.
func (repository *PostgresRepository) sessionsForReview(context context.Context, reviewID string) ([]QuerySession, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1 ORDER BY %s ASC`,
		schema.RefQuerySession.ID, schema.RefQuerySession.ReviewID,
		schema.RefQuerySession.Search, schema.RefQuerySession.CreatedAt,
		schema.RefQuerySession.Table, schema.RefQuerySession.ReviewID,
		schema.RefQuerySession.CreatedAt)

	rows, err := repository.db.Query(context, query, reviewID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_query_sessions")
	}
	defer rows.Close()

	sessions := make([]QuerySession, 0)
	for rows.Next() {
		session := QuerySession{}
		var searchJSON []byte
		if err := rows.Scan(&session.ID, &session.ReviewID, &searchJSON, &session.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_query_session")
		}
		if len(searchJSON) > 0 {
			if err := json.Unmarshal(searchJSON, &session.Search); err != nil {
				return nil, dberr.Wrap(err, "unmarshal_session_search")
			}
		}
		sessions = append(sessions, session)
	}
	rows.Close()

	for i := range sessions {
		dois, err := repository.sessionDOIs(context, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Results = dois
	}

	return sessions, nil
}

// sessionDOIs returns a session's DOIs in save order.
func (repository *PostgresRepository) sessionDOIs(context context.Context, sessionID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC`,
		schema.RefSessionResult.DOI, schema.RefSessionResult.Table,
		schema.RefSessionResult.SessionID, schema.RefSessionResult.Seq)

	rows, err := repository.db.Query(context, query, sessionID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_session_dois")
	}
	defer rows.Close()

	dois := make([]string, 0)
	for rows.Next() {
		var doi string
		if err := rows.Scan(&doi); err != nil {
			return nil, dberr.Wrap(err, "scan_session_doi")
		}
		dois = append(dois, doi)
	}

	return dois, nil
}

// # Result Store

// SaveResults upserts each record by (review_id, doi) and links its DOI to
// the session. Records without a DOI cannot be keyed and are skipped.
func (repository *PostgresRepository) SaveResults(context context.Context, records []*search.Record, reviewID, sessionID string) (SaveReport, error) {
	report := SaveReport{}

	upsert := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s)
		VALUES ($1, $2, $3)
		ON CONFLICT (%s, %s) DO UPDATE SET %s = EXCLUDED.%s, %s = now()
	`,
		schema.RefResult.Table,
		schema.RefResult.ReviewID, schema.RefResult.DOI, schema.RefResult.Record,
		schema.RefResult.ReviewID, schema.RefResult.DOI,
		schema.RefResult.Record, schema.RefResult.Record,
		schema.RefResult.UpdatedAt)

	link := fmt.Sprintf(`
		INSERT INTO %s (%s, %s) VALUES ($1, $2)
		ON CONFLICT (%s, %s) DO NOTHING
	`,
		schema.RefSessionResult.Table,
		schema.RefSessionResult.SessionID, schema.RefSessionResult.DOI,
		schema.RefSessionResult.SessionID, schema.RefSessionResult.DOI)

	tx, err := repository.db.Begin(context)
	if err != nil {
		return report, dberr.Wrap(err, "save_results_begin")
	}
	defer func() { _ = tx.Rollback(context) }()

	for _, record := range records {
		if record == nil || record.DOI == "" {
			report.Skipped++
			continue
		}

		recordJSON, err := marshalStoredRecord(record)
		if err != nil {
			return report, dberr.Wrap(err, "marshal_record")
		}

		if _, err := tx.Exec(context, upsert, reviewID, record.DOI, recordJSON); err != nil {
			return report, dberr.Wrap(err, "upsert_result")
		}
		if _, err := tx.Exec(context, link, sessionID, record.DOI); err != nil {
			return report, dberr.Wrap(err, "link_session_result")
		}
		report.Saved++
	}

	if err := tx.Commit(context); err != nil {
		return report, dberr.Wrap(err, "save_results_commit")
	}
	return report, nil
}

// marshalStoredRecord strips store annotations before encoding: the row
// itself carries persistence and scores.
func marshalStoredRecord(record *search.Record) ([]byte, error) {
	stored := *record
	stored.Persisted = nil
	stored.Scores = nil
	return json.Marshal(&stored)
}

// PersistedDOIs computes the union of DOIs over the review's sessions.
func (repository *PostgresRepository) PersistedDOIs(context context.Context, reviewID string) (map[string]struct{}, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT sr.%s
		FROM %s sr
		JOIN %s qs ON qs.%s = sr.%s
		WHERE qs.%s = $1
	`,
		schema.RefSessionResult.DOI,
		schema.RefSessionResult.Table,
		schema.RefQuerySession.Table, schema.RefQuerySession.ID, schema.RefSessionResult.SessionID,
		schema.RefQuerySession.ReviewID)

	rows, err := repository.db.Query(context, query, reviewID)
	if err != nil {
		return nil, dberr.Wrap(err, "persisted_dois")
	}
	defer rows.Close()

	dois := make(map[string]struct{})
	for rows.Next() {
		var doi string
		if err := rows.Scan(&doi); err != nil {
			return nil, dberr.Wrap(err, "scan_persisted_doi")
		}
		dois[doi] = struct{}{}
	}

	return dois, nil
}

// GetPersistedResults pages through the review's collection, optionally
// narrowed to one session's DOIs.
//
// The page offset is (page-1)*pageLength. The historical implementation
// skipped one extra row by reusing the 1-based provider start index; that
// off-by-one is deliberately not reproduced here.
func (repository *PostgresRepository) GetPersistedResults(context context.Context, reviewID, sessionID string, page, pageLength int) (*ResultPage, error) {
	scope := fmt.Sprintf(`FROM %s r WHERE r.%s = $1`,
		schema.RefResult.Table, schema.RefResult.ReviewID)
	args := []any{reviewID}

	if sessionID != "" {
		scope += fmt.Sprintf(` AND r.%s IN (SELECT %s FROM %s WHERE %s = $2)`,
			schema.RefResult.DOI,
			schema.RefSessionResult.DOI, schema.RefSessionResult.Table,
			schema.RefSessionResult.SessionID)
		args = append(args, sessionID)
	}

	countQuery := `SELECT COUNT(*) ` + scope

	var total int
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, dberr.Wrap(err, "count_persisted_results")
	}

	listQuery := fmt.Sprintf(`SELECT r.%s, r.%s %s ORDER BY r.%s ASC, r.%s ASC`,
		schema.RefResult.Record, schema.RefResult.Scores, scope,
		schema.RefResult.CreatedAt, schema.RefResult.DOI)

	if page >= 1 && pageLength > 0 {
		listQuery += fmt.Sprintf(` OFFSET %d LIMIT %d`, (page-1)*pageLength, pageLength)
	}

	rows, err := repository.db.Query(context, listQuery, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_persisted_results")
	}
	defer rows.Close()

	results := make([]*search.Record, 0)
	for rows.Next() {
		record, err := scanStoredRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}

	return &ResultPage{Results: results, TotalResults: total}, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanStoredRecord rebuilds a canonical record from its row: the stored
// JSON plus the persistence and score annotations.
func scanStoredRecord(row rowScanner) (*search.Record, error) {
	var recordJSON, scoresJSON []byte
	if err := row.Scan(&recordJSON, &scoresJSON); err != nil {
		return nil, dberr.Wrap(err, "scan_result")
	}

	record := &search.Record{}
	if err := json.Unmarshal(recordJSON, record); err != nil {
		return nil, dberr.Wrap(err, "unmarshal_record")
	}

	if len(scoresJSON) > 0 {
		if err := json.Unmarshal(scoresJSON, &record.Scores); err != nil {
			return nil, dberr.Wrap(err, "unmarshal_scores")
		}
	}

	record.Persisted = pointer.To(true)
	return record, nil
}

func (repository *PostgresRepository) GetResultByDOI(context context.Context, reviewID, doi string) (*search.Record, error) {
	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = $1 AND %s = $2`,
		schema.RefResult.Record, schema.RefResult.Scores,
		schema.RefResult.Table, schema.RefResult.ReviewID, schema.RefResult.DOI)

	return scanStoredRecord(repository.db.QueryRow(context, query, reviewID, doi))
}

func (repository *PostgresRepository) GetResultsByDOIs(context context.Context, reviewID string, dois []string) ([]*search.Record, error) {
	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = $1 AND %s = ANY($2) ORDER BY %s ASC`,
		schema.RefResult.Record, schema.RefResult.Scores,
		schema.RefResult.Table, schema.RefResult.ReviewID, schema.RefResult.DOI,
		schema.RefResult.DOI)

	rows, err := repository.db.Query(context, query, reviewID, dois)
	if err != nil {
		return nil, dberr.Wrap(err, "get_results_by_dois")
	}
	defer rows.Close()

	results := make([]*search.Record, 0, len(dois))
	for rows.Next() {
		record, err := scanStoredRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}

	return results, nil
}

func (repository *PostgresRepository) DeleteResultsByDOIs(context context.Context, reviewID string, dois []string) (int, error) {
	tx, err := repository.db.Begin(context)
	if err != nil {
		return 0, dberr.Wrap(err, "delete_by_dois_begin")
	}
	defer func() { _ = tx.Rollback(context) }()

	// Unlink the DOIs from the review's sessions first so the union
	// invariant (review DOI set == union of session DOI lists) holds.
	unlink := fmt.Sprintf(`
		DELETE FROM %s sr
		USING %s qs
		WHERE qs.%s = sr.%s AND qs.%s = $1 AND sr.%s = ANY($2)
	`,
		schema.RefSessionResult.Table,
		schema.RefQuerySession.Table,
		schema.RefQuerySession.ID, schema.RefSessionResult.SessionID,
		schema.RefQuerySession.ReviewID, schema.RefSessionResult.DOI)
	if _, err := tx.Exec(context, unlink, reviewID, dois); err != nil {
		return 0, dberr.Wrap(err, "unlink_session_results")
	}

	remove := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = ANY($2)`,
		schema.RefResult.Table, schema.RefResult.ReviewID, schema.RefResult.DOI)
	tag, err := tx.Exec(context, remove, reviewID, dois)
	if err != nil {
		return 0, dberr.Wrap(err, "delete_results_by_dois")
	}

	if err := tx.Commit(context); err != nil {
		return 0, dberr.Wrap(err, "delete_by_dois_commit")
	}
	return int(tag.RowsAffected()), nil
}

// DeleteResultsForReview truncates the review's collection and empties its
// sessions, keeping the review row itself.
func (repository *PostgresRepository) DeleteResultsForReview(context context.Context, reviewID string) error {
	tx, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "delete_for_review_begin")
	}
	defer func() { _ = tx.Rollback(context) }()

	if err := deleteReviewData(context, tx, reviewID); err != nil {
		return err
	}

	if err := tx.Commit(context); err != nil {
		return dberr.Wrap(err, "delete_for_review_commit")
	}
	return nil
}

// UpdateScore rewrites the result's score list in a single UPDATE: entries
// of the same evaluator are filtered out, then the new evaluation is
// appended. Row-level atomicity keeps "one score per user" under
// concurrent updates.
func (repository *PostgresRepository) UpdateScore(context context.Context, reviewID, doi string, evaluation Evaluation) (*search.Record, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = (
			SELECT COALESCE(jsonb_agg(entry), '[]'::jsonb)
			FROM jsonb_array_elements(%s) entry
			WHERE entry->>'user' <> $3
		) || jsonb_build_array(jsonb_build_object('user', $3::text, 'score', $4::int, 'comment', $5::text)),
		%s = now()
		WHERE %s = $1 AND %s = $2
		RETURNING %s, %s
	`,
		schema.RefResult.Table, schema.RefResult.Scores,
		schema.RefResult.Scores,
		schema.RefResult.UpdatedAt,
		schema.RefResult.ReviewID, schema.RefResult.DOI,
		schema.RefResult.Record, schema.RefResult.Scores)

	return scanStoredRecord(repository.db.QueryRow(context, query,
		reviewID, doi, evaluation.User, evaluation.Score, evaluation.Comment))
}
