package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dgomez/bid-harvester/internal/models"
	"github.com/dgomez/bid-harvester/internal/scrape"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UpsertAggregate loads one normalized aggregate in a single transaction.
// Contracts, agencies, people and documents are upserted by their
// content-derived ids, so re-loading the same session is a no-op apart
// from updated_at.
func (s *Store) UpsertAggregate(ctx context.Context, agg models.Aggregate) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range agg.Agencies {
		if _, err := tx.Exec(ctx, `
			INSERT INTO agencies (id, name, code) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, code = EXCLUDED.code
		`, a.ID, a.Name, a.Code); err != nil {
			return fmt.Errorf("upsert agency %s: %w", a.ID, err)
		}
	}

	for _, p := range agg.People {
		if _, err := tx.Exec(ctx, `
			INSERT INTO people (id, name, email, phone) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, phone = EXCLUDED.phone
		`, p.ID, p.Name, p.Email, p.Phone); err != nil {
			return fmt.Errorf("upsert person %s: %w", p.ID, err)
		}
	}

	for _, c := range agg.Contracts {
		if _, err := tx.Exec(ctx, `
			INSERT INTO contracts (
				id, external_id, source, url, title, description, note, status,
				open_date, close_date, posted_at, agency_id, categories, commodities,
				amount, awarded_to, award_amount, scraped_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				note = EXCLUDED.note,
				status = EXCLUDED.status,
				open_date = EXCLUDED.open_date,
				close_date = EXCLUDED.close_date,
				posted_at = EXCLUDED.posted_at,
				agency_id = EXCLUDED.agency_id,
				categories = EXCLUDED.categories,
				commodities = EXCLUDED.commodities,
				amount = EXCLUDED.amount,
				awarded_to = EXCLUDED.awarded_to,
				award_amount = EXCLUDED.award_amount,
				scraped_at = EXCLUDED.scraped_at,
				updated_at = NOW()
		`, c.ID, c.ExternalID, c.Source, c.URL, c.Title, c.Description, c.Note, c.Status,
			c.OpenDate, c.CloseDate, c.PostedAt, c.AgencyID, c.Categories, c.Commodities,
			c.Amount, c.AwardedTo, c.AwardAmount, c.ScrapedAt); err != nil {
			return fmt.Errorf("upsert contract %s: %w", c.ID, err)
		}

		for _, pid := range c.ContactIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO contract_contacts (contract_id, person_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, c.ID, pid); err != nil {
				return fmt.Errorf("link contact %s to %s: %w", pid, c.ID, err)
			}
		}
	}

	for _, d := range agg.Documents {
		if _, err := tx.Exec(ctx, `
			INSERT INTO documents (id, contract_id, file_name, file_type, download_url, file_size_bytes, page_count, missing)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO UPDATE SET
				file_name = EXCLUDED.file_name,
				file_type = EXCLUDED.file_type,
				file_size_bytes = EXCLUDED.file_size_bytes,
				page_count = EXCLUDED.page_count,
				missing = EXCLUDED.missing
		`, d.ID, d.ContractID, d.FileName, d.FileType, d.DownloadURL, d.FileSizeBytes, d.PageCount, d.Missing); err != nil {
			return fmt.Errorf("upsert document %s: %w", d.ID, err)
		}
	}

	return tx.Commit(ctx)
}

type ListParams struct {
	Query  string
	Source string
	Status string // "open", "closed", "awarded", "cancelled", or "all" (default)
	Agency string
	Limit  int
	Offset int
	SortBy string // "close_date" (default), "posted_at", "amount", "title"
}

type ListResult struct {
	Contracts []models.Contract `json:"contracts"`
	Total     int               `json:"total"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
}

const contractCols = `id, external_id, source, url, title, description, note, status,
	open_date, close_date, posted_at, agency_id, categories, commodities,
	amount, awarded_to, award_amount, scraped_at`

func scanContract(scan func(dest ...interface{}) error) (models.Contract, error) {
	var c models.Contract
	err := scan(
		&c.ID, &c.ExternalID, &c.Source, &c.URL, &c.Title, &c.Description, &c.Note, &c.Status,
		&c.OpenDate, &c.CloseDate, &c.PostedAt, &c.AgencyID, &c.Categories, &c.Commodities,
		&c.Amount, &c.AwardedTo, &c.AwardAmount, &c.ScrapedAt,
	)
	return c, err
}

func (s *Store) ListContracts(ctx context.Context, params ListParams) (*ListResult, error) {
	where := "WHERE 1=1"
	var args []interface{}
	argIdx := 1

	if params.Query != "" {
		where += fmt.Sprintf(" AND (title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", argIdx, argIdx)
		args = append(args, params.Query)
		argIdx++
	}
	if params.Source != "" {
		where += fmt.Sprintf(" AND source = $%d", argIdx)
		args = append(args, params.Source)
		argIdx++
	}
	if params.Agency != "" {
		where += fmt.Sprintf(" AND agency_id = $%d", argIdx)
		args = append(args, params.Agency)
		argIdx++
	}
	if params.Status != "" && params.Status != "all" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, params.Status)
		argIdx++
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM contracts " + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count contracts: %w", err)
	}

	orderBy := "close_date DESC NULLS LAST"
	switch params.SortBy {
	case "posted_at":
		orderBy = "posted_at DESC NULLS LAST"
	case "amount":
		orderBy = "amount DESC NULLS LAST"
	case "title":
		orderBy = "title ASC"
	}

	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	querySQL := fmt.Sprintf("SELECT %s FROM contracts %s ORDER BY %s LIMIT $%d OFFSET $%d",
		contractCols, where, orderBy, argIdx, argIdx+1)
	args = append(args, limit, params.Offset)

	rows, err := s.pool.Query(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	result := &ListResult{Total: total, Limit: limit, Offset: params.Offset}
	for rows.Next() {
		c, err := scanContract(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		result.Contracts = append(result.Contracts, c)
	}
	return result, rows.Err()
}

func (s *Store) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM contracts WHERE id = $1", contractCols), id)
	c, err := scanContract(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contract %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, "SELECT person_id FROM contract_contacts WHERE contract_id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get contract contacts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, err
		}
		c.ContactIDs = append(c.ContactIDs, pid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	docRows, err := s.pool.Query(ctx, "SELECT id FROM documents WHERE contract_id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get contract documents: %w", err)
	}
	defer docRows.Close()
	for docRows.Next() {
		var did string
		if err := docRows.Scan(&did); err != nil {
			return nil, err
		}
		c.DocumentIDs = append(c.DocumentIDs, did)
	}
	return &c, docRows.Err()
}

func (s *Store) GetDocuments(ctx context.Context, contractID string) ([]models.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, contract_id, file_name, file_type, download_url, file_size_bytes, page_count, missing
		FROM documents WHERE contract_id = $1 ORDER BY file_name
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.ContractID, &d.FileName, &d.FileType, &d.DownloadURL, &d.FileSizeBytes, &d.PageCount, &d.Missing); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Store) GetSources(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT DISTINCT source FROM contracts ORDER BY source")
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

func (s *Store) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalContracts, openContracts, totalAgencies, totalDocuments, missingDocuments int
	if err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM contracts),
			(SELECT COUNT(*) FROM contracts WHERE status = 'open'),
			(SELECT COUNT(*) FROM agencies),
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM documents WHERE missing)
	`).Scan(&totalContracts, &openContracts, &totalAgencies, &totalDocuments, &missingDocuments); err != nil {
		return nil, fmt.Errorf("gather stats: %w", err)
	}
	stats["total_contracts"] = totalContracts
	stats["open_contracts"] = openContracts
	stats["total_agencies"] = totalAgencies
	stats["total_documents"] = totalDocuments
	stats["missing_documents"] = missingDocuments

	byStatus := make(map[string]int)
	rows, err := s.pool.Query(ctx, "SELECT status, COUNT(*) FROM contracts GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("stats by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		byStatus[strings.ToLower(status)] += count
	}
	stats["by_status"] = byStatus
	return stats, rows.Err()
}

// HarvestRun is the persisted record of one collection or transform run.
type HarvestRun struct {
	ID         uuid.UUID    `json:"id"`
	Source     string       `json:"source"`
	WindowFrom time.Time    `json:"window_from"`
	WindowTo   time.Time    `json:"window_to"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at"`
	Stats      scrape.Stats `json:"stats"`
	Status     string       `json:"status"`
	Error      string       `json:"error,omitempty"`
}

func (s *Store) StartRun(ctx context.Context, source string, window scrape.DateWindow) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO harvest_runs (id, source, window_from, window_to, started_at, status)
		VALUES ($1, $2, $3, $4, NOW(), 'running')
	`, id, source, window.From, window.To)
	if err != nil {
		return uuid.Nil, fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, stats scrape.Stats, runErr error) error {
	status := "completed"
	errMsg := ""
	if runErr != nil {
		status = "failed"
		errMsg = runErr.Error()
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE harvest_runs SET
			finished_at = NOW(),
			pages_fetched = $2,
			items_seen = $3,
			items_admitted = $4,
			items_skipped = $5,
			item_errors = $6,
			batches_written = $7,
			documents_found = $8,
			status = $9,
			error = $10
		WHERE id = $1
	`, id, stats.PagesFetched, stats.ItemsSeen, stats.ItemsAdmitted, stats.ItemsSkipped,
		stats.ItemErrors, stats.BatchesWritten, stats.DocumentsFound, status, errMsg)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListRuns(ctx context.Context, source string, limit int) ([]HarvestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	where := ""
	args := []interface{}{limit}
	if source != "" {
		where = "WHERE source = $2"
		args = append(args, source)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, source, window_from, window_to, started_at, finished_at,
			pages_fetched, items_seen, items_admitted, items_skipped, item_errors, batches_written,
			documents_found, status, error
		FROM harvest_runs %s ORDER BY started_at DESC LIMIT $1
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []HarvestRun
	for rows.Next() {
		var r HarvestRun
		if err := rows.Scan(
			&r.ID, &r.Source, &r.WindowFrom, &r.WindowTo, &r.StartedAt, &r.FinishedAt,
			&r.Stats.PagesFetched, &r.Stats.ItemsSeen, &r.Stats.ItemsAdmitted, &r.Stats.ItemsSkipped,
			&r.Stats.ItemErrors, &r.Stats.BatchesWritten, &r.Stats.DocumentsFound, &r.Status, &r.Error,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
