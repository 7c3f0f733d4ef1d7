package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"freight-reconciliation-service/internal/models"
	apperrors "freight-reconciliation-service/pkg/errors"
	"freight-reconciliation-service/pkg/logger"
)

// SQLiteRepository implements Repository using modernc.org/sqlite.
//
// Records are stored as JSON payloads with denormalized filter columns,
// so the schema stays stable while the model evolves.
type SQLiteRepository struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLite opens a SQLite database at the given DSN and configures WAL
// mode.
func NewSQLite(dsn string, log logger.Logger) (*SQLiteRepository, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "database", dsn, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "database", dsn, err)
		}
	}

	return &SQLiteRepository{db: db, log: log.WithComponent("repository.sqlite")}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	payload         TEXT NOT NULL,
	status          TEXT NOT NULL,
	doc_type        TEXT,
	processed_at    DATETIME,
	created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS shipments (
	id                TEXT PRIMARY KEY,
	organization_id   TEXT NOT NULL,
	payload           TEXT NOT NULL,
	status            TEXT NOT NULL,
	discrepancy_level TEXT,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS shipment_documents (
	shipment_id TEXT NOT NULL REFERENCES shipments(id),
	document_id TEXT NOT NULL REFERENCES documents(id),
	role        TEXT NOT NULL,
	PRIMARY KEY (shipment_id, document_id)
);

CREATE TABLE IF NOT EXISTS discrepancies (
	id          TEXT PRIMARY KEY,
	shipment_id TEXT NOT NULL REFERENCES shipments(id),
	payload     TEXT NOT NULL,
	severity    TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	shipment_id     TEXT,
	action          TEXT NOT NULL,
	payload         TEXT NOT NULL,
	created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS organization_settings (
	organization_id          TEXT PRIMARY KEY,
	auto_approve_enabled     INTEGER NOT NULL,
	auto_approve_threshold   REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_org ON documents(organization_id);
CREATE INDEX IF NOT EXISTS idx_documents_processed_at ON documents(processed_at);
CREATE INDEX IF NOT EXISTS idx_shipments_org ON shipments(organization_id);
CREATE INDEX IF NOT EXISTS idx_discrepancies_shipment ON discrepancies(shipment_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_org ON audit_log(organization_id, created_at);
`

// Migrate creates the schema if it does not exist.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteMigration); err != nil {
		return apperrors.RepositoryError(apperrors.CodeStorageError, "schema", "migration", err)
	}
	return nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveDocument(ctx context.Context, doc *models.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return apperrors.RepositoryError(apperrors.CodeStorageError, "document", doc.ID, err)
	}

	var processedAt any
	if doc.ProcessedAt != nil {
		processedAt = doc.ProcessedAt.UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO documents (id, organization_id, payload, status, doc_type, processed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			status = excluded.status,
			doc_type = excluded.doc_type,
			processed_at = excluded.processed_at`,
		doc.ID, doc.OrganizationID, string(payload), string(doc.Status),
		string(doc.DocType), processedAt, doc.CreatedAt.UTC(),
	)
	if err != nil {
		return apperrors.RepositoryError(apperrors.CodeStorageError, "document", doc.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetDocument(ctx context.Context, orgID, documentID string) (*models.Document, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM documents WHERE id = ? AND organization_id = ?`,
		documentID, orgID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, apperrors.RepositoryError(apperrors.CodeNotFound, "document", documentID, nil)
	}
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "document", documentID, err)
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "document", documentID, err)
	}
	return &doc, nil
}

func (r *SQLiteRepository) LoadOrganizationGraph(ctx context.Context, orgID string) (*OrganizationGraph, error) {
	graph := &OrganizationGraph{Documents: make(map[string]*models.Document)}

	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM shipments WHERE organization_id = ? ORDER BY updated_at`, orgID)
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "shipments", orgID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "shipments", orgID, err)
		}
		var shipment models.Shipment
		if err := json.Unmarshal([]byte(payload), &shipment); err != nil {
			return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "shipments", orgID, err)
		}
		graph.Shipments = append(graph.Shipments, &shipment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "shipments", orgID, err)
	}

	linkRows, err := r.db.QueryContext(ctx, `
		SELECT sd.shipment_id, sd.document_id, sd.role
		FROM shipment_documents sd
		JOIN shipments s ON s.id = sd.shipment_id
		WHERE s.organization_id = ?
		ORDER BY sd.rowid`, orgID)
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "links", orgID, err)
	}
	defer linkRows.Close()
	for linkRows.Next() {
		var link models.ShipmentDocumentLink
		var role string
		if err := linkRows.Scan(&link.ShipmentID, &link.DocumentID, &role); err != nil {
			return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "links", orgID, err)
		}
		link.Role = models.DocType(role)
		graph.Links = append(graph.Links, link)
	}
	if err := linkRows.Err(); err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "links", orgID, err)
	}

	docRows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT d.payload
		FROM documents d
		JOIN shipment_documents sd ON sd.document_id = d.id
		WHERE d.organization_id = ?`, orgID)
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "documents", orgID, err)
	}
	defer docRows.Close()
	for docRows.Next() {
		var payload string
		if err := docRows.Scan(&payload); err != nil {
			return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "documents", orgID, err)
		}
		var doc models.Document
		if err := json.Unmarshal([]byte(payload), &doc); err != nil {
			return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "documents", orgID, err)
		}
		graph.Documents[doc.ID] = &doc
	}
	if err := docRows.Err(); err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "documents", orgID, err)
	}

	return graph, nil
}

func (r *SQLiteRepository) GetShipment(ctx context.Context, orgID, shipmentID string) (*models.Shipment, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM shipments WHERE id = ? AND organization_id = ?`,
		shipmentID, orgID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, apperrors.RepositoryError(apperrors.CodeNotFound, "shipment", shipmentID, nil)
	}
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "shipment", shipmentID, err)
	}

	var shipment models.Shipment
	if err := json.Unmarshal([]byte(payload), &shipment); err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "shipment", shipmentID, err)
	}
	return &shipment, nil
}

func (r *SQLiteRepository) ListDiscrepancies(ctx context.Context, shipmentID string) ([]models.Discrepancy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM discrepancies WHERE shipment_id = ? ORDER BY created_at, id`, shipmentID)
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "discrepancies", shipmentID, err)
	}
	defer rows.Close()

	var discrepancies []models.Discrepancy
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "discrepancies", shipmentID, err)
		}
		var d models.Discrepancy
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "discrepancies", shipmentID, err)
		}
		discrepancies = append(discrepancies, d)
	}
	return discrepancies, rows.Err()
}

func (r *SQLiteRepository) CommitReconciliation(ctx context.Context, shipment *models.Shipment, links []models.ShipmentDocumentLink, discrepancies []models.Discrepancy, audit *models.AuditLogRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.RepositoryError(apperrors.CodeCommitFailed, "shipment", shipment.ID, err)
	}
	defer tx.Rollback()

	if err := upsertShipment(ctx, tx, shipment); err != nil {
		return err
	}

	// Links and discrepancies are replaced wholesale so the stored set
	// always mirrors the latest pass.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM shipment_documents WHERE shipment_id = ?`, shipment.ID); err != nil {
		return apperrors.RepositoryError(apperrors.CodeCommitFailed, "links", shipment.ID, err)
	}
	for _, link := range links {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO shipment_documents (shipment_id, document_id, role) VALUES (?, ?, ?)`,
			link.ShipmentID, link.DocumentID, string(link.Role)); err != nil {
			return apperrors.RepositoryError(apperrors.CodeCommitFailed, "links", shipment.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM discrepancies WHERE shipment_id = ?`, shipment.ID); err != nil {
		return apperrors.RepositoryError(apperrors.CodeCommitFailed, "discrepancies", shipment.ID, err)
	}
	if err := insertDiscrepancies(ctx, tx, discrepancies); err != nil {
		return err
	}

	if audit != nil {
		if err := insertAudit(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.RepositoryError(apperrors.CodeCommitFailed, "shipment", shipment.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) CommitAction(ctx context.Context, shipment *models.Shipment, discrepancies []models.Discrepancy, audit *models.AuditLogRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.RepositoryError(apperrors.CodeCommitFailed, "shipment", shipment.ID, err)
	}
	defer tx.Rollback()

	if err := upsertShipment(ctx, tx, shipment); err != nil {
		return err
	}

	for _, d := range discrepancies {
		payload, err := json.Marshal(d)
		if err != nil {
			return apperrors.RepositoryError(apperrors.CodeCommitFailed, "discrepancy", d.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE discrepancies SET payload = ?, severity = ? WHERE id = ?`,
			string(payload), string(d.Severity), d.ID); err != nil {
			return apperrors.RepositoryError(apperrors.CodeCommitFailed, "discrepancy", d.ID, err)
		}
	}

	if audit != nil {
		if err := insertAudit(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.RepositoryError(apperrors.CodeCommitFailed, "shipment", shipment.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetSettings(ctx context.Context, orgID string) (models.OrganizationSettings, error) {
	settings := models.DefaultOrganizationSettings()
	var enabled int
	err := r.db.QueryRowContext(ctx,
		`SELECT auto_approve_enabled, auto_approve_threshold FROM organization_settings WHERE organization_id = ?`,
		orgID,
	).Scan(&enabled, &settings.AutoApproveConfidenceThreshold)
	if err == sql.ErrNoRows {
		return models.DefaultOrganizationSettings(), nil
	}
	if err != nil {
		return settings, apperrors.RepositoryError(apperrors.CodeStorageError, "settings", orgID, err)
	}
	settings.AutoApproveEnabled = enabled != 0
	return settings, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, orgID string, settings models.OrganizationSettings) error {
	enabled := 0
	if settings.AutoApproveEnabled {
		enabled = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organization_settings (organization_id, auto_approve_enabled, auto_approve_threshold)
		VALUES (?, ?, ?)
		ON CONFLICT(organization_id) DO UPDATE SET
			auto_approve_enabled = excluded.auto_approve_enabled,
			auto_approve_threshold = excluded.auto_approve_threshold`,
		orgID, enabled, settings.AutoApproveConfidenceThreshold)
	if err != nil {
		return apperrors.RepositoryError(apperrors.CodeStorageError, "settings", orgID, err)
	}
	return nil
}

func (r *SQLiteRepository) ListAuditLog(ctx context.Context, orgID string, limit int) ([]models.AuditLogRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM audit_log WHERE organization_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		orgID, limit)
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "audit_log", orgID, err)
	}
	defer rows.Close()

	var records []models.AuditLogRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "audit_log", orgID, err)
		}
		var record models.AuditLogRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "audit_log", orgID, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *SQLiteRepository) DashboardSummary(ctx context.Context, orgID string, now time.Time) (*DashboardSummary, error) {
	summary := &DashboardSummary{
		DiscrepancyDistribution: map[models.Severity]int{
			models.SeverityGreen:  0,
			models.SeverityYellow: 0,
			models.SeverityRed:    0,
		},
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE organization_id = ? AND processed_at >= ?`,
		orgID, startOfDay,
	).Scan(&summary.DocumentsProcessedToday)
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "dashboard", orgID, err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM shipments
		WHERE organization_id = ? AND (status = 'matched' OR discrepancy_level = 'yellow')`,
		orgID,
	).Scan(&summary.PendingReview)
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "dashboard", orgID, err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE organization_id = ? AND action = 'auto_approved'`,
		orgID,
	).Scan(&summary.AutoApproved)
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "dashboard", orgID, err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shipments WHERE organization_id = ? AND status = 'disputed'`,
		orgID,
	).Scan(&summary.DisputesOpen)
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "dashboard", orgID, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT discrepancy_level, COUNT(*) FROM shipments
		WHERE organization_id = ? AND discrepancy_level IS NOT NULL
		GROUP BY discrepancy_level`, orgID)
	if err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "dashboard", orgID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "dashboard", orgID, err)
		}
		summary.DiscrepancyDistribution[models.Severity(level)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.RepositoryError(apperrors.CodeStorageError, "dashboard", orgID, err)
	}

	recent, err := r.ListAuditLog(ctx, orgID, 20)
	if err != nil {
		return nil, err
	}
	summary.RecentActivity = recent

	return summary, nil
}

func upsertShipment(ctx context.Context, tx *sql.Tx, shipment *models.Shipment) error {
	payload, err := json.Marshal(shipment)
	if err != nil {
		return apperrors.RepositoryError(apperrors.CodeCommitFailed, "shipment", shipment.ID, err)
	}

	var level any
	if shipment.DiscrepancyLevel != nil {
		level = string(*shipment.DiscrepancyLevel)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO shipments (id, organization_id, payload, status, discrepancy_level, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			status = excluded.status,
			discrepancy_level = excluded.discrepancy_level,
			updated_at = excluded.updated_at`,
		shipment.ID, shipment.OrganizationID, string(payload), string(shipment.Status),
		level, shipment.UpdatedAt.UTC())
	if err != nil {
		return apperrors.RepositoryError(apperrors.CodeCommitFailed, "shipment", shipment.ID, err)
	}
	return nil
}

func insertDiscrepancies(ctx context.Context, tx *sql.Tx, discrepancies []models.Discrepancy) error {
	for _, d := range discrepancies {
		payload, err := json.Marshal(d)
		if err != nil {
			return apperrors.RepositoryError(apperrors.CodeCommitFailed, "discrepancy", d.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO discrepancies (id, shipment_id, payload, severity, created_at) VALUES (?, ?, ?, ?, ?)`,
			d.ID, d.ShipmentID, string(payload), string(d.Severity), d.CreatedAt.UTC()); err != nil {
			return apperrors.RepositoryError(apperrors.CodeCommitFailed, "discrepancy", d.ID, err)
		}
	}
	return nil
}

func insertAudit(ctx context.Context, tx *sql.Tx, audit *models.AuditLogRecord) error {
	payload, err := json.Marshal(audit)
	if err != nil {
		return apperrors.RepositoryError(apperrors.CodeCommitFailed, "audit", audit.ID, err)
	}

	var shipmentID any
	if audit.ShipmentID != nil {
		shipmentID = *audit.ShipmentID
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO audit_log (id, organization_id, shipment_id, action, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		audit.ID, audit.OrganizationID, shipmentID, string(audit.Action), string(payload), audit.CreatedAt.UTC()); err != nil {
		return apperrors.RepositoryError(apperrors.CodeCommitFailed, "audit", audit.ID, err)
	}
	return nil
}
