package policies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const policyColumns = `id, user_id, scope, policy_type, carrier, policy_number, nickname, status, coverage_amount, deductible, premium_amount, renewal_date, created_at`

// Create inserts a new policy.
func (r *PGRepo) Create(ctx context.Context, policy Policy) error {
	const query = `
INSERT INTO policies (
    id,
    user_id,
    scope,
    policy_type,
    carrier,
    policy_number,
    nickname,
    status,
    coverage_amount,
    deductible,
    premium_amount,
    renewal_date,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	status := policy.Status
	if status == "" {
		status = "active"
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		policy.ID,
		policy.UserID,
		policy.Scope,
		policy.PolicyType,
		policy.Carrier,
		policy.PolicyNumber,
		nullString(policy.Nickname),
		status,
		nullInt64(policy.CoverageAmount),
		nullInt64(policy.Deductible),
		nullInt64(policy.PremiumAmount),
		nullTime(policy.RenewalDate),
		policy.CreatedAt,
	)
	return err
}

// GetByID fetches a policy by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userId, policyID string) (Policy, error) {
	query := `
SELECT ` + policyColumns + `
FROM policies
WHERE user_id = $1 AND id = $2
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, userId, policyID)
	policy, err := scanPolicy(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Policy{}, ErrNotFound
		}
		return Policy{}, err
	}
	return policy, nil
}

// ListByUser lists policies ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userId string, limit, offset int) ([]Policy, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + policyColumns + `
FROM policies
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userId, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Policy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, policy)
	}
	return out, rows.Err()
}

// Update replaces the mutable fields of a policy.
func (r *PGRepo) Update(ctx context.Context, policy Policy) error {
	const query = `
UPDATE policies
SET scope = $1,
    policy_type = $2,
    carrier = $3,
    policy_number = $4,
    nickname = $5,
    status = $6,
    coverage_amount = $7,
    deductible = $8,
    premium_amount = $9,
    renewal_date = $10,
    updated_at = now()
WHERE id = $11 AND user_id = $12`
	res, err := r.DB.ExecContext(
		ctx,
		query,
		policy.Scope,
		policy.PolicyType,
		policy.Carrier,
		policy.PolicyNumber,
		nullString(policy.Nickname),
		policy.Status,
		nullInt64(policy.CoverageAmount),
		nullInt64(policy.Deductible),
		nullInt64(policy.PremiumAmount),
		nullTime(policy.RenewalDate),
		policy.ID,
		policy.UserID,
	)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddContact inserts a contact for a policy.
func (r *PGRepo) AddContact(ctx context.Context, contact Contact) error {
	const query = `
INSERT INTO contacts (id, policy_id, role, name, company, phone, email)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		contact.ID,
		contact.PolicyID,
		contact.Role,
		nullString(contact.Name),
		nullString(contact.Company),
		nullString(contact.Phone),
		nullString(contact.Email),
	)
	return err
}

// ListContacts returns the contacts attached to a policy.
func (r *PGRepo) ListContacts(ctx context.Context, policyID string) ([]Contact, error) {
	const query = `
SELECT id, policy_id, role, name, company, phone, email
FROM contacts
WHERE policy_id = $1
ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query, policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		var contact Contact
		var name, company, phone, email sql.NullString
		if err := rows.Scan(&contact.ID, &contact.PolicyID, &contact.Role, &name, &company, &phone, &email); err != nil {
			return nil, err
		}
		contact.Name = name.String
		contact.Company = company.String
		contact.Phone = phone.String
		contact.Email = email.String
		out = append(out, contact)
	}
	return out, rows.Err()
}

// AddCoverageItem inserts a coverage item for a policy.
func (r *PGRepo) AddCoverageItem(ctx context.Context, item CoverageItem) error {
	const query = `
INSERT INTO coverage_items (id, policy_id, item_type, description, item_limit)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, item.ID, item.PolicyID, item.ItemType, item.Description, nullString(item.Limit))
	return err
}

// ListCoverageItems returns the coverage items attached to a policy.
func (r *PGRepo) ListCoverageItems(ctx context.Context, policyID string) ([]CoverageItem, error) {
	const query = `
SELECT id, policy_id, item_type, description, item_limit
FROM coverage_items
WHERE policy_id = $1
ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query, policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CoverageItem
	for rows.Next() {
		var item CoverageItem
		var limit sql.NullString
		if err := rows.Scan(&item.ID, &item.PolicyID, &item.ItemType, &item.Description, &limit); err != nil {
			return nil, err
		}
		item.Limit = limit.String
		out = append(out, item)
	}
	return out, rows.Err()
}

// AddDetail inserts a detail field for a policy.
func (r *PGRepo) AddDetail(ctx context.Context, detail PolicyDetail) error {
	const query = `
INSERT INTO policy_details (id, policy_id, field_name, field_value)
VALUES ($1, $2, $3, $4)`
	_, err := r.DB.ExecContext(ctx, query, detail.ID, detail.PolicyID, detail.FieldName, detail.FieldValue)
	return err
}

// ListDetails returns the detail fields attached to a policy.
func (r *PGRepo) ListDetails(ctx context.Context, policyID string) ([]PolicyDetail, error) {
	const query = `
SELECT id, policy_id, field_name, field_value
FROM policy_details
WHERE policy_id = $1
ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query, policyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PolicyDetail
	for rows.Next() {
		var detail PolicyDetail
		if err := rows.Scan(&detail.ID, &detail.PolicyID, &detail.FieldName, &detail.FieldValue); err != nil {
			return nil, err
		}
		out = append(out, detail)
	}
	return out, rows.Err()
}

// ApplyExtraction updates the policy and creates every child record in one transaction.
func (r *PGRepo) ApplyExtraction(ctx context.Context, apply ExtractionApply) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply extraction: %w", err)
	}
	defer tx.Rollback()

	const updateQuery = `
UPDATE policies
SET scope = $1,
    policy_type = $2,
    carrier = $3,
    policy_number = $4,
    coverage_amount = $5,
    deductible = $6,
    premium_amount = $7,
    renewal_date = $8,
    updated_at = now()
WHERE id = $9 AND user_id = $10`
	res, err := tx.ExecContext(
		ctx,
		updateQuery,
		apply.Policy.Scope,
		apply.Policy.PolicyType,
		apply.Policy.Carrier,
		apply.Policy.PolicyNumber,
		nullInt64(apply.Policy.CoverageAmount),
		nullInt64(apply.Policy.Deductible),
		nullInt64(apply.Policy.PremiumAmount),
		nullTime(apply.Policy.RenewalDate),
		apply.Policy.ID,
		apply.Policy.UserID,
	)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}

	for _, contact := range apply.Contacts {
		const query = `
INSERT INTO contacts (id, policy_id, role, name, company, phone, email)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := tx.ExecContext(ctx, query, contact.ID, contact.PolicyID, contact.Role, nullString(contact.Name), nullString(contact.Company), nullString(contact.Phone), nullString(contact.Email)); err != nil {
			return err
		}
	}
	for _, item := range apply.CoverageItems {
		const query = `
INSERT INTO coverage_items (id, policy_id, item_type, description, item_limit)
VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.ExecContext(ctx, query, item.ID, item.PolicyID, item.ItemType, item.Description, nullString(item.Limit)); err != nil {
			return err
		}
	}
	for _, detail := range apply.Details {
		const query = `
INSERT INTO policy_details (id, policy_id, field_name, field_value)
VALUES ($1, $2, $3, $4)`
		if _, err := tx.ExecContext(ctx, query, detail.ID, detail.PolicyID, detail.FieldName, detail.FieldValue); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func scanPolicy(row interface{ Scan(dest ...any) error }) (Policy, error) {
	var policy Policy
	var nickname sql.NullString
	var coverage, deductible, premium sql.NullInt64
	var renewal sql.NullTime
	err := row.Scan(
		&policy.ID,
		&policy.UserID,
		&policy.Scope,
		&policy.PolicyType,
		&policy.Carrier,
		&policy.PolicyNumber,
		&nickname,
		&policy.Status,
		&coverage,
		&deductible,
		&premium,
		&renewal,
		&policy.CreatedAt,
	)
	if err != nil {
		return Policy{}, err
	}
	policy.Nickname = nickname.String
	if coverage.Valid {
		policy.CoverageAmount = &coverage.Int64
	}
	if deductible.Valid {
		policy.Deductible = &deductible.Int64
	}
	if premium.Valid {
		policy.PremiumAmount = &premium.Int64
	}
	if renewal.Valid {
		policy.RenewalDate = &renewal.Time
	}
	return policy, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
