package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/venuecraft/table-booking/internal/model"
)

// SectionRepo provides CRUD for the business-level section catalog.  Rows
// here are templates; per-event pricing and availability live in
// event_sections.
type SectionRepo struct {
	db *sql.DB
}

// NewSectionRepo returns a new SectionRepo bound to the given database.
func NewSectionRepo(db *sql.DB) *SectionRepo { return &SectionRepo{db: db} }

func scanSection(row interface{ Scan(...any) error }) (*model.Section, error) {
	var s model.Section
	var names sql.NullString
	var capacity sql.NullInt64
	err := row.Scan(&s.ID, &s.BusinessID, &s.Name, &s.TableCount, &names, &capacity, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if names.Valid && names.String != "" {
		if err := json.Unmarshal([]byte(names.String), &s.CustomNames); err != nil {
			return nil, err
		}
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		s.Capacity = &c
	}
	return &s, nil
}

// Create inserts a catalog section and populates the generated ID and
// timestamps on the provided model.
func (r *SectionRepo) Create(ctx context.Context, s *model.Section) error {
	namesJSON, err := marshalNullableList(s.CustomNames)
	if err != nil {
		return err
	}
	const q = `INSERT INTO sections (business_id, name, table_count, custom_names, capacity) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.BusinessID, s.Name, s.TableCount, namesJSON, nullableInt(s.Capacity))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT id, business_id, name, table_count, custom_names, capacity, created_at, updated_at FROM sections WHERE id = ?`
	created, err := scanSection(r.db.QueryRowContext(ctx, sel, s.ID))
	if err != nil {
		return err
	}
	*s = *created
	return nil
}

// GetForBusiness loads one section, enforcing tenant scope.  A section
// owned by another business is reported as ErrSectionNotFound.
func (r *SectionRepo) GetForBusiness(ctx context.Context, sectionID, businessID uint64) (*model.Section, error) {
	const q = `SELECT id, business_id, name, table_count, custom_names, capacity, created_at, updated_at
	           FROM sections WHERE id = ? AND business_id = ?`
	s, err := scanSection(r.db.QueryRowContext(ctx, q, sectionID, businessID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListForBusiness returns every catalog section of a business ordered by
// name.
func (r *SectionRepo) ListForBusiness(ctx context.Context, businessID uint64) ([]model.Section, error) {
	const q = `SELECT id, business_id, name, table_count, custom_names, capacity, created_at, updated_at
	           FROM sections WHERE business_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sections := make([]model.Section, 0)
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		sections = append(sections, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sections, nil
}

// Update rewrites a section's mutable fields.  Tenant scope is enforced in
// the WHERE clause; updating a foreign or missing section returns
// ErrSectionNotFound.
func (r *SectionRepo) Update(ctx context.Context, s *model.Section) error {
	namesJSON, err := marshalNullableList(s.CustomNames)
	if err != nil {
		return err
	}
	const q = `UPDATE sections SET name = ?, table_count = ?, custom_names = ?, capacity = ?
	           WHERE id = ? AND business_id = ?`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.TableCount, namesJSON, nullableInt(s.Capacity), s.ID, s.BusinessID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "missing" from "identical values written again".
		if _, err := r.GetForBusiness(ctx, s.ID, s.BusinessID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a catalog section.  Sections still referenced by an event
// inventory row cannot be deleted; ErrConflict is returned instead.
func (r *SectionRepo) Delete(ctx context.Context, sectionID, businessID uint64) error {
	const refQ = `SELECT COUNT(*) FROM event_sections WHERE section_id = ?`
	var refs int
	if err := r.db.QueryRowContext(ctx, refQ, sectionID).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	const q = `DELETE FROM sections WHERE id = ? AND business_id = ?`
	res, err := r.db.ExecContext(ctx, q, sectionID, businessID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSectionNotFound
	}
	return nil
}

// marshalNullableList encodes a string list as JSON, mapping an empty list
// to SQL NULL so the column stays readable in the database.
func marshalNullableList(list []string) (any, error) {
	if len(list) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
