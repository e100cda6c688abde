package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrCylinderNotFound = errors.New("gas cylinder not found")
)

type SupplierRepository interface {
	Create(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, id string) (*Supplier, error)
	// ListActive returns active suppliers with their cylinders attached.
	ListActive(ctx context.Context) ([]Supplier, error)
}

type PGSupplierRepo struct{ db *pgxpool.Pool }

func NewPGSupplierRepo(db *pgxpool.Pool) *PGSupplierRepo { return &PGSupplierRepo{db: db} }

const supplierCols = `id, name, contact_person, phone, email, address,
	latitude, longitude, is_active, created_at, updated_at`

func scanSupplier(row pgx.Row) (*Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Phone, &s.Email,
		&s.Address, &s.Latitude, &s.Longitude, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSupplierNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGSupplierRepo) Create(ctx context.Context, s *Supplier) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO suppliers (id, name, contact_person, phone, email, address,
			latitude, longitude, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
	`, s.ID, s.Name, s.ContactPerson, s.Phone, s.Email, s.Address,
		s.Latitude, s.Longitude)
	return err
}

func (r *PGSupplierRepo) GetByID(ctx context.Context, id string) (*Supplier, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanSupplier(r.db.QueryRow(ctx,
		`SELECT `+supplierCols+` FROM suppliers WHERE id=$1`, id))
}

func (r *PGSupplierRepo) ListActive(ctx context.Context) ([]Supplier, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx,
		`SELECT `+supplierCols+` FROM suppliers WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := []Supplier{}
	index := map[string]int{}
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		s.GasCylinders = []GasCylinder{}
		index[s.ID] = len(suppliers)
		suppliers = append(suppliers, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(suppliers) == 0 {
		return suppliers, nil
	}

	// Attach cylinders in one pass rather than per supplier.
	crows, err := r.db.Query(ctx,
		`SELECT `+cylinderCols+` FROM gas_cylinders ORDER BY weight ASC`)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		cyl, err := scanCylinder(crows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[cyl.SupplierID]; ok {
			suppliers[i].GasCylinders = append(suppliers[i].GasCylinders, *cyl)
		}
	}
	return suppliers, crows.Err()
}
