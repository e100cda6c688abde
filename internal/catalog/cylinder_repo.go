package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CylinderRepository interface {
	Create(ctx context.Context, c *GasCylinder) error
	// GetByID returns the cylinder with its supplier attached.
	GetByID(ctx context.Context, id string) (*GasCylinder, error)
	// ListAvailable returns available cylinders ordered by weight,
	// suppliers attached.
	ListAvailable(ctx context.Context) ([]GasCylinder, error)
	Update(ctx context.Context, c *GasCylinder) error
	Delete(ctx context.Context, id string) error
}

type PGCylinderRepo struct{ db *pgxpool.Pool }

func NewPGCylinderRepo(db *pgxpool.Pool) *PGCylinderRepo { return &PGCylinderRepo{db: db} }

const cylinderCols = `id, name, weight::text, price::text, description, brand,
	is_available, stock_quantity, image_url, supplier_id, created_at, updated_at`

func scanCylinder(row pgx.Row) (*GasCylinder, error) {
	var c GasCylinder
	err := row.Scan(&c.ID, &c.Name, &c.Weight, &c.Price, &c.Description,
		&c.Brand, &c.IsAvailable, &c.StockQuantity, &c.ImageURL,
		&c.SupplierID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCylinderNotFound
		}
		return nil, err
	}
	return &c, nil
}

// joined cylinder + supplier row
const cylinderJoinCols = `c.id, c.name, c.weight::text, c.price::text,
	c.description, c.brand, c.is_available, c.stock_quantity, c.image_url,
	c.supplier_id, c.created_at, c.updated_at,
	s.id, s.name, s.contact_person, s.phone, s.email, s.address,
	s.latitude, s.longitude, s.is_active, s.created_at, s.updated_at`

func scanCylinderWithSupplier(row pgx.Row) (*GasCylinder, error) {
	var c GasCylinder
	var s Supplier
	err := row.Scan(&c.ID, &c.Name, &c.Weight, &c.Price, &c.Description,
		&c.Brand, &c.IsAvailable, &c.StockQuantity, &c.ImageURL,
		&c.SupplierID, &c.CreatedAt, &c.UpdatedAt,
		&s.ID, &s.Name, &s.ContactPerson, &s.Phone, &s.Email, &s.Address,
		&s.Latitude, &s.Longitude, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCylinderNotFound
		}
		return nil, err
	}
	c.Supplier = &s
	return &c, nil
}

func (r *PGCylinderRepo) Create(ctx context.Context, c *GasCylinder) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO gas_cylinders (id, name, weight, price, description, brand,
			stock_quantity, image_url, supplier_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
	`, c.ID, c.Name, c.Weight, c.Price, c.Description, c.Brand,
		c.StockQuantity, c.ImageURL, c.SupplierID)
	return err
}

func (r *PGCylinderRepo) GetByID(ctx context.Context, id string) (*GasCylinder, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanCylinderWithSupplier(r.db.QueryRow(ctx, `
		SELECT `+cylinderJoinCols+`
		FROM gas_cylinders c
		JOIN suppliers s ON s.id = c.supplier_id
		WHERE c.id=$1
	`, id))
}

func (r *PGCylinderRepo) ListAvailable(ctx context.Context) ([]GasCylinder, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+cylinderJoinCols+`
		FROM gas_cylinders c
		JOIN suppliers s ON s.id = c.supplier_id
		WHERE c.is_available
		ORDER BY c.weight ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GasCylinder{}
	for rows.Next() {
		c, err := scanCylinderWithSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *PGCylinderRepo) Update(ctx context.Context, c *GasCylinder) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE gas_cylinders
		SET name=$2, weight=$3, price=$4, description=$5, brand=$6,
		    is_available=$7, stock_quantity=$8, image_url=$9, updated_at=NOW()
		WHERE id=$1
	`, c.ID, c.Name, c.Weight, c.Price, c.Description, c.Brand,
		c.IsAvailable, c.StockQuantity, c.ImageURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCylinderNotFound
	}
	return nil
}

func (r *PGCylinderRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM gas_cylinders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCylinderNotFound
	}
	return nil
}
