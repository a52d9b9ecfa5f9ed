package persistence

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors surfaced by the stores. Services translate these into
// their own domain errors; handlers never see pg internals.
var (
	// ErrNotFound covers both genuinely absent rows and rows owned by a
	// different organization. The two must stay indistinguishable.
	ErrNotFound = errors.New("record not found")

	ErrEmailConflict     = errors.New("email already registered")
	ErrSlugConflict      = errors.New("slug already taken")
	ErrAccessKeyConflict = errors.New("access key already exists")
	ErrSKUConflict       = errors.New("sku already exists in organization")
	ErrCategoryConflict  = errors.New("category name already exists in organization")
	ErrCarrierConflict   = errors.New("carrier already configured for organization")
	ErrShopConflict      = errors.New("shop already connected for organization")

	// ErrAccessKeyExhausted means the key is missing, inactive, expired, or
	// at its usage limit at consume time.
	ErrAccessKeyExhausted = errors.New("access key is not usable")

	// ErrInsufficientStock is raised when an order would drive a product's
	// quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrRowReferenced means a delete was blocked by a RESTRICT foreign
	// key: the target exists but other rows still point at it.
	ErrRowReferenced = errors.New("row is referenced by other records")
)

// UniqueScope distinguishes the two uniqueness invariant classes in the
// schema: fields unique across the whole system versus fields unique only
// within one organization. New constraints must be assigned to one of these
// deliberately.
type UniqueScope int

const (
	// GlobalUnique fields (login email, org slug, access key) collide across
	// tenant boundaries.
	GlobalUnique UniqueScope = iota
	// TenantUnique fields (SKU, category name, carrier, shop domain) collide
	// only inside one organization; the constraint is composite with
	// organization_id.
	TenantUnique
)

type uniqueConstraint struct {
	Scope UniqueScope
	Err   error
}

// uniqueConstraints maps schema constraint names to their invariant class
// and the sentinel raised when they are violated.
var uniqueConstraints = map[string]uniqueConstraint{
	"auth_users_email_key":                 {GlobalUnique, ErrEmailConflict},
	"super_admins_email_key":               {GlobalUnique, ErrEmailConflict},
	"organizations_slug_key":               {GlobalUnique, ErrSlugConflict},
	"access_keys_key_key":                  {GlobalUnique, ErrAccessKeyConflict},
	"products_sku_per_org":                 {TenantUnique, ErrSKUConflict},
	"categories_name_per_org":              {TenantUnique, ErrCategoryConflict},
	"shipping_credentials_carrier_per_org": {TenantUnique, ErrCarrierConflict},
	"shopify_connections_domain_per_org":   {TenantUnique, ErrShopConflict},
}

// restrictConstraints maps each ON DELETE RESTRICT constraint to the parent
// table whose delete it blocks. Postgres reports the parent as the error's
// table only when the violation fires on the delete side, which is how the
// two directions of the same constraint are told apart.
var restrictConstraints = map[string]string{
	"order_items_product_id_fkey": ProductsTable,
}

// mapError translates pgx/postgres errors into store sentinels. Unknown
// errors pass through unchanged for the 500 path.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		if c, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
			return c.Err
		}
		return err
	case pgerrcode.ForeignKeyViolation:
		// Direction matters. A RESTRICT constraint firing on delete means
		// the target exists and is still referenced; a dangling reference
		// on insert or update behaves like the referenced row not existing.
		if parent, ok := restrictConstraints[pgErr.ConstraintName]; ok && pgErr.TableName == parent {
			return ErrRowReferenced
		}
		return ErrNotFound
	case pgerrcode.CheckViolation:
		switch pgErr.ConstraintName {
		case "products_stock_qty_check":
			return ErrInsufficientStock
		case "access_keys_usage_within_limit":
			return ErrAccessKeyExhausted
		}
		return err
	default:
		return err
	}
}
