package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/cemtembot/internal/domain"
)

// Postgres implements Storage on the schema in migrations/.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

type vendorRow struct {
	VendorID      string         `db:"vendor_id"`
	Name          string         `db:"name"`
	Phone         string         `db:"phone"`
	TelegramID    sql.NullString `db:"telegram_id"`
	City          string         `db:"city"`
	Materials     pq.StringArray `db:"materials"`
	IsActive      bool           `db:"is_active"`
	ResponseCount int            `db:"response_count"`
	InquiryCount  int            `db:"inquiry_count"`
	ResponseRate  float64        `db:"response_rate"`
	LastQuoted    sql.NullTime   `db:"last_quoted"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (r vendorRow) vendor() domain.Vendor {
	v := domain.Vendor{
		VendorID:      r.VendorID,
		Name:          r.Name,
		Phone:         r.Phone,
		TelegramID:    r.TelegramID.String,
		City:          r.City,
		IsActive:      r.IsActive,
		ResponseCount: r.ResponseCount,
		InquiryCount:  r.InquiryCount,
		ResponseRate:  r.ResponseRate,
		CreatedAt:     r.CreatedAt,
	}
	for _, m := range r.Materials {
		v.Materials = append(v.Materials, domain.Material(m))
	}
	if r.LastQuoted.Valid {
		t := r.LastQuoted.Time
		v.LastQuoted = &t
	}
	return v
}

type inquiryRow struct {
	InquiryID        string         `db:"inquiry_id"`
	UserName         string         `db:"user_name"`
	UserPhone        string         `db:"user_phone"`
	BuyerChannel     string         `db:"buyer_channel"`
	BuyerID          string         `db:"buyer_id"`
	Platform         string         `db:"platform"`
	Material         string         `db:"material"`
	CementCompany    string         `db:"cement_company"`
	CementTypes      pq.StringArray `db:"cement_types"`
	TMTCompany       string         `db:"tmt_company"`
	TMTSizes         pq.StringArray `db:"tmt_sizes"`
	City             string         `db:"city"`
	Quantity         string         `db:"quantity"`
	VendorsContacted pq.StringArray `db:"vendors_contacted"`
	ResponseCount    int            `db:"response_count"`
	Status           string         `db:"status"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (r inquiryRow) inquiry() domain.Inquiry {
	return domain.Inquiry{
		InquiryID:        r.InquiryID,
		UserName:         r.UserName,
		UserPhone:        r.UserPhone,
		Buyer:            domain.Address{Channel: domain.Channel(r.BuyerChannel), ID: r.BuyerID},
		Platform:         domain.Channel(r.Platform),
		Material:         domain.Material(r.Material),
		CementCompany:    r.CementCompany,
		CementTypes:      []string(r.CementTypes),
		TMTCompany:       r.TMTCompany,
		TMTSizes:         []string(r.TMTSizes),
		City:             r.City,
		Quantity:         r.Quantity,
		VendorsContacted: []string(r.VendorsContacted),
		ResponseCount:    r.ResponseCount,
		Status:           domain.InquiryStatus(r.Status),
		CreatedAt:        r.CreatedAt,
	}
}

func textArray(s []string) pq.StringArray {
	if s == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(s)
}

const vendorColumns = `vendor_id, name, phone, telegram_id, city, materials, is_active,
	response_count, inquiry_count, response_rate, last_quoted, created_at`

const inquiryColumns = `inquiry_id, user_name, user_phone, buyer_channel, buyer_id, platform, material,
	cement_company, cement_types, tmt_company, tmt_sizes, city, quantity, vendors_contacted,
	response_count, status, created_at`

func (p *Postgres) CreateVendor(ctx context.Context, v domain.Vendor) error {
	if err := Validate(v); err != nil {
		return err
	}
	materials := make(pq.StringArray, len(v.Materials))
	for i, m := range v.Materials {
		materials[i] = string(m)
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO vendors (vendor_id, name, phone, telegram_id, city, materials, is_active)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)`,
		v.VendorID, v.Name, v.Phone, v.TelegramID, v.City, materials, v.IsActive,
	)
	if err != nil {
		return fmt.Errorf("insert vendor %s: %w", v.VendorID, err)
	}
	return nil
}

func (p *Postgres) VendorsByMaterialAndCity(ctx context.Context, material domain.Material, city string) ([]domain.Vendor, error) {
	var rows []vendorRow
	err := p.db.SelectContext(ctx, &rows, `
		SELECT `+vendorColumns+`
		FROM vendors
		WHERE is_active
		  AND $1 = ANY(materials)
		  AND btrim(city) <> '' AND btrim($2) <> ''
		  AND (strpos(lower(city), lower(btrim($2))) > 0 OR strpos(lower(btrim($2)), lower(btrim(city))) > 0)
		ORDER BY created_at, vendor_id`,
		string(material), city,
	)
	if err != nil {
		return nil, fmt.Errorf("select vendors %s/%s: %w", material, city, err)
	}
	out := make([]domain.Vendor, len(rows))
	for i, r := range rows {
		out[i] = r.vendor()
	}
	return out, nil
}

func (p *Postgres) VendorByChannelID(ctx context.Context, id string) (domain.Vendor, error) {
	return p.getVendor(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE telegram_id = $1 ORDER BY created_at LIMIT 1`, id)
}

func (p *Postgres) Vendor(ctx context.Context, vendorID string) (domain.Vendor, error) {
	return p.getVendor(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE vendor_id = $1`, vendorID)
}

func (p *Postgres) getVendor(ctx context.Context, query, arg string) (domain.Vendor, error) {
	var row vendorRow
	if err := p.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Vendor{}, ErrNotFound
		}
		return domain.Vendor{}, fmt.Errorf("get vendor %s: %w", arg, err)
	}
	return row.vendor(), nil
}

func (p *Postgres) UpdateVendor(ctx context.Context, vendorID string, patch domain.VendorPatch) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE vendors SET
			last_quoted    = COALESCE($2, last_quoted),
			response_count = COALESCE($3, response_count),
			inquiry_count  = COALESCE($4, inquiry_count),
			response_rate  = COALESCE($5, response_rate),
			is_active      = COALESCE($6, is_active)
		WHERE vendor_id = $1`,
		vendorID, patch.LastQuoted, patch.ResponseCount, patch.InquiryCount, patch.ResponseRate, patch.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update vendor %s: %w", vendorID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateInquiry(ctx context.Context, inq domain.Inquiry) error {
	if err := Validate(inq); err != nil {
		return err
	}
	row := inquiryRow{
		InquiryID:        inq.InquiryID,
		UserName:         inq.UserName,
		UserPhone:        inq.UserPhone,
		BuyerChannel:     string(inq.Buyer.Channel),
		BuyerID:          inq.Buyer.ID,
		Platform:         string(inq.Platform),
		Material:         string(inq.Material),
		CementCompany:    inq.CementCompany,
		CementTypes:      textArray(inq.CementTypes),
		TMTCompany:       inq.TMTCompany,
		TMTSizes:         textArray(inq.TMTSizes),
		City:             inq.City,
		Quantity:         inq.Quantity,
		VendorsContacted: textArray(inq.VendorsContacted),
		ResponseCount:    inq.ResponseCount,
		Status:           string(inq.Status),
	}
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO inquiries (inquiry_id, user_name, user_phone, buyer_channel, buyer_id, platform, material,
			cement_company, cement_types, tmt_company, tmt_sizes, city, quantity, vendors_contacted,
			response_count, status)
		VALUES (:inquiry_id, :user_name, :user_phone, :buyer_channel, :buyer_id, :platform, :material,
			:cement_company, :cement_types, :tmt_company, :tmt_sizes, :city, :quantity, :vendors_contacted,
			:response_count, :status)`, row)
	if err != nil {
		return fmt.Errorf("insert inquiry %s: %w", inq.InquiryID, err)
	}
	return nil
}

func (p *Postgres) Inquiry(ctx context.Context, inquiryID string) (domain.Inquiry, error) {
	var row inquiryRow
	err := p.db.GetContext(ctx, &row, `SELECT `+inquiryColumns+` FROM inquiries WHERE inquiry_id = $1`, inquiryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Inquiry{}, ErrNotFound
		}
		return domain.Inquiry{}, fmt.Errorf("get inquiry %s: %w", inquiryID, err)
	}
	return row.inquiry(), nil
}

func (p *Postgres) IncrementInquiryResponses(ctx context.Context, inquiryID string) (int, error) {
	var n int
	err := p.db.GetContext(ctx, &n, `
		UPDATE inquiries
		SET response_count = response_count + 1,
		    status = CASE WHEN status = 'pending' THEN 'responded' ELSE status END
		WHERE inquiry_id = $1
		RETURNING response_count`, inquiryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("increment inquiry %s: %w", inquiryID, err)
	}
	return n, nil
}

func (p *Postgres) CreatePriceResponse(ctx context.Context, pr *domain.PriceResponse) error {
	if err := Validate(pr); err != nil {
		return err
	}
	err := p.db.QueryRowxContext(ctx, `
		INSERT INTO price_responses (vendor_id, inquiry_id, material, price, gst, delivery_charge)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		pr.VendorID, pr.InquiryID, pr.Material, pr.Price, pr.GST, pr.DeliveryCharge,
	).Scan(&pr.ID, &pr.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert price response %s/%s: %w", pr.InquiryID, pr.VendorID, err)
	}
	return nil
}

func (p *Postgres) PriceResponsesByInquiry(ctx context.Context, inquiryID string) ([]domain.PriceResponse, error) {
	var out []domain.PriceResponse
	err := p.db.SelectContext(ctx, &out, `
		SELECT id, vendor_id, inquiry_id, material, price, gst, delivery_charge, created_at
		FROM price_responses
		WHERE inquiry_id = $1
		ORDER BY id`, inquiryID)
	if err != nil {
		return nil, fmt.Errorf("select price responses %s: %w", inquiryID, err)
	}
	return out, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
