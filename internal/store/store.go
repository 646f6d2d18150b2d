// Package store reads payment records and shop credentials from the
// relational payments replica.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

var (
	// ErrPaymentNotFound is returned when no payment matches the identifier.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrNoCredentials is returned when a tenant has no shop integration.
	ErrNoCredentials = errors.New("shop credentials not found")
)

// Connect opens and validates a Postgres-backed GORM connection pool.
func Connect(ctx context.Context, databaseURL string, maxConns int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns / 2)
	}
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	slog.Default().InfoContext(ctx, "postgres connect completed", "component", "store")
	return db, nil
}

// Store is a read-only view over the payments tables.
type Store struct {
	db *gorm.DB
}

// New wraps a GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

type paymentRow struct {
	PaymentID         string `gorm:"column:paymentid"`
	TenantID          string `gorm:"column:tenant_id"`
	ExternalReference string `gorm:"column:externalreference"`
	ShopName          string `gorm:"column:shopname"`
	PayerMobile       string `gorm:"column:payer_mobile"`
}

type shopIntegration struct {
	TenantID    string `gorm:"column:tenantid"`
	ShopName    string `gorm:"column:shopname"`
	AccessToken string `gorm:"column:accesstoken"`
}

func (shopIntegration) TableName() string {
	return "shopifyintegration"
}

func paymentQuery(db *gorm.DB, paymentID string) *gorm.DB {
	return db.Table("payments AS p").
		Select("p.paymentid, p.tenants_tntid AS tenant_id, p.externalreference, s.shopname, p.payer_mobile").
		Joins("LEFT JOIN shopifyintegration s ON p.tenants_tntid = s.tenantid").
		Where("p.paymentid = ?", paymentID).
		Limit(1)
}

func credentialsQuery(db *gorm.DB, tenantID string) *gorm.DB {
	return db.Model(&shopIntegration{}).Where("tenantid = ?", tenantID).Limit(1)
}

// PaymentInfo returns the tenant, order id, shop and payer phone behind a payment.
func (s *Store) PaymentInfo(ctx context.Context, paymentID string) (domain.PaymentInfo, error) {
	var row paymentRow
	res := paymentQuery(s.db.WithContext(ctx), paymentID).Scan(&row)
	if res.Error != nil {
		return domain.PaymentInfo{}, fmt.Errorf("query payment %s: %w", paymentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.PaymentInfo{}, fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
	}
	return domain.PaymentInfo{
		PaymentID:         row.PaymentID,
		TenantID:          row.TenantID,
		ExternalReference: row.ExternalReference,
		ShopName:          strings.TrimSpace(strings.TrimSuffix(row.ShopName, ".myshopify.com")),
		PayerMobile:       row.PayerMobile,
	}, nil
}

// ShopCredentials returns the admin API credentials of a tenant's shop.
func (s *Store) ShopCredentials(ctx context.Context, tenantID string) (domain.ShopCredentials, error) {
	var row shopIntegration
	res := credentialsQuery(s.db.WithContext(ctx), tenantID).Find(&row)
	if res.Error != nil {
		return domain.ShopCredentials{}, fmt.Errorf("query shop credentials for tenant %s: %w", tenantID, res.Error)
	}
	if res.RowsAffected == 0 || row.AccessToken == "" {
		return domain.ShopCredentials{}, fmt.Errorf("%w: tenant %s", ErrNoCredentials, tenantID)
	}
	return domain.ShopCredentials{ShopName: row.ShopName, AccessToken: row.AccessToken}, nil
}

// Ping checks connectivity to the database.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("gorm sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
