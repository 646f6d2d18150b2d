package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=test dbname=test sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func TestPaymentQuery(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var row paymentRow
		return paymentQuery(tx, "pay_123").Scan(&row)
	})

	assert.Contains(t, sql, "FROM payments AS p")
	assert.Contains(t, sql, "LEFT JOIN shopifyintegration s ON p.tenants_tntid = s.tenantid")
	assert.Contains(t, sql, "p.paymentid = 'pay_123'")
	assert.Contains(t, sql, "LIMIT 1")
}

func TestCredentialsQuery(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var row shopIntegration
		return credentialsQuery(tx, "tenant-9").Find(&row)
	})

	assert.Contains(t, sql, `FROM "shopifyintegration"`)
	assert.Contains(t, sql, "tenantid = 'tenant-9'")
}
