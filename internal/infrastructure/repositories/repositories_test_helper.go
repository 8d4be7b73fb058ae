package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func mustParseUUID(s string) uuid.UUID {
	return uuid.MustParse(s)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createKYCVerificationTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE kyc_verifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL,
		current_step TEXT NOT NULL,
		completed_steps TEXT,
		identity_verification TEXT,
		phone_verification TEXT,
		phone_attempts INTEGER DEFAULT 0,
		business_verification TEXT,
		risk_assessment TEXT,
		metadata TEXT,
		rejection_reason TEXT,
		completed_at DATETIME,
		expires_at DATETIME NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}

func createCreditApplicationTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE credit_applications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		application_number TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		progress INTEGER DEFAULT 0,
		requested_amount TEXT NOT NULL,
		purpose TEXT NOT NULL,
		bank_connection TEXT,
		financial_analysis TEXT,
		identity_verification TEXT,
		credit_scoring TEXT,
		decision TEXT,
		submitted_at DATETIME,
		reviewed_at DATETIME,
		expires_at DATETIME NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}
