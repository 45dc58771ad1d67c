package model

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cryptofolio/backend/src/models"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    auth_provider TEXT NOT NULL DEFAULT 'local',
    login_count INTEGER NOT NULL DEFAULT 0,
    last_login_at TIMESTAMP,
    last_login_ip TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    token TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    user_agent TEXT,
    client_ip TEXT,
    is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE portfolio_holdings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    coin_id TEXT NOT NULL,
    quantity REAL NOT NULL,
    purchase_price REAL NOT NULL,
    purchase_date TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE price_alerts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    coin_id TEXT NOT NULL,
    price REAL NOT NULL,
    condition TEXT NOT NULL CHECK (condition IN ('above', 'below')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db
}

func createTestUser(t *testing.T, db *sql.DB) *User {
	t.Helper()
	user := &User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, user.HashPassword("secret123"))
	require.NoError(t, user.CreateUser(db))
	return user
}

func TestUserCreateAndLookup(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	require.NotZero(t, user.ID)

	byEmail, err := GetUserByEmail(db, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "local", byEmail.AuthProvider)
	assert.NoError(t, byEmail.CheckPassword("secret123"))
	assert.Error(t, byEmail.CheckPassword("wrong"))

	byUsername, err := GetUserByUsername(db, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUsername.ID)

	_, err = GetUserByEmail(db, "nobody@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)

	session := &Session{
		UserID:       user.ID,
		Token:        "access-token",
		RefreshToken: "refresh-token",
		UserAgent:    "test-agent",
		ClientIP:     "127.0.0.1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	require.NoError(t, CreateSession(db, session))

	got, err := GetSessionByToken(db, "access-token")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)

	got, err = GetSessionByRefreshToken(db, "refresh-token")
	require.NoError(t, err)
	assert.Equal(t, "access-token", got.Token)

	require.NoError(t, DeleteSessionByRefreshToken(db, "refresh-token"))
	_, err = GetSessionByToken(db, "access-token")
	assert.Error(t, err)
}

func TestExpiredSessionIsInvisible(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)

	session := &Session{
		UserID:       user.ID,
		Token:        "stale-token",
		RefreshToken: "stale-refresh",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	require.NoError(t, CreateSession(db, session))

	_, err := GetSessionByToken(db, "stale-token")
	assert.Error(t, err)
}

func TestHoldingsOrderAndDelete(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)

	first := &models.HoldingLot{CoinID: "bitcoin", Quantity: 0.5, PurchasePrice: 48000, PurchaseDate: "2024-01-01"}
	second := &models.HoldingLot{CoinID: "ethereum", Quantity: 3.2, PurchasePrice: 2500, PurchaseDate: "2024-02-01"}
	require.NoError(t, CreateHolding(db, user.ID, first))
	require.NoError(t, CreateHolding(db, user.ID, second))

	holdings, err := GetHoldingsByUserID(db, user.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	// Insertion order is preserved.
	assert.Equal(t, "bitcoin", holdings[0].CoinID)
	assert.Equal(t, "ethereum", holdings[1].CoinID)

	deleted, err := DeleteHolding(db, user.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Deleting again, or as another user, affects nothing.
	deleted, err = DeleteHolding(db, user.ID, first.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = DeleteHolding(db, user.ID+1, second.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	holdings, err = GetHoldingsByUserID(db, user.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "ethereum", holdings[0].CoinID)
}

func TestAlertLifecycle(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)

	alert := &models.PriceAlert{UserID: user.ID, CoinID: "bitcoin", Price: 60000, Condition: "above"}
	require.NoError(t, CreateAlert(db, alert))
	require.NotZero(t, alert.ID)
	assert.NotEmpty(t, alert.CreatedAt)

	other := &models.PriceAlert{UserID: user.ID, CoinID: "ethereum", Price: 2000, Condition: "below"}
	require.NoError(t, CreateAlert(db, other))

	alerts, err := GetAlertsByUserID(db, user.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	// Newest first.
	assert.Equal(t, "ethereum", alerts[0].CoinID)

	deleted, err := DeleteAlert(db, user.ID, alert.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = DeleteAlert(db, user.ID, alert.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestAlertConditionConstraint(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)

	bad := &models.PriceAlert{UserID: user.ID, CoinID: "bitcoin", Price: 60000, Condition: "sideways"}
	assert.Error(t, CreateAlert(db, bad))
}
