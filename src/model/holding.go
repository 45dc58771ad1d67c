package model

import (
	"database/sql"
	"time"

	"github.com/username/cryptofolio/backend/src/models"
)

// Holdings are append-and-delete only. An edit from the UI is a delete
// followed by a new insert, so rows never change after creation.

func CreateHolding(db *sql.DB, userID int64, lot *models.HoldingLot) error {
	query := `
	INSERT INTO portfolio_holdings (user_id, coin_id, quantity, purchase_price, purchase_date, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(userID, lot.CoinID, lot.Quantity, lot.PurchasePrice, lot.PurchaseDate, time.Now())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	lot.ID = id
	return nil
}

func GetHoldingsByUserID(db *sql.DB, userID int64) ([]models.HoldingLot, error) {
	query := `
	SELECT id, coin_id, quantity, purchase_price, purchase_date
	FROM portfolio_holdings
	WHERE user_id = ?
	ORDER BY created_at ASC, id ASC`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []models.HoldingLot
	for rows.Next() {
		var lot models.HoldingLot
		if err := rows.Scan(&lot.ID, &lot.CoinID, &lot.Quantity, &lot.PurchasePrice, &lot.PurchaseDate); err != nil {
			return nil, err
		}
		holdings = append(holdings, lot)
	}
	return holdings, rows.Err()
}

func DeleteHolding(db *sql.DB, userID, holdingID int64) (bool, error) {
	stmt, err := db.Prepare(`DELETE FROM portfolio_holdings WHERE id = ? AND user_id = ?`)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	res, err := stmt.Exec(holdingID, userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
