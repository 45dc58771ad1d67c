package model

import (
	"database/sql"
	"time"

	"github.com/username/cryptofolio/backend/src/models"
)

func CreateAlert(db *sql.DB, alert *models.PriceAlert) error {
	query := `
	INSERT INTO price_alerts (user_id, coin_id, price, condition, created_at)
	VALUES (?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(alert.UserID, alert.CoinID, alert.Price, alert.Condition, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	alert.ID = id
	alert.CreatedAt = now.Format(time.RFC3339)
	return nil
}

func GetAlertsByUserID(db *sql.DB, userID int64) ([]models.PriceAlert, error) {
	query := `
	SELECT id, user_id, coin_id, price, condition, created_at
	FROM price_alerts
	WHERE user_id = ?
	ORDER BY created_at DESC, id DESC`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.PriceAlert
	for rows.Next() {
		var a models.PriceAlert
		if err := rows.Scan(&a.ID, &a.UserID, &a.CoinID, &a.Price, &a.Condition, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func DeleteAlert(db *sql.DB, userID, alertID int64) (bool, error) {
	stmt, err := db.Prepare(`DELETE FROM price_alerts WHERE id = ? AND user_id = ?`)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	res, err := stmt.Exec(alertID, userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
