package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SQLite移行前はJSONファイルにレコードを保存していた。
// 初回起動時に一度だけ取り込み、metaテーブルで完了を記録する。

type legacyOrder struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Service        string `json:"service"`
	DeliveryMethod string `json:"deliveryMethod"`
	Address        string `json:"address"`
	Details        string `json:"details"`
	Status         string `json:"status"`
	AdminNotes     string `json:"adminNotes"`
	CreatedAt      string `json:"createdAt"`
}

type legacyMessage struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Interest   string `json:"interest"`
	SiteType   string `json:"siteType"`
	Message    string `json:"message"`
	Status     string `json:"status"`
	AdminNotes string `json:"adminNotes"`
	Timestamp  string `json:"timestamp"`
	CreatedAt  string `json:"createdAt"`
}

func importLegacyJSON(db *sql.DB, dataDir string) error {
	imported, err := getMeta(db, "json_imported")
	if err != nil {
		return fmt.Errorf("failed to read import marker: %w", err)
	}
	if imported == "true" {
		return nil
	}

	var orders []legacyOrder
	readJSONFile(filepath.Join(dataDir, "orders.json"), &orders)
	var messages []legacyMessage
	readJSONFile(filepath.Join(dataDir, "messages.json"), &messages)

	for _, o := range orders {
		_, err := db.Exec(`
			INSERT OR IGNORE INTO orders
			(id, name, email, phone, service, delivery_method, address, details, status, admin_notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullableID(o.ID), o.Name, o.Email, o.Phone, o.Service, o.DeliveryMethod,
			o.Address, o.Details, defaultString(o.Status, "new"), o.AdminNotes,
			defaultString(o.CreatedAt, time.Now().UTC().Format(time.RFC3339)),
		)
		if err != nil {
			return fmt.Errorf("failed to import legacy order: %w", err)
		}
	}

	for _, m := range messages {
		createdAt := m.CreatedAt
		if createdAt == "" {
			createdAt = m.Timestamp
		}
		_, err := db.Exec(`
			INSERT OR IGNORE INTO messages
			(id, name, email, interest, site_type, message, status, admin_notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullableID(m.ID), m.Name, m.Email, m.Interest, m.SiteType, m.Message,
			defaultString(m.Status, "new"), m.AdminNotes,
			defaultString(createdAt, time.Now().UTC().Format(time.RFC3339)),
		)
		if err != nil {
			return fmt.Errorf("failed to import legacy message: %w", err)
		}
	}

	return setMeta(db, "json_imported", "true")
}

// readJSONFile はファイルが存在しない・壊れている場合を空扱いにします。
func readJSONFile(path string, dest any) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, dest)
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
