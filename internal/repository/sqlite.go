package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the reference Repository implementation, grounded
// on the raw-SQL-over-modernc.org/sqlite style the rest of this codebase's
// ancestor used.
type SQLiteRepository struct {
	db *sql.DB
}

// Open opens the database at path, enables WAL mode and runs migrations.
func Open(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the underlying connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS cameras (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			enabled INTEGER DEFAULT 1,
			motion_enabled INTEGER DEFAULT 1,
			save_screenshot INTEGER DEFAULT 1,
			send_email INTEGER DEFAULT 0,
			send_chat INTEGER DEFAULT 0,
			send_chat_video INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS zones (
			camera_id TEXT PRIMARY KEY,
			x1 INTEGER, y1 INTEGER,
			x2 INTEGER, y2 INTEGER,
			x3 INTEGER, y3 INTEGER,
			x4 INTEGER, y4 INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS notification_subscribers (
			camera_id TEXT NOT NULL,
			subscriber_id TEXT NOT NULL,
			PRIMARY KEY (camera_id, subscriber_id)
		)`,
		`ALTER TABLE cameras ADD COLUMN send_chat_video INTEGER DEFAULT 0`,
	}

	for _, m := range migrations {
		if _, err := r.db.Exec(m); err != nil {
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) ListCameras(ctx context.Context) ([]CameraConfig, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, url, enabled, motion_enabled,
		save_screenshot, send_email, send_chat, send_chat_video FROM cameras`)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []CameraConfig
	for rows.Next() {
		var c CameraConfig
		if err := rows.Scan(&c.ID, &c.URL, &c.Enabled, &c.MotionEnabled,
			&c.SaveScreenshot, &c.SendEmail, &c.SendChat, &c.SendChatVideo); err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		cameras = append(cameras, c)
	}
	return cameras, rows.Err()
}

func (r *SQLiteRepository) GetCamera(ctx context.Context, id string) (CameraConfig, error) {
	var c CameraConfig
	row := r.db.QueryRowContext(ctx, `SELECT id, url, enabled, motion_enabled,
		save_screenshot, send_email, send_chat, send_chat_video FROM cameras WHERE id = ?`, id)
	err := row.Scan(&c.ID, &c.URL, &c.Enabled, &c.MotionEnabled,
		&c.SaveScreenshot, &c.SendEmail, &c.SendChat, &c.SendChatVideo)
	if err == sql.ErrNoRows {
		return CameraConfig{}, fmt.Errorf("camera %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return CameraConfig{}, fmt.Errorf("get camera: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetZone(ctx context.Context, cameraID string) (Zone, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT x1, y1, x2, y2, x3, y3, x4, y4
		FROM zones WHERE camera_id = ?`, cameraID)
	var z Zone
	z.CameraID = cameraID
	err := row.Scan(&z.Points[0].X, &z.Points[0].Y, &z.Points[1].X, &z.Points[1].Y,
		&z.Points[2].X, &z.Points[2].Y, &z.Points[3].X, &z.Points[3].Y)
	if err == sql.ErrNoRows {
		return Zone{}, false, nil
	}
	if err != nil {
		return Zone{}, false, fmt.Errorf("get zone: %w", err)
	}
	return z, true, nil
}

func (r *SQLiteRepository) UpdateZone(ctx context.Context, zone Zone) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO zones
		(camera_id, x1, y1, x2, y2, x3, y3, x4, y4) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(camera_id) DO UPDATE SET
			x1=excluded.x1, y1=excluded.y1, x2=excluded.x2, y2=excluded.y2,
			x3=excluded.x3, y3=excluded.y3, x4=excluded.x4, y4=excluded.y4`,
		zone.CameraID,
		zone.Points[0].X, zone.Points[0].Y, zone.Points[1].X, zone.Points[1].Y,
		zone.Points[2].X, zone.Points[2].Y, zone.Points[3].X, zone.Points[3].Y)
	if err != nil {
		return fmt.Errorf("update zone: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListNotificationSubscribers(ctx context.Context, cameraID string) ([]Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT camera_id, subscriber_id
		FROM notification_subscribers WHERE camera_id = ?`, cameraID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(&s.CameraID, &s.ID); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
