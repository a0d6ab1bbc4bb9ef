package templates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"facevault/internal/config"
	"facevault/internal/services"
)

// Store manages template persistence backed by SQLite.
type Store struct {
	db       *sql.DB
	path     string
	faceDim  int
	voiceDim int
}

// Open initializes or connects to the template database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.TemplateDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:       db,
		path:     dbPath,
		faceDim:  cfg.Matching.FaceEmbeddingDim,
		voiceDim: cfg.Matching.VoiceCoefficients,
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Exists reports whether username is fully registered (both factors committed).
func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, nil
	}
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM templates WHERE username = ?`, username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query user: %w", err)
	}
	return count > 0, nil
}

// Write persists both templates for username in one transaction. It fails
// with ErrDuplicateUser when the user is already registered and with
// ErrPersistence when the commit cannot complete; in that case neither half
// is left readable.
func (s *Store) Write(ctx context.Context, username string, faceEmbeddings [][]float64, voice VoiceTemplate) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return services.Wrap(services.ErrInvalidInput, "templates", "write", "username is empty", nil)
	}
	if len(faceEmbeddings) == 0 {
		return services.Wrap(services.ErrInvalidInput, "templates", "write", "no face embeddings", nil)
	}
	for i, emb := range faceEmbeddings {
		if len(emb) != s.faceDim {
			return services.Wrap(services.ErrInvalidInput, "templates", "write",
				fmt.Sprintf("face embedding %d has %d dimensions, expected %d", i, len(emb), s.faceDim), nil)
		}
	}
	if len(voice.Signature) != s.voiceDim {
		return services.Wrap(services.ErrInvalidInput, "templates", "write",
			fmt.Sprintf("voice signature has %d coefficients, expected %d", len(voice.Signature), s.voiceDim), nil)
	}

	faceJSON, err := json.Marshal(faceEmbeddings)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "templates", "write", "encode face embeddings", err)
	}
	voiceJSON, err := json.Marshal(voice.Signature)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "templates", "write", "encode voice signature", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "templates", "write", "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM templates WHERE username = ?`, username).Scan(&count); err != nil {
		return services.Wrap(services.ErrPersistence, "templates", "write", "check existing user", err)
	}
	if count > 0 {
		return services.Wrap(services.ErrDuplicateUser, "templates", "write",
			fmt.Sprintf("username %q is already registered", username), nil)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO templates (username, face_embeddings, voice_signature, passphrase, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		username, string(faceJSON), string(voiceJSON), voice.Passphrase, timestamp,
	)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "templates", "write", "insert templates", err)
	}

	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrPersistence, "templates", "write", "commit", err)
	}
	return nil
}

// ReadFace returns the stored face embeddings for username.
func (s *Store) ReadFace(ctx context.Context, username string) ([][]float64, error) {
	var faceJSON string
	err := s.db.QueryRowContext(ctx, `SELECT face_embeddings FROM templates WHERE username = ?`, strings.TrimSpace(username)).Scan(&faceJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrUserNotFound, "templates", "read face",
			fmt.Sprintf("username %q is not registered", username), nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "templates", "read face", "query", err)
	}

	var embeddings [][]float64
	if err := json.Unmarshal([]byte(faceJSON), &embeddings); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "templates", "read face", "decode embeddings", err)
	}
	for i, emb := range embeddings {
		if len(emb) != s.faceDim {
			return nil, services.Wrap(services.ErrInvalidInput, "templates", "read face",
				fmt.Sprintf("stored embedding %d has %d dimensions, expected %d", i, len(emb), s.faceDim), nil)
		}
	}
	return embeddings, nil
}

// ReadVoice returns the stored voice template for username.
func (s *Store) ReadVoice(ctx context.Context, username string) (VoiceTemplate, error) {
	var (
		voiceJSON  string
		passphrase string
	)
	err := s.db.QueryRowContext(ctx, `SELECT voice_signature, passphrase FROM templates WHERE username = ?`,
		strings.TrimSpace(username)).Scan(&voiceJSON, &passphrase)
	if errors.Is(err, sql.ErrNoRows) {
		return VoiceTemplate{}, services.Wrap(services.ErrUserNotFound, "templates", "read voice",
			fmt.Sprintf("username %q is not registered", username), nil)
	}
	if err != nil {
		return VoiceTemplate{}, services.Wrap(services.ErrPersistence, "templates", "read voice", "query", err)
	}

	var signature []float64
	if err := json.Unmarshal([]byte(voiceJSON), &signature); err != nil {
		return VoiceTemplate{}, services.Wrap(services.ErrPersistence, "templates", "read voice", "decode signature", err)
	}
	if len(signature) != s.voiceDim {
		return VoiceTemplate{}, services.Wrap(services.ErrInvalidInput, "templates", "read voice",
			fmt.Sprintf("stored signature has %d coefficients, expected %d", len(signature), s.voiceDim), nil)
	}
	return VoiceTemplate{Signature: signature, Passphrase: passphrase}, nil
}

// List returns all registered users ordered by username.
func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username, face_embeddings, created_at FROM templates ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var (
			user       User
			faceJSON   string
			createdRaw string
		)
		if err := rows.Scan(&user.Username, &faceJSON, &createdRaw); err != nil {
			return nil, err
		}
		var embeddings [][]float64
		if err := json.Unmarshal([]byte(faceJSON), &embeddings); err == nil {
			user.FaceCount = len(embeddings)
		}
		if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
			user.CreatedAt = created
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Delete removes a user's templates, reporting whether a row was removed.
func (s *Store) Delete(ctx context.Context, username string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE username = ?`, strings.TrimSpace(username))
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// CheckHealth returns diagnostic information about the template database.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("template database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat template database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("template database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("template database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping template database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'templates'")
	if err := row.Scan(&tableName); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM templates")
		if err := row.Scan(&health.TotalUsers); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count users: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
