package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"Pandemic/internal/contagion/app/port"
	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/contagion/entity"
	"Pandemic/modules/kit/errx"

	_ "modernc.org/sqlite"
)

const (
	OpAppendEvent = "repo.sqlite_journal.Append"
	timeFormat    = time.RFC3339Nano
)

// JournalRepo 单机部署时把规则事件写进本地 SQLite 文件，表结构与 MySQL 版一致。
type JournalRepo struct {
	db *sql.DB
}

// Open 打开（必要时创建）事件库。path 为 ":memory:" 时只在进程内有效。
func Open(path string) (*JournalRepo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal: %w", err)
	}
	// 单连接：内存库每个连接是独立的库，文件库也避免写锁竞争
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite journal: %w", err)
	}
	repo := &JournalRepo{db: db}
	if err := repo.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *JournalRepo) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contagion_event (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			amount INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_game_seq ON contagion_event (game_id, seq);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate contagion_event: %w", err)
		}
	}
	return nil
}

func (r *JournalRepo) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *JournalRepo) ForGame(id entity.GameID) port.Journal {
	return &gameJournal{db: r.db, gameID: id}
}

// Events 按序号读取一局的全部事件。
func (r *JournalRepo) Events(ctx context.Context, id entity.GameID) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, kind, city, color, amount, created_at FROM contagion_event WHERE game_id = ? ORDER BY seq ASC, id ASC`,
		string(id))
	if err != nil {
		return nil, errx.ErrUnavailable.WithData("op", "repo.sqlite_journal.Events").WithCause(err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var (
			e                 domain.Event
			kind, city, color string
			at                string
		)
		if err := rows.Scan(&e.Seq, &kind, &city, &color, &e.Amount, &at); err != nil {
			return nil, errx.ErrInternal.WithData("op", "repo.sqlite_journal.Events").WithCause(err)
		}
		e.Kind = domain.EventKind(kind)
		e.City = domain.CityID(city)
		e.Color = domain.Color(color)
		if t, err := time.Parse(timeFormat, at); err == nil {
			e.At = t
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.ErrUnavailable.WithData("op", "repo.sqlite_journal.Events").WithCause(err)
	}
	return out, nil
}

type gameJournal struct {
	db     *sql.DB
	gameID entity.GameID
}

func (j *gameJournal) Append(ctx context.Context, e domain.Event) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO contagion_event (game_id, seq, kind, city, color, amount, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(j.gameID), e.Seq, string(e.Kind), string(e.City), string(e.Color), e.Amount, e.At.UTC().Format(timeFormat),
	)
	if err != nil {
		return errx.ErrUnavailable.
			WithData("op", OpAppendEvent).
			WithData("game_id", j.gameID).
			WithData("seq", e.Seq).
			WithCause(err)
	}
	return nil
}
