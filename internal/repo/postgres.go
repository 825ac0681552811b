package repo

import (
    "context"
    "errors"
    "time"

    "github.com/Reventlow/fynbus-chronicle/internal/config"
    "github.com/Reventlow/fynbus-chronicle/internal/domain"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"
)

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { log.Fatal().Err(err).Msg("db connect failed") }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil { log.Fatal().Err(err).Msg("db ping failed") }
    return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

var schema = []string{
    `CREATE TABLE IF NOT EXISTS weeklogs(
        id BIGSERIAL PRIMARY KEY,
        year INT NOT NULL,
        week_number INT NOT NULL,
        tickets_created INT NOT NULL DEFAULT 0,
        tickets_closed INT NOT NULL DEFAULT 0,
        tickets_open INT NOT NULL DEFAULT 0,
        summary TEXT NOT NULL DEFAULT '',
        meeting_skipped BOOLEAN NOT NULL DEFAULT false,
        meeting_skipped_reason TEXT NOT NULL DEFAULT '',
        meeting_attendees TEXT NOT NULL DEFAULT '',
        meeting_minutes TEXT NOT NULL DEFAULT '',
        created_by TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        UNIQUE(year, week_number))`,
    `CREATE TABLE IF NOT EXISTS priority_items(
        id BIGSERIAL PRIMARY KEY,
        weeklog_id BIGINT NOT NULL REFERENCES weeklogs(id) ON DELETE CASCADE,
        title TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        priority TEXT NOT NULL DEFAULT 'medium',
        status TEXT NOT NULL DEFAULT 'not_started',
        notes TEXT NOT NULL DEFAULT '',
        sort_order INT NOT NULL DEFAULT 0,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now())`,
    `CREATE TABLE IF NOT EXISTS absences(
        id BIGSERIAL PRIMARY KEY,
        weeklog_id BIGINT NOT NULL REFERENCES weeklogs(id) ON DELETE CASCADE,
        staff_name TEXT NOT NULL,
        absence_type TEXT NOT NULL DEFAULT 'other',
        start_date DATE NOT NULL,
        end_date DATE NOT NULL,
        notes TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL DEFAULT now())`,
    `CREATE TABLE IF NOT EXISTS incidents(
        id BIGSERIAL PRIMARY KEY,
        weeklog_id BIGINT NOT NULL REFERENCES weeklogs(id) ON DELETE CASCADE,
        title TEXT NOT NULL,
        incident_type TEXT NOT NULL DEFAULT 'other',
        severity TEXT NOT NULL DEFAULT 'medium',
        description TEXT NOT NULL DEFAULT '',
        resolution TEXT NOT NULL DEFAULT '',
        occurred_at TIMESTAMPTZ NOT NULL,
        resolved BOOLEAN NOT NULL DEFAULT false,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now())`,
    `CREATE TABLE IF NOT EXISTS oncall_duties(
        id BIGSERIAL PRIMARY KEY,
        year INT NOT NULL,
        week_number INT NOT NULL,
        staff_name TEXT NOT NULL,
        notes TEXT NOT NULL DEFAULT '',
        UNIQUE(year, week_number))`,
    `CREATE TABLE IF NOT EXISTS sync_runs(
        id BIGSERIAL PRIMARY KEY,
        year INT NOT NULL,
        week_number INT NOT NULL,
        started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        finished_at TIMESTAMPTZ,
        created_ok BOOLEAN NOT NULL DEFAULT false,
        closed_ok BOOLEAN NOT NULL DEFAULT false,
        open_ok BOOLEAN NOT NULL DEFAULT false,
        success BOOLEAN NOT NULL DEFAULT false,
        error TEXT NOT NULL DEFAULT '')`,
}

// EnsureSchema creates the tables on startup. Idempotent; the service
// owns its schema the same way a migration-less deployment would.
func (r *Repository) EnsureSchema(ctx context.Context) error {
    for _, q := range schema {
        if _, err := r.db.Pool.Exec(ctx, q); err != nil { return err }
    }
    return nil
}

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
    return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
    if !ok && err == nil { return errors.New("advisory unlock returned false") }
    return err
}

const weeklogCols = `id, year, week_number, tickets_created, tickets_closed, tickets_open,
    summary, meeting_skipped, meeting_skipped_reason, meeting_attendees, meeting_minutes,
    created_by, created_at, updated_at`

func scanWeekLog(row pgx.Row) (domain.WeekLog, error) {
    var wl domain.WeekLog
    err := row.Scan(&wl.ID, &wl.Period.Year, &wl.Period.Week,
        &wl.Stats.Created, &wl.Stats.Closed, &wl.Stats.Open,
        &wl.Summary, &wl.MeetingSkipped, &wl.MeetingSkippedReason,
        &wl.MeetingAttendees, &wl.MeetingMinutes,
        &wl.CreatedBy, &wl.CreatedAt, &wl.UpdatedAt)
    return wl, err
}

// GetWeekLog fetches the record for one week. pgx.ErrNoRows when absent.
func (r *Repository) GetWeekLog(ctx context.Context, p domain.WeekPeriod) (domain.WeekLog, error) {
    row := r.db.Pool.QueryRow(ctx,
        `SELECT `+weeklogCols+` FROM weeklogs WHERE year=$1 AND week_number=$2`, p.Year, p.Week)
    return scanWeekLog(row)
}

// GetOrCreateWeekLog returns the existing record or inserts an empty one.
// The (year, week_number) unique constraint makes concurrent creators
// converge on a single row.
func (r *Repository) GetOrCreateWeekLog(ctx context.Context, p domain.WeekPeriod, createdBy string) (domain.WeekLog, error) {
    wl, err := r.GetWeekLog(ctx, p)
    if err == nil { return wl, nil }
    if !errors.Is(err, pgx.ErrNoRows) { return domain.WeekLog{}, err }

    row := r.db.Pool.QueryRow(ctx, `
        INSERT INTO weeklogs(year, week_number, created_by) VALUES($1,$2,$3)
        ON CONFLICT(year, week_number) DO UPDATE SET year=EXCLUDED.year
        RETURNING `+weeklogCols, p.Year, p.Week, createdBy)
    return scanWeekLog(row)
}

// UpdateTicketStats writes only the three counters and the update stamp.
// Narrative fields are owned by humans and must survive every sync.
func (r *Repository) UpdateTicketStats(ctx context.Context, id int64, s domain.TicketStats) error {
    _, err := r.db.Pool.Exec(ctx, `
        UPDATE weeklogs SET tickets_created=$2, tickets_closed=$3, tickets_open=$4, updated_at=now()
        WHERE id=$1`, id, s.Created, s.Closed, s.Open)
    return err
}

func (r *Repository) ListPriorityItems(ctx context.Context, weeklogID int64) ([]domain.PriorityItem, error) {
    rows, err := r.db.Pool.Query(ctx, `
        SELECT id, weeklog_id, title, description, priority, status, notes, sort_order, created_at, updated_at
        FROM priority_items WHERE weeklog_id=$1
        ORDER BY sort_order, CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, title`, weeklogID)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.PriorityItem
    for rows.Next() {
        var it domain.PriorityItem
        if err := rows.Scan(&it.ID, &it.WeekLogID, &it.Title, &it.Description, &it.Priority,
            &it.Status, &it.Notes, &it.Order, &it.CreatedAt, &it.UpdatedAt); err != nil { return nil, err }
        out = append(out, it)
    }
    return out, rows.Err()
}

func (r *Repository) ListAbsences(ctx context.Context, weeklogID int64) ([]domain.Absence, error) {
    rows, err := r.db.Pool.Query(ctx, `
        SELECT id, weeklog_id, staff_name, absence_type, start_date, end_date, notes, created_at
        FROM absences WHERE weeklog_id=$1 ORDER BY start_date, staff_name`, weeklogID)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.Absence
    for rows.Next() {
        var a domain.Absence
        if err := rows.Scan(&a.ID, &a.WeekLogID, &a.StaffName, &a.Type,
            &a.StartDate, &a.EndDate, &a.Notes, &a.CreatedAt); err != nil { return nil, err }
        out = append(out, a)
    }
    return out, rows.Err()
}

func (r *Repository) ListIncidents(ctx context.Context, weeklogID int64) ([]domain.Incident, error) {
    rows, err := r.db.Pool.Query(ctx, `
        SELECT id, weeklog_id, title, incident_type, severity, description, resolution,
            occurred_at, resolved, created_at, updated_at
        FROM incidents WHERE weeklog_id=$1 ORDER BY occurred_at DESC`, weeklogID)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.Incident
    for rows.Next() {
        var in domain.Incident
        if err := rows.Scan(&in.ID, &in.WeekLogID, &in.Title, &in.Type, &in.Severity,
            &in.Description, &in.Resolution, &in.OccurredAt, &in.Resolved,
            &in.CreatedAt, &in.UpdatedAt); err != nil { return nil, err }
        out = append(out, in)
    }
    return out, rows.Err()
}

// OnCallFor returns the duty for the week, or nil when none is assigned.
func (r *Repository) OnCallFor(ctx context.Context, p domain.WeekPeriod) (*domain.OnCallDuty, error) {
    row := r.db.Pool.QueryRow(ctx, `
        SELECT id, year, week_number, staff_name, notes
        FROM oncall_duties WHERE year=$1 AND week_number=$2`, p.Year, p.Week)
    var d domain.OnCallDuty
    if err := row.Scan(&d.ID, &d.Period.Year, &d.Period.Week, &d.StaffName, &d.Notes); err != nil {
        if errors.Is(err, pgx.ErrNoRows) { return nil, nil }
        return nil, err
    }
    return &d, nil
}

// TrendSeries returns up to limit weeks of counters ending at p,
// chronological order. Weeks that were never logged simply do not
// appear; the series is of recorded weeks, not of calendar weeks.
func (r *Repository) TrendSeries(ctx context.Context, p domain.WeekPeriod, limit int) ([]domain.TrendPoint, error) {
    rows, err := r.db.Pool.Query(ctx, `
        SELECT year, week_number, tickets_created, tickets_closed, tickets_open
        FROM weeklogs
        WHERE (year < $1) OR (year = $1 AND week_number <= $2)
        ORDER BY year DESC, week_number DESC LIMIT $3`, p.Year, p.Week, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.TrendPoint
    for rows.Next() {
        var tp domain.TrendPoint
        if err := rows.Scan(&tp.Period.Year, &tp.Period.Week, &tp.Created, &tp.Closed, &tp.Open); err != nil { return nil, err }
        out = append(out, tp)
    }
    if err := rows.Err(); err != nil { return nil, err }
    for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 { out[i], out[j] = out[j], out[i] }
    return out, nil
}

// Sync runs

func (r *Repository) StartSyncRun(ctx context.Context, p domain.WeekPeriod) (int64, error) {
    const q = `INSERT INTO sync_runs(year, week_number, started_at, success) VALUES($1,$2,now(),false) RETURNING id`
    var id int64
    if err := r.db.Pool.QueryRow(ctx, q, p.Year, p.Week).Scan(&id); err != nil { return 0, err }
    return id, nil
}

func (r *Repository) FinishSyncRun(ctx context.Context, id int64, createdOK, closedOK, openOK, success bool, errStr string) error {
    const q = `UPDATE sync_runs SET finished_at=now(), created_ok=$2, closed_ok=$3, open_ok=$4, success=$5, error=$6 WHERE id=$1`
    _, err := r.db.Pool.Exec(ctx, q, id, createdOK, closedOK, openOK, success, errStr)
    return err
}

type LastSync struct {
    Year       int        `json:"year"`
    Week       int        `json:"week"`
    StartedAt  time.Time  `json:"started_at"`
    FinishedAt *time.Time `json:"finished_at"`
    CreatedOK  bool       `json:"created_ok"`
    ClosedOK   bool       `json:"closed_ok"`
    OpenOK     bool       `json:"open_ok"`
    Success    bool       `json:"success"`
    Error      string     `json:"error"`
}

func (r *Repository) GetLastSync(ctx context.Context) (*LastSync, error) {
    const q = `SELECT year, week_number, started_at, finished_at,
        coalesce(created_ok,false), coalesce(closed_ok,false), coalesce(open_ok,false),
        coalesce(success,false), coalesce(error,'')
        FROM sync_runs ORDER BY id DESC LIMIT 1`
    row := r.db.Pool.QueryRow(ctx, q)
    ls := &LastSync{}
    if err := row.Scan(&ls.Year, &ls.Week, &ls.StartedAt, &ls.FinishedAt,
        &ls.CreatedOK, &ls.ClosedOK, &ls.OpenOK, &ls.Success, &ls.Error); err != nil {
        return nil, err
    }
    return ls, nil
}
