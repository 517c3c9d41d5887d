package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/evertix/ticketing/internal/model"
)

// ErrEventNotFound is returned when an event cannot be found in the DB.
var ErrEventNotFound = errors.New("event not found")

// EventRepo encapsulates all database queries related to events.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo constructs an EventRepo with the provided DB handle.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so services can begin transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventCols = "id, title, description, category, starts_at, organizer, image_url, venue_id, created_at, updated_at"

func scanEvent(scan func(dest ...any) error) (*model.Event, error) {
    var e model.Event
    var imageURL sql.NullString
    var venueID sql.NullInt64
    err := scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.StartsAt,
        &e.Organizer, &imageURL, &venueID, &e.CreatedAt, &e.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if imageURL.Valid {
        u := imageURL.String
        e.ImageURL = &u
    }
    if venueID.Valid {
        v := uint64(venueID.Int64)
        e.VenueID = &v
    }
    return &e, nil
}

// Create inserts a new event and populates generated fields.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
    const qInsert = `INSERT INTO events (title, description, category, starts_at, organizer, image_url, venue_id)
                     VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, qInsert, e.Title, e.Description, e.Category,
        e.StartsAt.UTC().Format("2006-01-02 15:04:05"), e.Organizer, e.ImageURL, e.VenueID)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    const qSelect = "SELECT created_at, updated_at FROM events WHERE id = ?"
    return r.db.QueryRowContext(ctx, qSelect, e.ID).Scan(&e.CreatedAt, &e.UpdatedAt)
}

// GetByID fetches an event by ID, returning ErrEventNotFound when absent.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
    row := r.db.QueryRowContext(ctx, "SELECT "+eventCols+" FROM events WHERE id = ?", id)
    e, err := scanEvent(row.Scan)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrEventNotFound
    }
    return e, err
}

// EventFilter defines filters and pagination for browsing the catalog.
// Zero values mean "no restriction"; Limit defaults to 50 when unset.
type EventFilter struct {
    From     *time.Time
    To       *time.Time
    Category string
    Query    string
    Limit    int
    Offset   int
}

// Search returns catalog events matching the filter together with the
// total number of matches for pagination. Results are ordered by start
// time ascending. The reads are snapshot reads; no consistency with
// pricing rows is promised.
func (r *EventRepo) Search(ctx context.Context, f EventFilter) ([]model.Event, int64, error) {
    where := []string{}
    args := []any{}

    if f.From != nil {
        where = append(where, "starts_at >= ?")
        args = append(args, f.From.UTC().Format("2006-01-02 15:04:05"))
    }
    if f.To != nil {
        where = append(where, "starts_at <= ?")
        args = append(args, f.To.UTC().Format("2006-01-02 15:04:05"))
    }
    if f.Category != "" {
        where = append(where, "category = ?")
        args = append(args, f.Category)
    }
    if f.Query != "" {
        where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
        pat := "%" + strings.ToLower(f.Query) + "%"
        args = append(args, pat, pat)
    }

    cond := "1=1"
    if len(where) > 0 {
        cond = strings.Join(where, " AND ")
    }

    var total int64
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events WHERE "+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    limit := f.Limit
    if limit <= 0 || limit > 200 {
        limit = 50
    }
    offset := f.Offset
    if offset < 0 {
        offset = 0
    }
    dataSQL := "SELECT " + eventCols + " FROM events WHERE " + cond + " ORDER BY starts_at ASC LIMIT ? OFFSET ?"
    argsData := append(append([]any{}, args...), limit, offset)

    rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    out := make([]model.Event, 0, limit)
    for rows.Next() {
        e, err := scanEvent(rows.Scan)
        if err != nil {
            return nil, 0, err
        }
        out = append(out, *e)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return out, total, nil
}

// Update rewrites the mutable event columns.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
    const q = `UPDATE events SET title = ?, description = ?, category = ?, starts_at = ?,
               organizer = ?, image_url = ?, venue_id = ? WHERE id = ?`
    if _, err := r.db.ExecContext(ctx, q, e.Title, e.Description, e.Category,
        e.StartsAt.UTC().Format("2006-01-02 15:04:05"), e.Organizer, e.ImageURL, e.VenueID, e.ID); err != nil {
        return err
    }
    if _, err := r.GetByID(ctx, e.ID); err != nil {
        return err
    }
    return nil
}

// Delete removes an event unless tickets or pricing rows depend on it.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
    var n int
    const qDeps = `SELECT (SELECT COUNT(*) FROM tickets WHERE event_id = ?) +
                          (SELECT COUNT(*) FROM pricings WHERE event_id = ?)`
    if err := r.db.QueryRowContext(ctx, qDeps, id, id).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        return ErrEventNotFound
    }
    return nil
}
