package repo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"floodmap/internal/need"
)

// Needs is the Postgres-backed needs collection. Every successful write is
// also published on the hub, which is how live views learn about it; the
// database row stays the source of truth.
type Needs struct {
	DB  *gorm.DB
	Hub *Hub
}

func NewNeeds(db *gorm.DB, hub *Hub) *Needs {
	return &Needs{DB: db, Hub: hub}
}

// Filter narrows one-shot queries and counts. Zero values mean no
// constraint.
type Filter struct {
	Kind    string
	OwnerID uint64
	Status  string
}

// QueryOptions is a one-shot paginated fetch. Cursor is opaque and comes
// from a previous result.
type QueryOptions struct {
	Filter     Filter
	NamePrefix string
	Limit      int
	Cursor     string
}

type QueryResult struct {
	Records    []need.Need
	NextCursor string
	HasMore    bool
}

const defaultQueryLimit = 20

func (r *Needs) Get(ctx context.Context, id string) (need.Need, error) {
	var rec need.Need
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return need.Need{}, need.ErrNotFound
		}
		return need.Need{}, err
	}
	return rec, nil
}

// Create assigns the id and timestamp, persists, and announces the pin.
func (r *Needs) Create(ctx context.Context, rec need.Need) (string, error) {
	rec.ID = uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec = rec.Normalize()

	if err := r.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", err
	}
	r.Hub.Publish(need.Added(rec))
	return rec.ID, nil
}

// Update applies a partial write, then publishes the full updated row.
func (r *Needs) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.DB.WithContext(ctx).Model(&need.Need{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return need.ErrNotFound
	}

	rec, err := r.Get(ctx, id)
	if err != nil {
		// row vanished between write and read; the delete path publishes
		return err
	}
	r.Hub.Publish(need.Modified(rec))
	return nil
}

func (r *Needs) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&need.Need{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return need.ErrNotFound
	}
	r.Hub.Publish(need.Removed(id))
	return nil
}

// Subscribe opens a live feed: the current matching rows replayed as Added
// events, then every subsequent change. The cancel must be called on
// teardown.
func (r *Needs) Subscribe(filter need.SubFilter, fn func(need.ChangeEvent)) (cancel func()) {
	return r.Hub.SubscribeSnapshot(filter, func() []need.Need {
		q := r.DB.Model(&need.Need{})
		if filter.Kind != "" {
			q = q.Where("kind = ?", filter.Kind)
		}
		if filter.OwnerID != 0 {
			q = q.Where("owner_id = ?", filter.OwnerID)
		}
		var rows []need.Need
		if err := q.Order("created_at asc, id asc").Find(&rows).Error; err != nil {
			log.Printf("repo: snapshot load failed: %v", err)
			return nil
		}
		return rows
	}, fn)
}

// Query is the one-shot fallback read path. Name-prefix search orders by
// name; everything else pages newest first on a (created_at, id) keyset.
func (r *Needs) Query(ctx context.Context, opts QueryOptions) (QueryResult, error) {
	limit := opts.Limit
	if limit < 1 || limit > 200 {
		limit = defaultQueryLimit
	}

	q := r.DB.WithContext(ctx).Model(&need.Need{})
	q = applyFilter(q, opts.Filter)

	if opts.NamePrefix != "" {
		q = q.Where("name LIKE ?", opts.NamePrefix+"%").Order("name asc, id asc")
		if opts.Cursor != "" {
			name, id, err := decodeNameCursor(opts.Cursor)
			if err != nil {
				return QueryResult{}, err
			}
			q = q.Where("(name, id) > (?, ?)", name, id)
		}
	} else {
		q = q.Order("created_at desc, id desc")
		if opts.Cursor != "" {
			ts, id, err := decodeTimeCursor(opts.Cursor)
			if err != nil {
				return QueryResult{}, err
			}
			q = q.Where("(created_at, id) < (?, ?)", ts, id)
		}
	}

	var rows []need.Need
	if err := q.Limit(limit).Find(&rows).Error; err != nil {
		return QueryResult{}, err
	}

	out := QueryResult{Records: rows, HasMore: len(rows) == limit}
	if len(rows) > 0 {
		last := rows[len(rows)-1]
		if opts.NamePrefix != "" {
			out.NextCursor = encodeNameCursor(last.Name, last.ID)
		} else {
			out.NextCursor = encodeTimeCursor(last.CreatedAt, last.ID)
		}
	}
	return out, nil
}

// CountMatching is the aggregate used by the landing statistics.
func (r *Needs) CountMatching(ctx context.Context, f Filter) (int64, error) {
	var n int64
	q := applyFilter(r.DB.WithContext(ctx).Model(&need.Need{}), f)
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func applyFilter(q *gorm.DB, f Filter) *gorm.DB {
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

func encodeTimeCursor(ts time.Time, id string) string {
	return strconv.FormatInt(ts.UnixNano(), 10) + "|" + id
}

func decodeTimeCursor(s string) (time.Time, string, error) {
	nanos, id, ok := strings.Cut(s, "|")
	if !ok {
		return time.Time{}, "", fmt.Errorf("bad cursor")
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("bad cursor")
	}
	return time.Unix(0, n), id, nil
}

func encodeNameCursor(name, id string) string { return "n|" + name + "|" + id }

func decodeNameCursor(s string) (string, string, error) {
	rest, found := strings.CutPrefix(s, "n|")
	if !found {
		return "", "", fmt.Errorf("bad cursor")
	}
	i := strings.LastIndex(rest, "|")
	if i < 0 {
		return "", "", fmt.Errorf("bad cursor")
	}
	return rest[:i], rest[i+1:], nil
}
