package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/todo-demo/domain/todo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// todoRow is the table layout of the SQL backend. Timestamps are kept as
// RFC 3339 text and tags as a JSON array so imported records round-trip
// exactly. The three secondary indexes are created but never queried.
type todoRow struct {
	ID          string  `gorm:"primarykey;size:36"`
	Title       string  `gorm:"not null"`
	Description *string
	Status      string  `gorm:"size:20;not null;index:idx_todos_status"`
	Priority    string  `gorm:"size:10;not null;index:idx_todos_priority"`
	DueDate     *string `gorm:"size:10;index:idx_todos_due_date"`
	Tags        string  `gorm:"not null"`
	CreatedAt   string  `gorm:"not null"`
	UpdatedAt   string  `gorm:"not null"`
	CompletedAt *string
}

// TableName returns the table name for todoRow.
func (todoRow) TableName() string {
	return "todos"
}

func toRow(t todo.Todo) (todoRow, error) {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return todoRow{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	row := todoRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Tags:        string(tags),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339Nano),
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.Format(time.RFC3339Nano)
		row.CompletedAt = &s
	}
	return row, nil
}

func (r todoRow) toTodo() (todo.Todo, error) {
	t := todo.Todo{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      todo.Status(r.Status),
		Priority:    todo.Priority(r.Priority),
		DueDate:     r.DueDate,
	}
	if err := json.Unmarshal([]byte(r.Tags), &t.Tags); err != nil {
		return todo.Todo{}, fmt.Errorf("todo %s: invalid tags: %w", r.ID, err)
	}
	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, r.CreatedAt); err != nil {
		return todo.Todo{}, fmt.Errorf("todo %s: invalid createdAt: %w", r.ID, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, r.UpdatedAt); err != nil {
		return todo.Todo{}, fmt.Errorf("todo %s: invalid updatedAt: %w", r.ID, err)
	}
	if r.CompletedAt != nil {
		at, err := time.Parse(time.RFC3339Nano, *r.CompletedAt)
		if err != nil {
			return todo.Todo{}, fmt.Errorf("todo %s: invalid completedAt: %w", r.ID, err)
		}
		t.CompletedAt = &at
	}
	return t, nil
}

// SQLRepository is the transactional, indexed backend built on GORM.
type SQLRepository struct {
	db   *gorm.DB
	opts options
}

var _ Repository = (*SQLRepository)(nil)

// OpenSQLite opens (creating if needed) the SQLite database at path and
// migrates the todos table. Opening fails when the driver is unusable, for
// example in a binary built without cgo.
func OpenSQLite(path string, debug bool, opts ...Option) (*SQLRepository, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// SQLite allows one writer at a time.
	sqlDB.SetMaxOpenConns(1)

	repo, err := NewSQLRepository(db, opts...)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLRepository wraps an open database and runs migrations.
func NewSQLRepository(db *gorm.DB, opts ...Option) (*SQLRepository, error) {
	if err := db.AutoMigrate(&todoRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLRepository{db: db, opts: newOptions(opts)}, nil
}

// Backend implements Repository.
func (r *SQLRepository) Backend() string {
	return BackendSQLite
}

// List returns all records in primary key order.
func (r *SQLRepository) List(ctx context.Context) ([]todo.Todo, error) {
	var rows []todoRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return rowsToTodos(rows)
}

// Get implements Repository.
func (r *SQLRepository) Get(ctx context.Context, id string) (todo.Todo, bool, error) {
	return findTodo(r.db.WithContext(ctx), id)
}

// Create implements Repository.
func (r *SQLRepository) Create(ctx context.Context, input todo.Input) (todo.Todo, error) {
	t, err := todo.New(input, r.opts.newID(), r.opts.now())
	if err != nil {
		return todo.Todo{}, err
	}
	row, err := toRow(t)
	if err != nil {
		return todo.Todo{}, err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return todo.Todo{}, fmt.Errorf("failed to create todo: %w", err)
	}
	return t, nil
}

// Update implements Repository.
func (r *SQLRepository) Update(ctx context.Context, id string, patch todo.Patch) (todo.Todo, error) {
	var updated todo.Todo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, found, err := findTodo(tx, id)
		if err != nil {
			return err
		}
		if !found {
			return todo.ErrNotFound
		}
		next, err := current.Apply(patch, r.opts.now())
		if err != nil {
			return err
		}
		if err := saveTodo(tx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return todo.Todo{}, err
	}
	return updated, nil
}

// Delete implements Repository.
func (r *SQLRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&todoRow{}, "id = ?", id)
	if err := result.Error; err != nil {
		return false, fmt.Errorf("failed to delete todo: %w", err)
	}
	return result.RowsAffected > 0, nil
}

// BulkAction implements Repository. Each action runs in one transaction.
func (r *SQLRepository) BulkAction(ctx context.Context, req todo.BulkRequest) (todo.BulkResult, error) {
	if len(req.IDs) == 0 {
		return todo.BulkResult{}, nil
	}

	switch req.Action {
	case todo.BulkDelete:
		result := r.db.WithContext(ctx).Where("id IN ?", req.IDs).Delete(&todoRow{})
		if err := result.Error; err != nil {
			return todo.BulkResult{}, fmt.Errorf("failed to delete todos: %w", err)
		}
		return todo.BulkResult{Updated: int(result.RowsAffected)}, nil

	case todo.BulkComplete:
		var updated int
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var rows []todoRow
			if err := tx.Where("id IN ?", req.IDs).Find(&rows).Error; err != nil {
				return fmt.Errorf("failed to load todos: %w", err)
			}
			now := r.opts.now()
			for _, row := range rows {
				current, err := row.toTodo()
				if err != nil {
					return err
				}
				next, changed := current.Complete(now)
				if !changed {
					continue
				}
				if err := saveTodo(tx, next); err != nil {
					return err
				}
				updated++
			}
			return nil
		})
		if err != nil {
			return todo.BulkResult{}, err
		}
		return todo.BulkResult{Updated: updated}, nil
	}

	return todo.BulkResult{}, nil
}

// ExportJSON implements Repository.
func (r *SQLRepository) ExportJSON(ctx context.Context) ([]byte, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return encodeExport(items, r.opts.now())
}

// ImportJSON implements Repository. Records whose id already exists replace
// the stored row.
func (r *SQLRepository) ImportJSON(ctx context.Context, data []byte) (int, error) {
	items, err := decodeImport(data, r.opts.newID)
	if err != nil {
		return 0, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range items {
			row, err := toRow(t)
			if err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to import todo %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Ping checks the database connection.
func (r *SQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func findTodo(db *gorm.DB, id string) (todo.Todo, bool, error) {
	var row todoRow
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return todo.Todo{}, false, nil
		}
		return todo.Todo{}, false, fmt.Errorf("failed to find todo: %w", err)
	}
	t, err := row.toTodo()
	if err != nil {
		return todo.Todo{}, false, err
	}
	return t, true, nil
}

func saveTodo(tx *gorm.DB, t todo.Todo) error {
	row, err := toRow(t)
	if err != nil {
		return err
	}
	if err := tx.Save(&row).Error; err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return nil
}

func rowsToTodos(rows []todoRow) ([]todo.Todo, error) {
	items := make([]todo.Todo, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTodo()
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, nil
}
