package repositories

import (
	"context"
	"sync"
	"time"
)

// rowMeta - указатели на служебные поля записи.
type rowMeta struct {
	id      *string
	version *int
	created *time.Time
	deleted **time.Time
}

// memoryTable хранит записи одного типа в памяти. Записи копируются на входе
// и на выходе, поэтому вызывающий код не может изменить хранилище в обход Update.
type memoryTable[T any] struct {
	mu    sync.RWMutex
	rows  map[string]T
	order []string
	meta  func(*T) rowMeta
	// unique возвращает ключ уникальности среди живых записей, "" - без ограничения
	unique func(*T) string
	now    func() time.Time
}

func newMemoryTable[T any](meta func(*T) rowMeta, unique func(*T) string) *memoryTable[T] {
	return &memoryTable[T]{
		rows:   make(map[string]T),
		meta:   meta,
		unique: unique,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (t *memoryTable[T]) alive(row *T) bool {
	return *t.meta(row).deleted == nil
}

func (t *memoryTable[T]) list(ctx context.Context, keep func(*T) bool) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if !t.alive(&row) {
			continue
		}
		if keep != nil && !keep(&row) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (t *memoryTable[T]) get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[id]
	if !ok || !t.alive(&row) {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (t *memoryTable[T]) conflicts(row *T, skipID string) bool {
	if t.unique == nil {
		return false
	}
	key := t.unique(row)
	if key == "" {
		return false
	}
	for id, existing := range t.rows {
		if id == skipID || !t.alive(&existing) {
			continue
		}
		if t.unique(&existing) == key {
			return true
		}
	}
	return false
}

func (t *memoryTable[T]) create(ctx context.Context, row *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conflicts(row, "") {
		return ErrDuplicate
	}
	m := t.meta(row)
	*m.id = newID()
	*m.version = 1
	*m.created = t.now()
	*m.deleted = nil

	t.rows[*m.id] = *row
	t.order = append(t.order, *m.id)
	return nil
}

func (t *memoryTable[T]) update(ctx context.Context, row *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.meta(row)
	stored, ok := t.rows[*m.id]
	if !ok || !t.alive(&stored) {
		return ErrNotFound
	}
	sm := t.meta(&stored)
	if *sm.version != *m.version {
		return ErrVersionConflict
	}
	if t.conflicts(row, *m.id) {
		return ErrDuplicate
	}
	*m.version = *sm.version + 1
	*m.created = *sm.created
	*m.deleted = nil
	t.rows[*m.id] = *row
	return nil
}

func (t *memoryTable[T]) delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	stored, ok := t.rows[id]
	if !ok || !t.alive(&stored) {
		return ErrNotFound
	}
	m := t.meta(&stored)
	deletedAt := t.now()
	*m.deleted = &deletedAt
	*m.version++
	t.rows[id] = stored
	return nil
}
