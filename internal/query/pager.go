package query

import (
	"context"
	"errors"
	"sync"

	"github.com/rryowa/taskmarket/internal/models"
)

var ErrNoMorePages = errors.New("no more pages")

// PageFunc загружает одну страницу по ее номеру.
type PageFunc func(ctx context.Context, page int) (models.TaskPage, error)

// Pager накапливает страницы в порядке загрузки в плоский список.
// Метаданные последней загруженной страницы определяют, есть ли еще.
// Неудачная загрузка не трогает уже накопленное.
type Pager struct {
	mu    sync.Mutex
	fetch PageFunc
	items []models.Task
	last  *models.Pagination
}

func NewPager(fetch PageFunc) *Pager {
	return &Pager{fetch: fetch}
}

func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last == nil {
		return true
	}
	return p.last.HasNext()
}

// Items возвращает копию накопленного списка.
func (p *Pager) Items() []models.Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]models.Task, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Pager) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last == nil {
		return 0
	}
	return p.last.Total
}

// FetchNext загружает следующую страницу и дописывает ее в конец.
func (p *Pager) FetchNext(ctx context.Context) ([]models.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := 1
	if p.last != nil {
		var ok bool
		next, ok = NextPageParam(*p.last)
		if !ok {
			return nil, ErrNoMorePages
		}
	}

	page, err := p.fetch(ctx, next)
	if err != nil {
		return nil, err
	}

	p.items = append(p.items, page.Tasks...)
	p.last = &page.Pagination
	return page.Tasks, nil
}

// Refresh перезапрашивает первую страницу с теми же фильтрами.
// Накопленное сбрасывается только после успешной загрузки.
func (p *Pager) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	page, err := p.fetch(ctx, 1)
	if err != nil {
		return err
	}

	p.items = append(p.items[:0:0], page.Tasks...)
	p.last = &page.Pagination
	return nil
}
