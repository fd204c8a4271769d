package core

import (
	"context"
	"sort"
	"strconv"
	"sync"
)

// memArticles is an ArticleDB and CategoryDB in memory.
type memArticles struct {
	mu         sync.Mutex
	articles   map[string]*Article
	categories map[string]*Category
	updates    int

	// onGet is called by GetArticle after reading
	onGet func(id string)
}

func newMemArticles() *memArticles {
	return &memArticles{
		articles:   make(map[string]*Article),
		categories: make(map[string]*Category),
	}
}

func (db *memArticles) CountArticles(ctx context.Context, filter ArticleFilter) (int, error) {
	filter.Limit, filter.Offset = 0, 0
	list, _ := db.GetArticles(ctx, filter)
	return len(list), nil
}

func (db *memArticles) CountByStatus(ctx context.Context) (map[Status]int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var counts = make(map[Status]int)
	for _, s := range Statuses() {
		counts[s] = 0
	}
	for _, a := range db.articles {
		counts[a.Status]++
	}
	return counts, nil
}

func (db *memArticles) GetArticle(ctx context.Context, id string) (*Article, error) {
	db.mu.Lock()
	a, ok := db.articles[id]
	var cp Article
	if ok {
		cp = *a
	}
	db.mu.Unlock()

	if db.onGet != nil {
		db.onGet(id)
	}

	if !ok {
		return nil, ErrNotFound
	}
	return &cp, nil
}

func (db *memArticles) GetArticleBySlug(ctx context.Context, slug string) (*Article, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, a := range db.articles {
		if a.Slug == slug {
			var cp = *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (db *memArticles) GetArticles(ctx context.Context, filter ArticleFilter) ([]*Article, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var list = []*Article{}
	for _, a := range db.articles {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Author != "" && a.AuthorID != filter.Author {
			continue
		}
		var cp = *a
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (db *memArticles) InsertArticle(ctx context.Context, a *Article) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if a.ID == "" {
		a.ID = strconv.Itoa(len(db.articles) + 1)
	}
	var cp = *a
	db.articles[a.ID] = &cp
	return nil
}

func (db *memArticles) UpdateArticle(ctx context.Context, a *Article) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.articles[a.ID]; !ok {
		return ErrNotFound
	}
	var cp = *a
	if stored := db.articles[a.ID]; !stored.PublishedAt.IsZero() {
		cp.PublishedAt = stored.PublishedAt
	}
	db.articles[a.ID] = &cp
	db.updates++
	return nil
}

func (db *memArticles) UpdateContent(ctx context.Context, a *Article) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	stored, ok := db.articles[a.ID]
	if !ok {
		return ErrNotFound
	}
	var cp = *a
	cp.Status = stored.Status
	cp.PublishedAt = stored.PublishedAt
	cp.ReviewedBy = stored.ReviewedBy
	cp.ReviewComment = stored.ReviewComment
	db.articles[a.ID] = &cp
	db.updates++
	return nil
}

func (db *memArticles) GetActiveCategories(ctx context.Context) ([]*Category, error) {
	all, _ := db.GetAllCategories(ctx)
	var active = []*Category{}
	for _, c := range all {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return active, nil
}

func (db *memArticles) GetAllCategories(ctx context.Context) ([]*Category, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var all = []*Category{}
	for _, c := range db.categories {
		var cp = *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SortOrder < all[j].SortOrder })
	return all, nil
}

func (db *memArticles) GetCategory(ctx context.Context, id string) (*Category, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (db *memArticles) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, c := range db.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (db *memArticles) InsertCategory(ctx context.Context, c *Category) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == "" {
		c.ID = "c" + strconv.Itoa(len(db.categories)+1)
	}
	db.categories[c.ID] = c
	return nil
}

func (db *memArticles) SetCategoryActive(ctx context.Context, id string, active bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.categories[id]
	if !ok {
		return ErrNotFound
	}
	c.IsActive = active
	return nil
}
