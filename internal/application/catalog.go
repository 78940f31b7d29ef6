package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"github.com/atvirokodosprendimai/portafolio/internal/registry"
	"go.uber.org/zap"
)

// Messages translates user-facing message IDs.
type Messages interface {
	T(messageID string, data ...map[string]any) string
}

const (
	NoticeInfo  = "info"
	NoticeError = "error"
)

type Notice struct {
	Kind string
	Text string
}

func (n Notice) Empty() bool { return n.Text == "" }

// EntityPage is everything the entity view renders: the list, the lookup
// lists for the form dropdowns, and the record being edited in ModeUpdate.
type EntityPage struct {
	Entity   *domain.EntityDef
	Records  []domain.Record
	View     []domain.Record
	Lookups  map[string][]domain.Record
	Selected domain.Record
	Mode     Mode
	Notice   Notice
}

type PingResult struct {
	Entity   string        `json:"entity"`
	Endpoint string        `json:"endpoint"`
	OK       bool          `json:"ok"`
	Rows     int           `json:"rows"`
	Elapsed  time.Duration `json:"elapsed"`
	Error    string        `json:"error,omitempty"`
}

// CatalogService proxies CRUD for every registered entity to the backend.
// Calls within one operation are made one after another.
type CatalogService struct {
	backend  domain.Backend
	registry *registry.Registry
	audit    domain.AuditRepository
	messages Messages
	logger   *zap.Logger
	now      func() time.Time
}

func NewCatalogService(backend domain.Backend, reg *registry.Registry, audit domain.AuditRepository, messages Messages, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		backend:  backend,
		registry: reg,
		audit:    audit,
		messages: messages,
		logger:   logger.Named("catalog"),
		now:      time.Now,
	}
}

func (s *CatalogService) Registry() *registry.Registry { return s.registry }

func (s *CatalogService) Messages() Messages { return s.messages }

func (s *CatalogService) Entity(name string) (*domain.EntityDef, error) {
	def, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEntity, name)
	}
	return def, nil
}

// ListPage loads the entity list, its lookups and its view. It never fails:
// a failed fetch leaves that list empty and is logged.
func (s *CatalogService) ListPage(ctx context.Context, def *domain.EntityDef) EntityPage {
	page := EntityPage{Entity: def, Mode: ModeCreate, Lookups: make(map[string][]domain.Record)}

	records, err := s.backend.List(ctx, def.Endpoint)
	if err != nil {
		s.logger.Error("list failed", zap.String("entity", def.Name), zap.Error(err))
		records = []domain.Record{}
		page.Notice = Notice{Kind: NoticeError, Text: s.messages.T("list.unavailable")}
	}
	page.Records = records

	for _, lookup := range def.Lookups() {
		page.Lookups[lookup.Entity] = s.lookup(ctx, def, lookup.Entity)
	}

	if def.View != "" {
		view, err := s.backend.List(ctx, def.View)
		if err != nil {
			s.logger.Error("view failed", zap.String("entity", def.Name), zap.String("view", def.View), zap.Error(err))
			view = []domain.Record{}
		}
		page.View = view
	}
	return page
}

func (s *CatalogService) lookup(ctx context.Context, def *domain.EntityDef, name string) []domain.Record {
	target, ok := s.registry.Get(name)
	if !ok {
		return []domain.Record{}
	}
	rows, err := s.backend.List(ctx, target.Endpoint)
	if err != nil {
		s.logger.Error("lookup failed", zap.String("entity", def.Name), zap.String("lookup", name), zap.Error(err))
		return []domain.Record{}
	}
	return rows
}

// Search finds one record by key. When found the page switches to
// ModeUpdate with date fields normalized; otherwise it stays in ModeCreate
// with a not-found notice.
func (s *CatalogService) Search(ctx context.Context, def *domain.EntityDef, values []string) EntityPage {
	page := s.ListPage(ctx, def)

	key, err := def.Key.With(values...)
	if err != nil {
		notFound := s.messages.T("record.not_found", map[string]any{"Entity": def.Title})
		hint := s.messages.T("key.missing", map[string]any{"Fields": strings.Join(def.Key.Fields, ", ")})
		page.Notice = Notice{Kind: NoticeError, Text: notFound + " " + hint}
		return page
	}

	rec, err := s.find(ctx, def, key, page.Records)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("search failed", zap.String("entity", def.Name), zap.String("key", key.String()), zap.Error(err))
		}
		page.Notice = Notice{Kind: NoticeError, Text: s.messages.T("record.not_found", map[string]any{"Entity": def.Title})}
		return page
	}

	page.Selected = NormalizeDates(def, rec)
	page.Mode = ModeUpdate
	page.Notice = Notice{Kind: NoticeInfo, Text: s.messages.T("record.found")}
	return page
}

func (s *CatalogService) find(ctx context.Context, def *domain.EntityDef, key domain.Key, listed []domain.Record) (domain.Record, error) {
	if def.Search == domain.SearchLocal {
		for _, rec := range listed {
			if key.Matches(rec) {
				return rec, nil
			}
		}
		return nil, domain.ErrNotFound
	}
	rows, err := s.backend.Find(ctx, def.Endpoint, key)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0], nil
}

// Table returns the entity list filtered by a free-text query, for
// in-place table refreshes.
func (s *CatalogService) Table(ctx context.Context, def *domain.EntityDef, query string) EntityPage {
	page := EntityPage{Entity: def, Mode: ModeCreate, Lookups: make(map[string][]domain.Record)}
	records, err := s.backend.List(ctx, def.Endpoint)
	if err != nil {
		s.logger.Error("list failed", zap.String("entity", def.Name), zap.Error(err))
		records = []domain.Record{}
		page.Notice = Notice{Kind: NoticeError, Text: s.messages.T("list.unavailable")}
	}
	for _, lookup := range def.Lookups() {
		page.Lookups[lookup.Entity] = s.lookup(ctx, def, lookup.Entity)
	}
	page.Records = FilterRecords(def, records, query)
	return page
}

// FilterRecords keeps the records where any table column contains query,
// ignoring case.
func FilterRecords(def *domain.EntityDef, records []domain.Record, query string) []domain.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	columns := def.Columns()
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		for _, col := range columns {
			if strings.Contains(strings.ToLower(rec.Text(col)), q) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

func (s *CatalogService) Create(ctx context.Context, actor string, def *domain.EntityDef, form url.Values) error {
	rec, err := BuildRecord(def, form, ModeCreate, s.now())
	if err == nil {
		err = s.backend.Create(ctx, def.Endpoint, rec)
	}
	s.writeAudit(ctx, actor, def, domain.AuditCreate, "", err)
	return err
}

func (s *CatalogService) Update(ctx context.Context, actor string, def *domain.EntityDef, values []string, form url.Values) error {
	key, err := def.Key.With(values...)
	if err != nil {
		s.writeAudit(ctx, actor, def, domain.AuditUpdate, strings.Join(values, "/"), err)
		return err
	}
	rec, err := BuildRecord(def, form, ModeUpdate, s.now())
	if err == nil {
		err = s.backend.Update(ctx, def.Endpoint, key, rec)
	}
	s.writeAudit(ctx, actor, def, domain.AuditUpdate, key.String(), err)
	return err
}

func (s *CatalogService) Delete(ctx context.Context, actor string, def *domain.EntityDef, values []string) error {
	key, err := def.Key.With(values...)
	if err == nil {
		err = s.backend.Delete(ctx, def.Endpoint, key)
	}
	s.writeAudit(ctx, actor, def, domain.AuditDelete, strings.Join(values, "/"), err)
	return err
}

func (s *CatalogService) writeAudit(ctx context.Context, actor string, def *domain.EntityDef, action domain.AuditAction, key string, opErr error) {
	entry := domain.AuditEntry{Actor: actor, Entity: def.Name, Action: action, Key: key, Outcome: "ok"}
	if opErr != nil {
		entry.Outcome = "error"
		entry.Detail = opErr.Error()
		s.logger.Warn("write failed", zap.String("entity", def.Name), zap.String("action", string(action)), zap.String("key", key), zap.Error(opErr))
	}
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Error("audit write failed", zap.Error(err))
	}
}

func (s *CatalogService) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if s.audit == nil {
		return []domain.AuditEntry{}, nil
	}
	if limit <= 0 {
		limit = 200
	}
	return s.audit.ListAuditLogs(ctx, limit)
}

// Ping lists every registered endpoint once and reports what came back.
func (s *CatalogService) Ping(ctx context.Context) []PingResult {
	entities := s.registry.All()
	out := make([]PingResult, 0, len(entities))
	for _, def := range entities {
		started := time.Now()
		rows, err := s.backend.List(ctx, def.Endpoint)
		res := PingResult{Entity: def.Name, Endpoint: def.Endpoint, OK: err == nil, Rows: len(rows), Elapsed: time.Since(started)}
		if err != nil {
			res.Error = err.Error()
		}
		out = append(out, res)
	}
	return out
}
