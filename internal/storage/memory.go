package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/manabi/internal/model"
)

// MemoryStore is an in-process Store guarded by a RWMutex. Records are copied
// in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	schools  map[uuid.UUID]model.School
	reports  map[uuid.UUID]storedReport
	accounts map[string]model.Account
	seq      uint64
	now      func() time.Time
}

// storedReport pairs a report with its insertion sequence so reports sharing
// a date keep their creation order.
type storedReport struct {
	report model.ICTReport
	seq    uint64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		schools:  make(map[uuid.UUID]model.School),
		reports:  make(map[uuid.UUID]storedReport),
		accounts: make(map[string]model.Account),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) CreateSchool(_ context.Context, s model.School) (model.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if _, exists := m.schools[s.ID]; exists {
		return model.School{}, fmt.Errorf("storage: school %s: %w", s.ID, ErrConflict)
	}
	if m.codeTaken(s.Code, s.ID) {
		return model.School{}, fmt.Errorf("storage: school code %q: %w", s.Code, ErrConflict)
	}
	now := m.now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.schools[s.ID] = cloneSchool(s)
	return s, nil
}

func (m *MemoryStore) UpdateSchool(_ context.Context, s model.School) (model.School, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.schools[s.ID]
	if !ok {
		return model.School{}, fmt.Errorf("storage: school %s: %w", s.ID, ErrNotFound)
	}
	if m.codeTaken(s.Code, s.ID) {
		return model.School{}, fmt.Errorf("storage: school code %q: %w", s.Code, ErrConflict)
	}
	s.CreatedAt = old.CreatedAt
	s.UpdatedAt = m.now()
	m.schools[s.ID] = cloneSchool(s)
	return s, nil
}

// codeTaken reports whether a school other than id already uses code.
// Callers hold m.mu.
func (m *MemoryStore) codeTaken(code string, id uuid.UUID) bool {
	if code == "" {
		return false
	}
	for _, other := range m.schools {
		if other.ID != id && other.Code == code {
			return true
		}
	}
	return false
}

func (m *MemoryStore) GetSchool(_ context.Context, id uuid.UUID) (model.School, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.schools[id]
	if !ok {
		return model.School{}, fmt.Errorf("storage: school %s: %w", id, ErrNotFound)
	}
	return cloneSchool(s), nil
}

func (m *MemoryStore) GetSchools(_ context.Context, ids []uuid.UUID) ([]model.School, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.School, 0, len(ids))
	for _, id := range ids {
		s, ok := m.schools[id]
		if !ok {
			return nil, fmt.Errorf("storage: school %s: %w", id, ErrNotFound)
		}
		out = append(out, cloneSchool(s))
	}
	return out, nil
}

func (m *MemoryStore) ListSchools(_ context.Context, filter model.SchoolFilter, limit, offset int) ([]model.School, int, error) {
	limit, offset = clampPage(limit, offset)

	m.mu.RLock()
	matched := make([]model.School, 0, len(m.schools))
	for _, s := range m.schools {
		if matchesFilter(s, filter) {
			matched = append(matched, s)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(a, b model.School) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			strings.Compare(a.ID.String(), b.ID.String()),
		)
	})

	total := len(matched)
	if offset >= total {
		return []model.School{}, total, nil
	}
	page := matched[offset:min(offset+limit, total)]
	out := make([]model.School, len(page))
	for i, s := range page {
		out[i] = cloneSchool(s)
	}
	return out, total, nil
}

func matchesFilter(s model.School, f model.SchoolFilter) bool {
	if f.District != "" && !strings.EqualFold(s.District, f.District) {
		return false
	}
	if f.Environment != "" && s.Environment != f.Environment {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func (m *MemoryStore) DeleteSchool(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.schools[id]; !ok {
		return fmt.Errorf("storage: school %s: %w", id, ErrNotFound)
	}
	delete(m.schools, id)
	for rid, sr := range m.reports {
		if sr.report.SchoolID == id {
			delete(m.reports, rid)
		}
	}
	return nil
}

func (m *MemoryStore) CreateReport(_ context.Context, r model.ICTReport) (model.ICTReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.schools[r.SchoolID]; !ok {
		return model.ICTReport{}, fmt.Errorf("storage: school %s: %w", r.SchoolID, ErrNotFound)
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, exists := m.reports[r.ID]; exists {
		return model.ICTReport{}, fmt.Errorf("storage: report %s: %w", r.ID, ErrConflict)
	}
	now := m.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	m.seq++
	m.reports[r.ID] = storedReport{report: cloneReport(r), seq: m.seq}
	return r, nil
}

func (m *MemoryStore) UpdateReport(_ context.Context, r model.ICTReport) (model.ICTReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.reports[r.ID]
	if !ok {
		return model.ICTReport{}, fmt.Errorf("storage: report %s: %w", r.ID, ErrNotFound)
	}
	r.SchoolID = old.report.SchoolID
	r.CreatedAt = old.report.CreatedAt
	r.UpdatedAt = m.now()
	m.reports[r.ID] = storedReport{report: cloneReport(r), seq: old.seq}
	return r, nil
}

func (m *MemoryStore) GetReport(_ context.Context, id uuid.UUID) (model.ICTReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sr, ok := m.reports[id]
	if !ok {
		return model.ICTReport{}, fmt.Errorf("storage: report %s: %w", id, ErrNotFound)
	}
	return cloneReport(sr.report), nil
}

func (m *MemoryStore) ListReports(_ context.Context, schoolID uuid.UUID) ([]model.ICTReport, error) {
	return m.reportsWhere(func(r model.ICTReport) bool { return r.SchoolID == schoolID }), nil
}

func (m *MemoryStore) ListAllReports(_ context.Context) ([]model.ICTReport, error) {
	return m.reportsWhere(func(model.ICTReport) bool { return true }), nil
}

func (m *MemoryStore) reportsWhere(keep func(model.ICTReport) bool) []model.ICTReport {
	m.mu.RLock()
	matched := make([]storedReport, 0, len(m.reports))
	for _, sr := range m.reports {
		if keep(sr.report) {
			matched = append(matched, sr)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(a, b storedReport) int {
		return cmp.Or(a.report.Date.Compare(b.report.Date.Time), cmp.Compare(a.seq, b.seq))
	})
	out := make([]model.ICTReport, len(matched))
	for i, sr := range matched {
		out[i] = cloneReport(sr.report)
	}
	return out
}

func (m *MemoryStore) DeleteReport(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reports[id]; !ok {
		return fmt.Errorf("storage: report %s: %w", id, ErrNotFound)
	}
	delete(m.reports, id)
	return nil
}

func (m *MemoryStore) CreateAccount(_ context.Context, a model.Account) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[a.Name]; exists {
		return model.Account{}, fmt.Errorf("storage: account %q: %w", a.Name, ErrConflict)
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := m.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	m.accounts[a.Name] = a
	return a, nil
}

func (m *MemoryStore) GetAccountByName(_ context.Context, name string) (model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[name]
	if !ok {
		return model.Account{}, fmt.Errorf("storage: account %q: %w", name, ErrNotFound)
	}
	return a, nil
}

func (m *MemoryStore) ListAccounts(_ context.Context) ([]model.Account, error) {
	m.mu.RLock()
	out := make([]model.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Account) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.Name, b.Name))
	})
	return out, nil
}

func (m *MemoryStore) CountAccounts(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts), nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) Backend() string {
	return "memory"
}

func (m *MemoryStore) Close(context.Context) {}

// cloneSchool deep-copies the slices and pointers of s.
func cloneSchool(s model.School) model.School {
	s.Latitude = clonePtr(s.Latitude)
	s.Longitude = clonePtr(s.Longitude)
	if v, ok := s.Infrastructure.Get(); ok {
		v.PowerBackup = slices.Clone(v.PowerBackup)
		s.Infrastructure = model.Some(v)
	}
	if v, ok := s.Software.Get(); ok {
		v.OperatingSystems = slices.Clone(v.OperatingSystems)
		v.EducationalSoftware = slices.Clone(v.EducationalSoftware)
		s.Software = model.Some(v)
	}
	if v, ok := s.PedagogicalUsage.Get(); ok {
		v.SubjectsUsingICT = slices.Clone(v.SubjectsUsingICT)
		s.PedagogicalUsage = model.Some(v)
	}
	if v, ok := s.CommunityEngagement.Get(); ok {
		v.PartnerOrganizations = slices.Clone(v.PartnerOrganizations)
		s.CommunityEngagement = model.Some(v)
	}
	if v, ok := s.Accessibility.Get(); ok {
		v.AssistiveTechnologies = slices.Clone(v.AssistiveTechnologies)
		s.Accessibility = model.Some(v)
	}
	if v, ok := s.EnvironmentPractice.Get(); ok {
		v.GreenPractices = slices.Clone(v.GreenPractices)
		s.EnvironmentPractice = model.Some(v)
	}
	return s
}

func cloneReport(r model.ICTReport) model.ICTReport {
	if v, ok := r.Infrastructure.Get(); ok {
		v.PowerBackup = slices.Clone(v.PowerBackup)
		r.Infrastructure = model.Some(v)
	}
	if v, ok := r.Usage.Get(); ok {
		v.SubjectsUsingICT = slices.Clone(v.SubjectsUsingICT)
		r.Usage = model.Some(v)
	}
	if v, ok := r.Software.Get(); ok {
		v.OperatingSystems = slices.Clone(v.OperatingSystems)
		v.EducationalSoftware = slices.Clone(v.EducationalSoftware)
		r.Software = model.Some(v)
	}
	return r
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
