//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"farcaster-attestation-frame/internal/domain"
	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/domain/ports/adapter"
	"farcaster-attestation-frame/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Adapters
// =============================

// ---- Mock FarcasterClient ----

type MockFarcaster struct {
	mu      sync.Mutex
	Replies []model.Reply

	CastRepliesFunc func(ctx context.Context, castHash string) ([]model.Reply, error)

	Calls struct{ CastReplies []string }
}

var _ adapter.FarcasterClient = (*MockFarcaster)(nil)

func (m *MockFarcaster) CastReplies(ctx context.Context, castHash string) ([]model.Reply, error) {
	m.mu.Lock()
	m.Calls.CastReplies = append(m.Calls.CastReplies, castHash)
	m.mu.Unlock()
	if m.CastRepliesFunc != nil {
		return m.CastRepliesFunc(ctx, castHash)
	}
	return m.Replies, nil
}

// ---- Mock ChainProvider ----

type MockChain struct {
	mu sync.Mutex

	Status     adapter.TxStatus
	Descriptor model.TransactionDescriptor

	TransactionStatusFunc func(ctx context.Context, txHash string) (adapter.TxStatus, error)
	AttestFunc            func(ctx context.Context, job model.Job, verdict adapter.Verdict) (string, error)
	MintRewardFunc        func(ctx context.Context, job model.Job) (string, error)

	Calls struct {
		Lookups []string
		Attests []string
		Mints   []string
	}
}

var _ adapter.ChainProvider = (*MockChain)(nil)

func (m *MockChain) TransactionStatus(ctx context.Context, txHash string) (adapter.TxStatus, error) {
	m.mu.Lock()
	m.Calls.Lookups = append(m.Calls.Lookups, txHash)
	m.mu.Unlock()
	if m.TransactionStatusFunc != nil {
		return m.TransactionStatusFunc(ctx, txHash)
	}
	if m.Status == "" {
		return adapter.TxStatusPending, nil
	}
	return m.Status, nil
}

func (m *MockChain) Attest(ctx context.Context, job model.Job, verdict adapter.Verdict) (string, error) {
	m.mu.Lock()
	m.Calls.Attests = append(m.Calls.Attests, job.JobID)
	m.mu.Unlock()
	if m.AttestFunc != nil {
		return m.AttestFunc(ctx, job, verdict)
	}
	return "0xattest-" + job.JobID, nil
}

func (m *MockChain) MintReward(ctx context.Context, job model.Job) (string, error) {
	m.mu.Lock()
	m.Calls.Mints = append(m.Calls.Mints, job.JobID)
	m.mu.Unlock()
	if m.MintRewardFunc != nil {
		return m.MintRewardFunc(ctx, job)
	}
	return "0xreward-" + job.JobID, nil
}

func (m *MockChain) PaymentDescriptor(jobID string) model.TransactionDescriptor {
	return m.Descriptor
}

// =============================
// Repositories (in-memory)
// =============================

type MockValidationRepo struct {
	mu   sync.Mutex
	recs map[string]*model.ValidationRecord

	PutFunc func(ctx context.Context, tx repository.Tx, rec *model.ValidationRecord) error
	GetFunc func(ctx context.Context, tx repository.Tx, jobID string) (*model.ValidationRecord, error)
}

var _ repository.ValidationRepository = (*MockValidationRepo)(nil)

func NewMockValidationRepo() *MockValidationRepo {
	return &MockValidationRepo{recs: make(map[string]*model.ValidationRecord)}
}

func (m *MockValidationRepo) Put(ctx context.Context, tx repository.Tx, rec *model.ValidationRecord) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.recs[rec.JobID]; ok {
		if existing.SameOutcome(rec) {
			return nil
		}
		return domain.ErrRecordConflict
	}
	cp := *rec
	m.recs[rec.JobID] = &cp
	return nil
}

func (m *MockValidationRepo) Get(ctx context.Context, tx repository.Tx, jobID string) (*model.ValidationRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, tx, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

type MockAttestationRepo struct {
	mu   sync.Mutex
	recs map[string]*model.AttestationRecord

	PutFunc func(ctx context.Context, tx repository.Tx, rec *model.AttestationRecord) error
	GetFunc func(ctx context.Context, tx repository.Tx, jobID string) (*model.AttestationRecord, error)
}

var _ repository.AttestationRepository = (*MockAttestationRepo)(nil)

func NewMockAttestationRepo() *MockAttestationRepo {
	return &MockAttestationRepo{recs: make(map[string]*model.AttestationRecord)}
}

func (m *MockAttestationRepo) Put(ctx context.Context, tx repository.Tx, rec *model.AttestationRecord) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.recs[rec.JobID]; ok {
		if existing.SameOutcome(rec) {
			return nil
		}
		return domain.ErrRecordConflict
	}
	cp := *rec
	m.recs[rec.JobID] = &cp
	return nil
}

func (m *MockAttestationRepo) Get(ctx context.Context, tx repository.Tx, jobID string) (*model.AttestationRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, tx, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

type MockPaymentRepo struct {
	mu   sync.Mutex
	recs map[string]*model.PaymentRecord

	SaveFunc                   func(ctx context.Context, tx repository.Tx, p *model.PaymentRecord) error
	FindByJobIDFunc            func(ctx context.Context, tx repository.Tx, jobID string) (*model.PaymentRecord, error)
	MarkConfirmedIfPendingFunc func(ctx context.Context, tx repository.Tx, jobID string) (bool, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{recs: make(map[string]*model.PaymentRecord)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.recs[p.JobID]; ok && prev.Status == model.PaymentStatusConfirmed {
		// confirmed rows are final, matching the conditional upsert
		return nil
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	m.recs[p.JobID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByJobID(ctx context.Context, tx repository.Tx, jobID string) (*model.PaymentRecord, error) {
	if m.FindByJobIDFunc != nil {
		return m.FindByJobIDFunc(ctx, tx, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.recs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentRecord
	for _, p := range m.recs {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) ListConfirmedUnminted(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentRecord
	for _, p := range m.recs {
		if p.Status == model.PaymentStatusConfirmed && p.UpdatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) MarkConfirmedIfPending(ctx context.Context, tx repository.Tx, jobID string) (bool, error) {
	if m.MarkConfirmedIfPendingFunc != nil {
		return m.MarkConfirmedIfPendingFunc(ctx, tx, jobID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.recs[jobID]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusConfirmed
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepo) MarkFailedIfPending(ctx context.Context, tx repository.Tx, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.recs[jobID]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusFailed
	p.UpdatedAt = time.Now()
	return true, nil
}

// =============================
// Bus / reset marks
// =============================

type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent

	EmitFunc func(ctx context.Context, event string, job model.Job) error
}

type EmittedEvent struct {
	Name string
	Job  model.Job
}

func (m *MockEmitter) Emit(ctx context.Context, event string, job model.Job) error {
	if m.EmitFunc != nil {
		return m.EmitFunc(ctx, event, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Name: event, Job: job})
	return nil
}

func (m *MockEmitter) Emitted() []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmittedEvent, len(m.Events))
	copy(out, m.Events)
	return out
}

type MockResetStore struct {
	mu    sync.Mutex
	marks map[string]bool
}

func NewMockResetStore() *MockResetStore {
	return &MockResetStore{marks: make(map[string]bool)}
}

func (m *MockResetStore) Mark(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marks[jobID] = true
	return nil
}

func (m *MockResetStore) IsMarked(ctx context.Context, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marks[jobID], nil
}
