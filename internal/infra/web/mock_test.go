//go:build !integration

package web_test

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/usecase"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

type MockSubmitUC struct {
	EntryView  model.InfoView
	SubmitFunc func(ctx context.Context, castHash string, userFID int64) (model.InfoView, error)
}

var _ usecase.SubmitUseCase = (*MockSubmitUC)(nil)

func (m *MockSubmitUC) Entry(ctx context.Context) model.InfoView { return m.EntryView }

func (m *MockSubmitUC) Submit(ctx context.Context, castHash string, userFID int64) (model.InfoView, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, castHash, userFID)
	}
	return model.InfoView{Stage: model.StageValidating}, nil
}

type MockStatusUC struct {
	ValidationStatusFunc func(ctx context.Context, jobID string) (model.InfoView, error)
	JobStatusFunc        func(ctx context.Context, jobID string) (model.InfoView, error)
	ResetFunc            func(ctx context.Context, jobID string) error

	ResetCalls []string
}

var _ usecase.StatusUseCase = (*MockStatusUC)(nil)

func (m *MockStatusUC) ValidationStatus(ctx context.Context, jobID string) (model.InfoView, error) {
	if m.ValidationStatusFunc != nil {
		return m.ValidationStatusFunc(ctx, jobID)
	}
	return model.InfoView{Stage: model.StageValidating}, nil
}

func (m *MockStatusUC) JobStatus(ctx context.Context, jobID string) (model.InfoView, error) {
	if m.JobStatusFunc != nil {
		return m.JobStatusFunc(ctx, jobID)
	}
	return model.InfoView{Stage: model.StageValidating}, nil
}

func (m *MockStatusUC) Reset(ctx context.Context, jobID string) error {
	m.ResetCalls = append(m.ResetCalls, jobID)
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, jobID)
	}
	return nil
}

type MockPaymentUC struct {
	DescriptorFunc    func(ctx context.Context, jobID string) (model.TransactionDescriptor, error)
	SubmitPaymentFunc func(ctx context.Context, jobID, txHash string) (model.InfoView, error)
}

var _ usecase.PaymentUseCase = (*MockPaymentUC)(nil)

func (m *MockPaymentUC) Descriptor(ctx context.Context, jobID string) (model.TransactionDescriptor, error) {
	if m.DescriptorFunc != nil {
		return m.DescriptorFunc(ctx, jobID)
	}
	return model.TransactionDescriptor{}, nil
}

func (m *MockPaymentUC) SubmitPayment(ctx context.Context, jobID, txHash string) (model.InfoView, error) {
	if m.SubmitPaymentFunc != nil {
		return m.SubmitPaymentFunc(ctx, jobID, txHash)
	}
	return model.InfoView{Stage: model.StageAwaitingPayment}, nil
}

func (m *MockPaymentUC) ConfirmIfOnChain(ctx context.Context, jobID string) (bool, error) {
	return false, nil
}

func (m *MockPaymentUC) RequestMint(ctx context.Context, jobID string) error { return nil }
