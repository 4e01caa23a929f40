package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"farcaster-attestation-frame/internal/domain/model"
	"farcaster-attestation-frame/internal/domain/ports/adapter"
)

var _ adapter.ChainProvider = (*EASRelayProvider)(nil)

// EASRelayProvider talks to an EAS-style attestation relay over REST: it
// looks up payment transactions, files attestations against a schema, and
// mints the reward token. The relay owns key management and gas; this client
// only carries the call contract.
type EASRelayProvider struct {
	base           string
	apiKey         string
	chainID        int64
	schemaID       string
	paymentAddress string
	paymentValue   string
	client         *http.Client
}

func NewEASRelayProvider(baseURL, apiKey string, chainID int64, schemaID, paymentAddress, paymentValue string, timeout time.Duration) (*EASRelayProvider, error) {
	if baseURL == "" {
		return nil, errors.New("chain base url empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid chain base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &EASRelayProvider{
		base:           baseURL,
		apiKey:         apiKey,
		chainID:        chainID,
		schemaID:       schemaID,
		paymentAddress: paymentAddress,
		paymentValue:   paymentValue,
		client:         &http.Client{Timeout: timeout},
	}, nil
}

func (p *EASRelayProvider) PaymentDescriptor(jobID string) model.TransactionDescriptor {
	return model.TransactionDescriptor{
		ChainID: p.chainID,
		To:      p.paymentAddress,
		Value:   p.paymentValue,
	}
}

func (p *EASRelayProvider) TransactionStatus(ctx context.Context, txHash string) (adapter.TxStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/transactions/"+url.PathEscape(txHash), nil)
	if err != nil {
		return "", err
	}
	p.auth(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return adapter.TxStatusAbsent, nil
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("chain tx lookup http %d", resp.StatusCode)
	}

	var out struct {
		TransactionHash string `json:"transactionHash"`
		Status          string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	switch out.Status {
	case "confirmed":
		return adapter.TxStatusConfirmed, nil
	case "pending":
		return adapter.TxStatusPending, nil
	default:
		return adapter.TxStatusAbsent, nil
	}
}

// Attest files the attestation for a validated job and returns the
// attestation hash.
func (p *EASRelayProvider) Attest(ctx context.Context, job model.Job, verdict adapter.Verdict) (string, error) {
	payload := map[string]any{
		"schema_id": p.schemaID,
		"chain_id":  p.chainID,
		"cast_hash": job.CastHash,
		"user_fid":  job.UserFID,
		"text":      job.Text,
		"image_url": job.ImageURL,
		"is_valid":  verdict.IsValid,
	}
	var out struct {
		AttestationHash string `json:"attestationHash"`
	}
	if err := p.post(ctx, "/attestations", payload, &out); err != nil {
		return "", err
	}
	if out.AttestationHash == "" {
		return "", errors.New("chain attest: empty hash")
	}
	return out.AttestationHash, nil
}

// MintReward mints the token reward for the job's author.
func (p *EASRelayProvider) MintReward(ctx context.Context, job model.Job) (string, error) {
	payload := map[string]any{
		"chain_id": p.chainID,
		"user_fid": job.UserFID,
		"job_id":   job.JobID,
	}
	var out struct {
		RewardTransactionHash string `json:"rewardTransactionHash"`
	}
	if err := p.post(ctx, "/rewards", payload, &out); err != nil {
		return "", err
	}
	if out.RewardTransactionHash == "" {
		return "", errors.New("chain reward mint: empty hash")
	}
	return out.RewardTransactionHash, nil
}

func (p *EASRelayProvider) post(ctx context.Context, path string, payload any, out any) error {
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	p.auth(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("chain %s http %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (p *EASRelayProvider) auth(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}
