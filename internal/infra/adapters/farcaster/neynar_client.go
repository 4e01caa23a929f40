package farcaster

import (
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

var _ adapter.FarcasterClient = (*NeynarClient)(nil)

// NeynarClient fetches cast conversations from the Neynar REST API.
type NeynarClient struct {
	apiKey string
	base   string // e.g. https://api.neynar.com/v2/farcaster
	client *http.Client
}

func NewNeynarClient(apiKey, baseURL string, timeout time.Duration) (*NeynarClient, error) {
	if apiKey == "" {
		return nil, errors.New("neynar api key empty")
	}
	if baseURL == "" {
		baseURL = "https://api.neynar.com/v2/farcaster"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NeynarClient{
		apiKey: apiKey,
		base:   baseURL,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// CastReplies calls /cast/conversation with reply depth 1 and returns the
// direct replies, newest first.
func (n *NeynarClient) CastReplies(ctx context.Context, castHash string) ([]model.Reply, error) {
	q := url.Values{}
	q.Set("identifier", castHash)
	q.Set("type", "hash")
	q.Set("reply_depth", "1")
	q.Set("include_chronological_parent_casts", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.base+"/cast/conversation?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api_key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("neynar http %d", resp.StatusCode)
	}

	var out struct {
		Conversation struct {
			Cast struct {
				DirectReplies []struct {
					Author struct {
						FID int64 `json:"fid"`
					} `json:"author"`
					Timestamp time.Time `json:"timestamp"`
					Text      string    `json:"text"`
					Embeds    []struct {
						URL string `json:"url"`
					} `json:"embeds"`
				} `json:"direct_replies"`
			} `json:"cast"`
		} `json:"conversation"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	replies := make([]model.Reply, 0, len(out.Conversation.Cast.DirectReplies))
	for _, r := range out.Conversation.Cast.DirectReplies {
		reply := model.Reply{
			AuthorFID: r.Author.FID,
			Timestamp: r.Timestamp,
			Text:      r.Text,
		}
		for _, e := range r.Embeds {
			reply.Embeds = append(reply.Embeds, model.Embed{URL: e.URL})
		}
		replies = append(replies, reply)
	}
	return replies, nil
}
