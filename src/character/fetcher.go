package character

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	lru "github.com/gabrielantonyxaviour/franky-hedera-sub000/src/cache"
)

// Fetcher resolves agent records from the registry indexer and their
// character cards from the config URL each record points at. Resolved agents
// are cached because every chat request needs one.
type Fetcher struct {
	baseURL string
	client  *http.Client
	cache   *lru.LRU[*Agent]
	log     zerolog.Logger
}

func NewFetcher(baseURL string, cacheTTL time.Duration, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   lru.NewLRU[*Agent](256, cacheTTL),
		log:     log,
	}
}

// agentRecord is the indexer's wire shape. characterConfig is a URL.
type agentRecord struct {
	ID            string `json:"id"`
	Subname       string `json:"subname"`
	Owner         string `json:"owner"`
	DeviceAddress string `json:"deviceAddress"`
	Avatar        string `json:"avatar"`
	IsPublic      bool   `json:"isPublic"`
	PerAPICallFee string `json:"perApiCallFee"`
	KeyHash       string `json:"keyHash"`
	CharacterURL  string `json:"characterConfig"`
}

// ErrAgentNotFound is returned when the indexer has no record for the id.
var ErrAgentNotFound = errors.New("character: agent not found")

// Fetch resolves the agent, serving from cache when fresh.
func (f *Fetcher) Fetch(ctx context.Context, agentID string) (*Agent, error) {
	key := strings.ToLower(agentID)
	if agent, ok := f.cache.Get(key); ok {
		f.log.Debug().Str("agent_id", agentID).Msg("agent served from cache")
		return agent, nil
	}

	record, err := f.fetchRecord(ctx, agentID)
	if err != nil {
		return nil, err
	}

	card, err := f.fetchCard(ctx, record.CharacterURL)
	if err != nil {
		return nil, err
	}

	fee, _ := strconv.ParseFloat(record.PerAPICallFee, 64)
	agent := &Agent{
		ID:            record.ID,
		Subname:       record.Subname,
		Owner:         record.Owner,
		DeviceAddress: record.DeviceAddress,
		Avatar:        record.Avatar,
		IsPublic:      record.IsPublic,
		PerAPICallFee: fee,
		KeyHash:       record.KeyHash,
		Character:     card,
	}

	f.cache.Set(key, agent)
	f.log.Info().Str("agent_id", agentID).Str("character", card.Name).Msg("agent resolved")
	return agent, nil
}

func (f *Fetcher) fetchRecord(ctx context.Context, agentID string) (agentRecord, error) {
	var record agentRecord

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/agents/"+agentID, nil)
	if err != nil {
		return record, errors.Wrap(err, "character: build request")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return record, errors.Wrap(err, "character: fetch agent record")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return record, ErrAgentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return record, errors.Errorf("character: indexer returned %d for agent %s", resp.StatusCode, agentID)
	}

	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return record, errors.Wrap(err, "character: decode agent record")
	}
	if record.ID == "" {
		return record, ErrAgentNotFound
	}
	return record, nil
}

func (f *Fetcher) fetchCard(ctx context.Context, url string) (Character, error) {
	var card Character
	if url == "" {
		return card, errors.New("character: agent record has no character config url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return card, errors.Wrap(err, "character: build request")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return card, errors.Wrap(err, "character: fetch card")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return card, errors.Errorf("character: card url returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return card, errors.Wrap(err, "character: read card")
	}

	// Cards may carry encrypted secret fields alongside the persona; only the
	// persona fields are decoded, so secrets never enter the process.
	if err := json.Unmarshal(body, &card); err != nil {
		return card, errors.Wrap(err, "character: decode card")
	}
	return card, nil
}
