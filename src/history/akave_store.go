package history

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/retry"
)

// AkaveStore persists transcripts as JSON blobs in an Akave bucket through
// its HTTP gateway. Uploads and downloads are retried because the gateway is
// eventually consistent right after bucket creation.
type AkaveStore struct {
	baseURL string
	bucket  string
	client  *http.Client
	log     zerolog.Logger

	retryCfg retry.Config
}

func NewAkaveStore(ctx context.Context, baseURL, bucket string, log zerolog.Logger) (*AkaveStore, error) {
	s := &AkaveStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
		retryCfg: retry.Config{
			Attempts: 3,
			Delay:    time.Second,
			Timeout:  30 * time.Second,
		},
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AkaveStore) ensureBucket(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/buckets/"+s.bucket, nil)
	if err != nil {
		return errors.Wrap(err, "akave: build request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "akave: check bucket")
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	s.log.Info().Str("bucket", s.bucket).Msg("creating history bucket")
	body, _ := json.Marshal(map[string]string{"bucketName": s.bucket})
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/buckets", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "akave: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "akave: create bucket")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.Errorf("akave: create bucket returned %d", resp.StatusCode)
	}
	return nil
}

func (s *AkaveStore) Load(ctx context.Context, id string) ([]Turn, error) {
	return retry.Do(ctx, s.retryCfg, func(ctx context.Context) ([]Turn, error) {
		url := s.baseURL + "/buckets/" + s.bucket + "/files/" + id + ".json/download"
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrap(err, "akave: build request")
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "akave: download")
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, retry.Permanent(ErrNotFound)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("akave: download returned %d", resp.StatusCode)
		}

		var turns []Turn
		if err := json.NewDecoder(resp.Body).Decode(&turns); err != nil {
			return nil, errors.Wrap(err, "akave: decode transcript")
		}
		return turns, nil
	})
}

func (s *AkaveStore) Save(ctx context.Context, id string, turns []Turn) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return errors.Wrap(err, "akave: encode transcript")
	}

	_, err = retry.Do(ctx, s.retryCfg, func(ctx context.Context) (struct{}, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", id+".json")
		if err != nil {
			return struct{}{}, errors.Wrap(err, "akave: build upload")
		}
		if _, err := part.Write(payload); err != nil {
			return struct{}{}, errors.Wrap(err, "akave: build upload")
		}
		if err := mw.Close(); err != nil {
			return struct{}{}, errors.Wrap(err, "akave: build upload")
		}

		url := s.baseURL + "/buckets/" + s.bucket + "/files"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
		if err != nil {
			return struct{}{}, errors.Wrap(err, "akave: build request")
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())

		resp, err := s.client.Do(req)
		if err != nil {
			return struct{}{}, errors.Wrap(err, "akave: upload")
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return struct{}{}, errors.Errorf("akave: upload returned %d", resp.StatusCode)
		}
		return struct{}{}, nil
	})
	return err
}

func (s *AkaveStore) Close(context.Context) error { return nil }
