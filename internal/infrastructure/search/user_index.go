package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/identity-service/internal/domain/entity"
	"github.com/oksasatya/identity-service/pkg/helpers"
)

const (
	defaultSize = 10
	maxSize     = 50
)

// UserIndex mirrors accounts into an Elasticsearch index for directory search.
type UserIndex struct {
	es      *elasticsearch.Client
	index   string
	timeout time.Duration
}

func NewUserIndex(es *elasticsearch.Client, index string) *UserIndex {
	return &UserIndex{es: es, index: index, timeout: 3 * time.Second}
}

// mapping keeps identifiers exact and names analysed for full-text search.
const mapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "username":       {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "email":          {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "first_name":     {"type": "text"},
      "last_name":      {"type": "text"},
      "full_name":      {"type": "text"},
      "account_status": {"type": "keyword"},
      "created_at":     {"type": "date"},
      "updated_at":     {"type": "date"}
    }
  }
}`

// EnsureIndex creates the users index with its mapping on first start.
func (i *UserIndex) EnsureIndex(ctx context.Context) error {
	if !i.enabled() {
		return nil
	}
	return helpers.EnsureIndex(ctx, i.es, i.index, []byte(mapping))
}

func (i *UserIndex) enabled() bool {
	return i != nil && i.es != nil && i.index != ""
}

// Document is the indexed projection of a user. It never carries credentials.
type Document struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	FullName      string `json:"full_name"`
	AccountStatus string `json:"account_status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func NewDocument(u *entity.User) Document {
	return Document{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		FullName:      u.FirstName + " " + u.LastName,
		AccountStatus: string(u.AccountStatus),
		CreatedAt:     u.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:     u.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (i *UserIndex) Index(ctx context.Context, u *entity.User) error {
	if !i.enabled() {
		return nil
	}
	b, err := json.Marshal(NewDocument(u))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: i.index, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	res, err := req.Do(c, i.es)
	if err != nil {
		return fmt.Errorf("index user: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index user: %s", res.Status())
	}
	return nil
}

// Remove deletes the document; an already missing document is fine.
func (i *UserIndex) Remove(ctx context.Context, id string) error {
	if !i.enabled() {
		return nil
	}
	req := esapi.DeleteRequest{Index: i.index, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	res, err := req.Do(c, i.es)
	if err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove user: %s", res.Status())
	}
	return nil
}

// Search runs a multi_match over identity and name fields.
func (i *UserIndex) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if !i.enabled() {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > maxSize {
		size = defaultSize
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "email^2", "full_name", "first_name", "last_name"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	res, err := i.es.Search(
		i.es.Search.WithContext(c),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search users: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
