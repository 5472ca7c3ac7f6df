package feeds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/domain/receivable"
	"github.com/cobranca/backend/internal/infrastructure/config"
)

// PersonClient fetches client enrichment rows in batches
type PersonClient struct {
	client
}

// NewPersonClient creates a PersonClient
func NewPersonClient(cfg config.FeedsConfig) *PersonClient {
	return &PersonClient{client: newClient(cfg.PersonBaseURL, cfg)}
}

// personRow mirrors one upstream person record
type personRow struct {
	Codigo       string `json:"codigo"`
	Nome         string `json:"nome"`
	NomeFantasia string `json:"nome_fantasia"`
	Estado       string `json:"estado"`
	Telefone     string `json:"telefone"`
	Tipo         string `json:"tipo"`
}

// personResponse tolerates the two envelope shapes the endpoint has used
type personResponse struct {
	Data  []personRow `json:"data"`
	Dados []personRow `json:"dados"`
}

// FetchPersons looks up enrichment rows for the given client codes. The
// caller chunks the codes; this client sends one request per call.
func (c *PersonClient) FetchPersons(ctx context.Context, clientCodes []string) ([]receivable.PersonInfo, error) {
	reqBody, err := json.Marshal(map[string]any{"codigos": clientCodes})
	if err != nil {
		return nil, fmt.Errorf("feeds: failed to marshal person request: %w", err)
	}

	payload, err := c.do(ctx, "POST", "/pessoas/lookup", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}

	rows, err := decodePersonRows(payload)
	if err != nil {
		return nil, err
	}

	persons := make([]receivable.PersonInfo, 0, len(rows))
	for _, row := range rows {
		if row.Codigo == "" {
			continue
		}
		persons = append(persons, receivable.PersonInfo{
			Codigo:       row.Codigo,
			Nome:         row.Nome,
			NomeFantasia: row.NomeFantasia,
			Estado:       row.Estado,
			Telefone:     row.Telefone,
			Tipo:         row.Tipo,
		})
	}
	return persons, nil
}

func decodePersonRows(payload []byte) ([]personRow, error) {
	var bare []personRow
	if err := json.Unmarshal(payload, &bare); err == nil {
		return bare, nil
	}

	var wrapped personResponse
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return nil, fmt.Errorf("feeds: undecodable person response: %w", err)
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return wrapped.Dados, nil
}

// Ensure PersonClient implements dashboard.PersonFeed
var _ dashboard.PersonFeed = (*PersonClient)(nil)
