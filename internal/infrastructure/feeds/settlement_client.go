package feeds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/infrastructure/config"
)

// SettlementClient submits write-offs (baixas) to the upstream ERP
type SettlementClient struct {
	client
}

// NewSettlementClient creates a SettlementClient
func NewSettlementClient(cfg config.FeedsConfig) *SettlementClient {
	return &SettlementClient{client: newClient(cfg.SettlementBaseURL, cfg)}
}

// settlementResponse is the upstream acknowledgement. Some deployments
// return HTTP 200 with ok=false and a message instead of an HTTP error.
type settlementResponse struct {
	OK       *bool  `json:"ok"`
	Mensagem string `json:"mensagem"`
}

// SubmitWriteOff settles one invoice upstream. An application-level
// rejection is returned as an error so the batch layer can record it
// against the item.
func (c *SettlementClient) SubmitWriteOff(ctx context.Context, req dashboard.WriteOffRequest) error {
	body, err := json.Marshal(map[string]any{
		"codigo_cliente": req.Key.Cliente,
		"numero_fatura":  req.Key.Fatura,
		"parcela":        req.Key.Parcela,
		"valor":          req.Valor,
		"data_baixa":     req.DataBaixa.Format(feedDateLayout),
		"motivo":         req.Motivo,
	})
	if err != nil {
		return fmt.Errorf("feeds: failed to marshal write-off: %w", err)
	}

	payload, err := c.do(ctx, "POST", "/baixas", bytes.NewReader(body))
	if err != nil {
		return err
	}

	var resp settlementResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		// An unparseable 2xx body counts as accepted; the upstream's
		// legacy endpoint answers with plain text.
		return nil
	}
	if resp.OK != nil && !*resp.OK {
		if resp.Mensagem != "" {
			return fmt.Errorf("%w: %s", ErrFeedRequestFailed, resp.Mensagem)
		}
		return errors.New("write-off rejected upstream")
	}
	return nil
}

// Ensure SettlementClient implements dashboard.SettlementSubmitter
var _ dashboard.SettlementSubmitter = (*SettlementClient)(nil)
