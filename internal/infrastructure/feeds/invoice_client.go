package feeds

import (
	"context"
	"net/url"
	"strings"

	"github.com/cobranca/backend/internal/application/dashboard"
	"github.com/cobranca/backend/internal/infrastructure/config"
)

// feedDateLayout is the date format the upstream query parameters use
const feedDateLayout = "2006-01-02"

// InvoiceClient fetches raw invoice payloads from the upstream ERP. It
// returns the body untouched: the upstream has shipped several envelope
// shapes over the years and normalization owns that problem.
type InvoiceClient struct {
	client
}

// NewInvoiceClient creates an InvoiceClient
func NewInvoiceClient(cfg config.FeedsConfig) *InvoiceClient {
	return &InvoiceClient{client: newClient(cfg.InvoiceBaseURL, cfg)}
}

// FetchInvoices requests one branch's invoices for the given window
func (c *InvoiceClient) FetchInvoices(ctx context.Context, query dashboard.FeedQuery) ([]byte, error) {
	params := url.Values{}
	params.Set("filial", query.Branch)
	if !query.From.IsZero() {
		params.Set("de", query.From.Format(feedDateLayout))
	}
	if !query.To.IsZero() {
		params.Set("ate", query.To.Format(feedDateLayout))
	}
	if len(query.ClientCodes) > 0 {
		params.Set("clientes", strings.Join(query.ClientCodes, ","))
	}

	return c.do(ctx, "GET", "/contas-receber?"+params.Encode(), nil)
}

// Ensure InvoiceClient implements dashboard.InvoiceFeed
var _ dashboard.InvoiceFeed = (*InvoiceClient)(nil)
