package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"
)

// LookupCNPJ resolves a CNPJ (digits only) to its registered legal entity.
// The backend proxies the public registry and applies its own caching.
func (b *Backend) LookupCNPJ(ctx context.Context, token, cnpjDigits string) (*domain.CNPJEnrichment, error) {
	var out domain.CNPJEnrichment
	err := b.execute(ctx, "cnpj.lookup", func() error {
		return b.doJSON(ctx, http.MethodGet, "/api/cnpj/"+url.PathEscape(cnpjDigits), token, nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
