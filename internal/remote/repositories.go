package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// listPageSize is the page size used when draining a collection. The remote
// API caps page_size at 10000; 500 keeps individual responses small.
const listPageSize = 500

// entityPaths maps snapshot entity kinds to their remote API routes.
var entityPaths = map[string]string{
	"products":    "/api/products",
	"suppliers":   "/api/suppliers",
	"customers":   "/api/customers",
	"employees":   "/api/employees",
	"purchases":   "/api/purchases",
	"sales":       "/api/sales",
	"returns":     "/api/returns",
	"income":      "/api/income",
	"remittances": "/api/remittance",
}

// pageData is the remote API's paginated list shape.
type pageData struct {
	Items      []json.RawMessage `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// ListAll drains every page of the given entity collection for the
// authenticated user. Records are returned as the remote API's full JSON
// objects, in the server's listing order.
func (c *Client) ListAll(ctx context.Context, kind string) ([]json.RawMessage, error) {
	path, ok := entityPaths[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	var records []json.RawMessage
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("page_size", strconv.Itoa(listPageSize))

		data, err := c.do(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return nil, fmt.Errorf("list %s page %d: %w", kind, page, err)
		}

		var pd pageData
		if err := json.Unmarshal(data, &pd); err != nil {
			return nil, fmt.Errorf("decode %s page %d: %w", kind, page, err)
		}

		records = append(records, pd.Items...)
		if page >= pd.TotalPages || len(pd.Items) == 0 {
			break
		}
	}
	return records, nil
}
