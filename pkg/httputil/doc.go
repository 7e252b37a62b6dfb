// Package httputil fetches lineage documents over HTTP.
//
// A metadata service usually owns the lineage of a table, so the CLI accepts
// an http(s) URL anywhere it accepts a dataset file:
//
//	lineageview render "https://metadata.example.com/lineage?key=hive://gold.core/orders"
//
// [Client] adds configured headers (an Authorization token, say) to every
// request, retries network failures and 5xx responses with backoff, and
// keeps response bodies in a [cache.Cache] so repeated renders of the same
// URL do not hit the service again until the entry expires.
//
// # Usage
//
//	client := httputil.NewClient(httputil.Options{
//	    Cache:   fileCache,
//	    TTL:     time.Hour,
//	    Headers: map[string]string{"Authorization": "Bearer " + token},
//	})
//	body, cached, err := client.Fetch(ctx, url, false)
package httputil
