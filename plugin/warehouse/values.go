package warehouse

import (
	"encoding/base64"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// NormalizeValue recursively converts a BigQuery value into something
// encoding/json can serialize deterministically: NUMERIC/BIGNUMERIC become
// float64, date/time types become RFC 3339 text, byte blobs become base64.
func NormalizeValue(v bigquery.Value) any {
	switch t := v.(type) {
	case nil:
		return nil
	case *big.Rat:
		return ratToFloat(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case civil.Date:
		return t.String()
	case civil.Time:
		return t.String()
	case civil.DateTime:
		return t.String()
	case []byte:
		return base64.StdEncoding.EncodeToString(t)
	case []bigquery.Value:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = NormalizeValue(e)
		}
		return out
	case map[string]bigquery.Value:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = NormalizeValue(e)
		}
		return out
	default:
		return v
	}
}

func ratToFloat(r *big.Rat) float64 {
	// Round through shopspring/decimal so values survive a float round-trip
	// the same way regardless of scale.
	d := decimal.NewFromBigRat(r, 9)
	f, _ := d.Float64()
	return f
}
