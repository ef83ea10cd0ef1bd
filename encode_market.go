package riskplan

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/etnz/riskplan/date"
)

// attrOn is the reserved property holding the day of a price row.
const attrOn = "on"

// The market-data file is human readable and git friendly: one JSON object per day, holding the
// day and the closing price of every instrument known that day.
//
//	{"on":"2025-01-02","PETR4.SA":37.1,"WEGE3.SA":52.3}
//
// The same rows can also be embedded in any JSON document, a JSONPath selector then locates the
// array of rows (e.g. "$.data").

// DecodeMarket reads a market-data file. When selector is empty the file is read as JSONL,
// otherwise as a JSON document in which selector designates the array of rows.
func DecodeMarket(filename, selector string) (*Market, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("load error: cannot open market file %q: %w", filename, err)
	}
	defer f.Close()
	if selector == "" {
		return decodeJSONL(filename, f)
	}
	return decodeJSON(filename, f, selector)
}

// decodeJSONL reads one row per line. filename is for error messages only.
func decodeJSONL(filename string, r io.Reader) (*Market, error) {
	m := NewMarket()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	i := 0
	for scanner.Scan() {
		i++
		txt := scanner.Text()
		// Start simply ignoring empty lines.
		if strings.TrimSpace(txt) == "" {
			continue
		}
		jobj := make(map[string]any)
		if err := json.Unmarshal([]byte(txt), &jobj); err != nil {
			return nil, fmt.Errorf("parse error %s:%v: not a correct json: %w", filename, i, err)
		}
		if err := decodeDailyPrices(m, jobj); err != nil {
			return nil, fmt.Errorf("parse error %s:%v: %w", filename, i, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("load error: cannot read %q: %w", filename, err)
	}
	return m, nil
}

// decodeJSON reads a whole JSON document and decodes the rows found at selector.
func decodeJSON(filename string, r io.Reader, selector string) (*Market, error) {
	var jdoc any
	if err := json.NewDecoder(r).Decode(&jdoc); err != nil {
		return nil, fmt.Errorf("parse error %s: not a correct json: %w", filename, err)
	}
	jval, err := jsonpath.Get(selector, jdoc)
	if err != nil {
		return nil, fmt.Errorf("parse error %s: invalid selector %q: %w", filename, selector, err)
	}
	jrows, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("parse error %s: selector %q must designate an array, got %T", filename, selector, jval)
	}
	// jsonpath is never clear about whether it returns the array, or a list of 1 answer being
	// the array: unwrap the later.
	if len(jrows) == 1 {
		if inner, ok := jrows[0].([]any); ok {
			jrows = inner
		}
	}

	m := NewMarket()
	for i, jrow := range jrows {
		jobj, ok := jrow.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("parse error %s: %s[%d] must be an object", filename, selector, i)
		}
		if err := decodeDailyPrices(m, jobj); err != nil {
			return nil, fmt.Errorf("parse error %s: %s[%d]: %w", filename, selector, i, err)
		}
	}
	return m, nil
}

// decodeDailyPrices appends a single row to the market.
func decodeDailyPrices(m *Market, jobj map[string]any) error {
	// Read the timestamp
	jvalue, ok := jobj[attrOn]
	if !ok {
		return fmt.Errorf("missing the property %q with a date", attrOn)
	}
	jstring, ok := jvalue.(string)
	if !ok {
		return fmt.Errorf("property %q must be of type 'string'", attrOn)
	}
	on, err := date.Parse(jstring)
	if err != nil {
		return fmt.Errorf("property %q must be a valid date: %w", attrOn, err)
	}

	// Read all other attributes as (ticker, price) pairs.
	for ticker, price := range jobj {
		if ticker == attrOn {
			continue
		}
		if price == nil { // missing quote for that day
			continue
		}
		p, ok := price.(float64)
		if !ok {
			return fmt.Errorf("property %q must be of type 'number'", ticker)
		}
		if p <= 0 {
			return fmt.Errorf("property %q must be a positive price, got %v", ticker, p)
		}
		m.Append(ticker, on, p)
	}
	return nil
}
