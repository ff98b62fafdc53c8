package enrich

import (
	"bufio"
	"errors"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"ririnfo/registry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrParse marks a lookup response that could not be interpreted. Treated the
// same as any other enrichment failure: counted, logged, record emitted bare.
var ErrParse = errors.New("enrich: unparseable response")

// nameKeys and addressKeys are the whois attributes accepted as organization
// name and address, in preference order. Registries disagree on spelling.
var (
	nameKeys    = []string{"netname", "orgname", "org-name", "owner", "organisation"}
	addressKeys = []string{"address", "descr"}
)

// parseResponse dispatches on the catalog's response format.
func parseResponse(format registry.Format, body []byte, opaqueID string) (*OrganizationInfo, error) {
	switch format {
	case registry.FormatWhoisText:
		return parseWhoisText(body, opaqueID)
	default:
		return parseRIPEStat(body, opaqueID)
	}
}

// ripeStatResponse is the subset of the RIPEstat whois data API we read:
// records are groups of key/value entries, one group per whois object.
type ripeStatResponse struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Data       struct {
		Records    [][]ripeStatEntry `json:"records"`
		IRRRecords [][]ripeStatEntry `json:"irr_records"`
	} `json:"data"`
}

type ripeStatEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func parseRIPEStat(body []byte, opaqueID string) (*OrganizationInfo, error) {
	var resp ripeStatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Join(ErrParse, err)
	}
	if resp.Status != "ok" || resp.StatusCode != 200 {
		return nil, ErrParse
	}

	org := &OrganizationInfo{OpaqueID: opaqueID}
	groups := append(resp.Data.Records, resp.Data.IRRRecords...)
	for _, group := range groups {
		for _, entry := range group {
			key := strings.ToLower(strings.TrimSpace(entry.Key))
			value := strings.TrimSpace(entry.Value)
			if value == "" {
				continue
			}
			if org.Name == "" && isOneOf(key, nameKeys) {
				org.Name = value
			}
			if org.Address == "" && isOneOf(key, addressKeys) {
				org.Address = value
			}
		}
		if org.Name != "" && org.Address != "" {
			break
		}
	}
	if org.Name == "" {
		return nil, ErrParse
	}
	return org, nil
}

// parseWhoisText reads "Key: value" lines as served by the ARIN Whois-RWS
// .txt endpoints. Comment lines start with '#'. Multiple address lines are
// joined in file order.
func parseWhoisText(body []byte, opaqueID string) (*OrganizationInfo, error) {
	org := &OrganizationInfo{OpaqueID: opaqueID}
	var addressParts []string

	sc := bufio.NewScanner(strings.NewReader(string(body)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch {
		case org.Name == "" && isOneOf(key, nameKeys):
			org.Name = value
		case isOneOf(key, addressKeys) || key == "city" || key == "country":
			addressParts = append(addressParts, value)
		}
	}
	if org.Name == "" {
		return nil, ErrParse
	}
	org.Address = strings.Join(addressParts, ", ")
	return org, nil
}

func isOneOf(key string, set []string) bool {
	for _, k := range set {
		if key == k {
			return true
		}
	}
	return false
}
