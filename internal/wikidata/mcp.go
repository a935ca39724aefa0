package wikidata

import "context"

// LookupWorkArgs contains parameters for a BDRC work lookup
type LookupWorkArgs struct {
	WorkID     string   `json:"work_id" jsonschema:"required" jsonschema_description:"BDRC work ID, e.g. WA0RK0529"`
	Language   string   `json:"language,omitempty" jsonschema_description:"Language code for label, description and aliases (default en)"`
	Properties []string `json:"properties,omitempty" jsonschema_description:"Wikidata property IDs to read, e.g. P31, P1476"`
}

// LookupWorkResult holds the Wikidata fields of a work
type LookupWorkResult struct {
	Found  bool    `json:"found"`
	Fields *Fields `json:"fields,omitempty"`
}

// LookupWorkMCP is the MCP wrapper for Metadata. A work without a Wikidata
// item is a normal answer, not an error.
func (c *Client) LookupWorkMCP(ctx context.Context, args LookupWorkArgs) (LookupWorkResult, error) {
	fields, err := c.Metadata(ctx, args.WorkID, args.Language, args.Properties)
	if IsNotFound(err) {
		return LookupWorkResult{Found: false}, nil
	}
	if err != nil {
		return LookupWorkResult{}, err
	}
	return LookupWorkResult{Found: true, Fields: fields}, nil
}
