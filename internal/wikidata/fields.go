package wikidata

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Fields are the parts of a Wikidata item used to describe a work.
type Fields struct {
	WorkID      string              `json:"work_id,omitempty"`
	QID         string              `json:"qid"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Aliases     []string            `json:"aliases"`
	Claims      map[string][]string `json:"claims,omitempty"`
}

// ExtractFields reads the label, description and aliases in language, plus
// the main values of each requested property, from an entity document.
// Missing fields come back empty. A redirected QID resolves to the entity
// the document actually holds.
func ExtractFields(body []byte, qid, language string, properties []string) (*Fields, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("entity %s: malformed JSON", qid)
	}
	entities := gjson.GetBytes(body, "entities")
	entity := entities.Get(qid)
	if !entity.Exists() {
		entities.ForEach(func(key, value gjson.Result) bool {
			qid, entity = key.String(), value
			return false
		})
	}
	if !entity.Exists() {
		return nil, &NotFoundError{Kind: "entity", ID: qid}
	}

	f := &Fields{
		QID:         qid,
		Label:       entity.Get("labels." + language + ".value").String(),
		Description: entity.Get("descriptions." + language + ".value").String(),
		Aliases:     []string{},
	}
	for _, a := range entity.Get("aliases." + language + ".#.value").Array() {
		f.Aliases = append(f.Aliases, a.String())
	}

	if len(properties) > 0 {
		f.Claims = make(map[string][]string, len(properties))
		for _, prop := range properties {
			values := []string{}
			for _, claim := range entity.Get("claims." + prop).Array() {
				if v, ok := claimValue(claim.Get("mainsnak.datavalue.value")); ok {
					values = append(values, v)
				}
			}
			f.Claims[prop] = values
		}
	}
	return f, nil
}

// claimValue flattens a datavalue. Item references give their QID; other
// structured values give their most telling member.
func claimValue(v gjson.Result) (string, bool) {
	if !v.Exists() {
		return "", false
	}
	if !v.IsObject() {
		return v.String(), true
	}
	for _, key := range []string{"id", "text", "time", "amount"} {
		if m := v.Get(key); m.Exists() {
			return m.String(), true
		}
	}
	return v.Raw, true
}
