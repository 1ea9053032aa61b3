package model

import "strings"

type Outcome string

const (
	OutcomeHasOffer     Outcome = "has_offer"
	OutcomeNoOffer      Outcome = "no_offer"
	OutcomeDniNotFound  Outcome = "dni_not_found"
	OutcomeGenericError Outcome = "generic_error"
)

// Rendered is the client-facing message for one lookup.
type Rendered struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	HasOffer bool   `json:"hasOffer"`
}

// Compact returns the text with all whitespace runs collapsed to single spaces.
func (r Rendered) Compact() string {
	return strings.Join(strings.Fields(r.Text), " ")
}

// HTML returns the text with line breaks turned into <br/> tags.
func (r Rendered) HTML() string {
	return strings.ReplaceAll(r.Text, "\n", "<br/>")
}
