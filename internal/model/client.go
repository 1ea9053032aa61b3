package model

import (
	"bytes"
	"encoding/json"
)

// FlexString accepts a JSON string or number. The portal is not consistent
// about how it encodes identifiers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Client is the record returned by a successful credit-line lookup.
type Client struct {
	ID              FlexString `json:"id"`
	Name            string     `json:"nombre"`
	DocumentNumber  string     `json:"numeroDocumento"`
	Segment         string     `json:"segmentacionCliente"`
	HasCreditLine   bool       `json:"tieneLineaCredito"`
	CreditLine      float64    `json:"lineaCredito"`
	LoadDate        string     `json:"fechaCarga"`
	QueryID         FlexString `json:"idConsulta"`
	ContactEmail    string     `json:"correoSAP"`
	ContactPhone    string     `json:"numeroTelefonoSAP"`
	ActiveCampaign  bool       `json:"activeCampaign"`
	AdditionalBonus float64    `json:"additionalBonus"`
	Accounts        []Account  `json:"cuentasContrato"`
}

type Account struct {
	ID       FlexString `json:"id"`
	Account  string     `json:"cuentaCorriente"`
	Address  string     `json:"direccion"`
	Category string     `json:"categoria"`
	GeoCode  string     `json:"ubigeoInei"`
	Active   bool       `json:"status"`
}

// Exists reports whether the portal knows this client.
func (c *Client) Exists() bool {
	return c != nil && c.ID != ""
}
