package message

import (
	"strings"

	"github.com/support-totem125/vcc-totem/internal/model"
)

var notFoundMarkers = []string{"no encontrado", "no existe"}

// Classify maps a lookup result to the outcome shown to the client. It is
// total: any status it does not recognise becomes OutcomeGenericError.
func Classify(client *model.Client, status model.Status) model.Outcome {
	switch status.Kind {
	case model.StatusSuccess:
		if client == nil {
			return model.OutcomeGenericError
		}
		if client.HasCreditLine {
			return model.OutcomeHasOffer
		}
		return model.OutcomeNoOffer
	case model.StatusInvalid:
		msg := strings.ToLower(status.Message)
		for _, marker := range notFoundMarkers {
			if strings.Contains(msg, marker) {
				return model.OutcomeDniNotFound
			}
		}
	}
	return model.OutcomeGenericError
}
