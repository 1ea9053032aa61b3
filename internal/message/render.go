package message

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	textmsg "golang.org/x/text/message"

	"github.com/support-totem125/vcc-totem/internal/model"
)

const (
	titleHasOffer = "🎉 ¡FELICITACIONES!"
	titleNoOffer  = "ℹ️ INFORMACIÓN DE TU CONSULTA"
	titleNotFound = "⚠️ DNI NO ENCONTRADO"
	titleGeneric  = "⚠️ INFORMACIÓN"

	defaultFirstName = "Cliente"
	loadDateFallback = "consultar"
)

const notFoundText = `Lo sentimos,
No pudimos encontrar información asociada a este DNI en nuestro sistema.
Posibles razones:
   • El DNI no está registrado como cliente de Calidda
   • Existe un error en el número ingresado
Por favor, verifica el DNI e inténtalo nuevamente.

¡Gracias!`

const genericText = `Hola Cliente,
En este momento no podemos procesar tu consulta.
¡Gracias por tu comprensión!`

var (
	lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagPattern       = regexp.MustCompile(`<[^>]+>`)
)

// Generator renders client-facing messages. It holds no mutable state and is
// safe for concurrent use.
type Generator struct {
	showDetail bool
	printer    *textmsg.Printer
}

// NewGenerator returns a Generator. With showDetail set, generic error
// messages carry the sanitized remote message.
func NewGenerator(showDetail bool) *Generator {
	return &Generator{
		showDetail: showDetail,
		printer:    textmsg.NewPrinter(language.English),
	}
}

// Render builds the message for an outcome. client may be nil for every
// outcome except HasOffer and NoOffer, which fall back to generic copy when
// it is missing.
func (g *Generator) Render(outcome model.Outcome, client *model.Client, raw string) model.Rendered {
	switch outcome {
	case model.OutcomeHasOffer:
		if client != nil {
			return g.hasOffer(client)
		}
	case model.OutcomeNoOffer:
		if client != nil {
			return noOffer(client)
		}
	case model.OutcomeDniNotFound:
		return model.Rendered{Title: titleNotFound, Text: notFoundText}
	}
	return g.generic(raw)
}

func (g *Generator) hasOffer(client *model.Client) model.Rendered {
	validFrom := loadDateFallback
	if client.LoadDate != "" {
		validFrom = truncate(client.LoadDate, 10)
	}

	text := fmt.Sprintf(`Hola %s,
¡Tenemos excelentes noticias para ti!
Tienes una línea de crédito APROBADA por:
💰 %s
Esta oferta está vigente desde: %s
¡Gracias por confiar en Calidda!`, FirstName(client.Name), g.FormatAmount(client.CreditLine), validFrom)

	return model.Rendered{Title: titleHasOffer, Text: text, HasOffer: true}
}

func noOffer(client *model.Client) model.Rendered {
	text := fmt.Sprintf(`Hola %s,
Gracias por tu interés en nuestros servicios de crédito.
En este momento no cuentas con una línea de crédito disponible.
📋 Estado: %s
💡 ¿Cómo puedo calificar?
   • Mantén tus pagos al día
   • Continúa usando nuestro servicio regularmente
   • Evaluamos periódicamente a nuestros clientes
Sigue usando el servicio de Calidda y muy pronto podrías calificar
para una oferta crediticia.
¡Hasta luego!`, FirstName(client.Name), client.Segment)

	return model.Rendered{Title: titleNoOffer, Text: text}
}

func (g *Generator) generic(raw string) model.Rendered {
	text := genericText
	if g.showDetail {
		if detail := SanitizeHTML(raw); detail != "" {
			text += "\n\nDetalle: " + detail
		}
	}
	return model.Rendered{Title: titleGeneric, Text: text}
}

// FormatAmount renders a credit line as soles with thousands grouping,
// e.g. "S/ 1,500.50".
func (g *Generator) FormatAmount(amount float64) string {
	return "S/ " + g.printer.Sprintf("%.2f", amount)
}

// FirstName returns the first word of a full name, or "Cliente" when empty.
func FirstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return defaultFirstName
}

// SanitizeHTML turns <br> tags into newlines and strips every other tag.
func SanitizeHTML(s string) string {
	if s == "" {
		return ""
	}
	s = lineBreakPattern.ReplaceAllString(s, "\n")
	s = tagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
