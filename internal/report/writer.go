package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/support-totem125/vcc-totem/internal/message"
	"github.com/support-totem125/vcc-totem/internal/model"
	"github.com/support-totem125/vcc-totem/internal/service"
)

const (
	heavyRule = "======================================================================"
	lightRule = "----------------------------------------------------------------------"
	notAvail  = "N/A"
)

// Writer stores one text report per lookup under dir.
type Writer struct {
	dir       string
	generator *message.Generator
	now       func() time.Time
}

func NewWriter(dir string, generator *message.Generator) *Writer {
	return &Writer{dir: dir, generator: generator, now: time.Now}
}

// Write renders the report for result and returns the file path.
func (w *Writer) Write(result *service.LookupResult) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	now := w.now()
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.txt", result.DNI, now.Format("20060102_150405")))

	content := w.render(result, now)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	log.Info().Str("file", filepath.Base(path)).Str("state", dniState(result.Query.Client)).Msg("report saved")
	return path, nil
}

func (w *Writer) render(result *service.LookupResult, now time.Time) string {
	var b strings.Builder
	client := result.Query.Client

	b.WriteString(heavyRule + "\n")
	b.WriteString("CALIDDA - CONSULTA DE LÍNEA DE CRÉDITO\n")
	b.WriteString(heavyRule + "\n\n")
	fmt.Fprintf(&b, "Fecha de consulta: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "DNI consultado: %s\n", result.DNI)
	fmt.Fprintf(&b, "Estado: %s\n", dniState(client))
	if client.Exists() {
		if livesInLima(client) {
			b.WriteString("ES DE LIMA\n")
		} else {
			b.WriteString("NO ES DE LIMA\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(heavyRule + "\n")
	b.WriteString(result.Message.Title + "\n")
	b.WriteString(heavyRule + "\n\n")
	b.WriteString(result.Message.Text)
	b.WriteString("\n\n")

	switch {
	case client != nil:
		w.writeClient(&b, client, result.DNI)
	case result.Query.RawMessage != "":
		b.WriteString(heavyRule + "\n")
		b.WriteString("📋 DETALLE TÉCNICO\n")
		b.WriteString(heavyRule + "\n\n")
		fmt.Fprintf(&b, "Mensaje del sistema:\n%s\n", message.SanitizeHTML(result.Query.RawMessage))
	}

	b.WriteString("\n" + heavyRule + "\n")
	b.WriteString("FIN DEL REPORTE\n")
	b.WriteString(heavyRule + "\n")
	return b.String()
}

func (w *Writer) writeClient(b *strings.Builder, c *model.Client, dni string) {
	b.WriteString(heavyRule + "\n")
	b.WriteString("📋 INFORMACIÓN TÉCNICA DEL CLIENTE\n")
	b.WriteString(heavyRule + "\n\n")
	fmt.Fprintf(b, "ID Cliente: %s\n", orNA(c.ID.String()))
	fmt.Fprintf(b, "Nombre completo: %s\n", orNA(c.Name))
	fmt.Fprintf(b, "DNI: %s\n", orDefault(c.DocumentNumber, dni))
	fmt.Fprintf(b, "Segmentación: %s\n\n", orNA(c.Segment))

	b.WriteString(lightRule + "\n")
	b.WriteString("LÍNEA DE CRÉDITO\n")
	b.WriteString(lightRule + "\n\n")
	if c.HasCreditLine {
		b.WriteString("Tiene línea de crédito: SÍ\n")
		fmt.Fprintf(b, "Monto disponible: %s\n", w.generator.FormatAmount(c.CreditLine))
		fmt.Fprintf(b, "Fecha de carga: %s\n", orNA(c.LoadDate))
		fmt.Fprintf(b, "ID Consulta: %s\n", orNA(c.QueryID.String()))
	} else {
		b.WriteString("Tiene línea de crédito: NO\n")
	}

	if c.ContactEmail != "" || c.ContactPhone != "" {
		b.WriteString("\n" + lightRule + "\n")
		b.WriteString("CONTACTO SAP\n")
		b.WriteString(lightRule + "\n\n")
		fmt.Fprintf(b, "Email: %s\n", orNA(c.ContactEmail))
		fmt.Fprintf(b, "Teléfono: %s\n", orNA(c.ContactPhone))
	}

	if len(c.Accounts) > 0 {
		b.WriteString("\n" + lightRule + "\n")
		b.WriteString("CUENTAS Y DIRECCIONES\n")
		b.WriteString(lightRule + "\n\n")
		for i, acc := range c.Accounts {
			status := "Inactivo"
			if acc.Active {
				status = "Activo"
			}
			fmt.Fprintf(b, "Cuenta %d:\n", i+1)
			fmt.Fprintf(b, "  ID: %s\n", orNA(acc.ID.String()))
			fmt.Fprintf(b, "  Cuenta corriente: %s\n", orNA(acc.Account))
			fmt.Fprintf(b, "  Dirección: %s\n", NormalizeAddress(acc.Address))
			fmt.Fprintf(b, "  Categoría: %s\n", orNA(acc.Category))
			fmt.Fprintf(b, "  Ubigeo INEI: %s\n", orNA(acc.GeoCode))
			fmt.Fprintf(b, "  Estado: %s\n\n", status)
		}
	}
}

func dniState(c *model.Client) string {
	switch {
	case c.Exists() && c.HasCreditLine:
		return "✅ DNI VÁLIDO - CON OFERTA"
	case c.Exists():
		return "⚠️ DNI VÁLIDO - SIN OFERTA"
	default:
		return "❌ DNI NO ENCONTRADO O INVÁLIDO"
	}
}

func livesInLima(c *model.Client) bool {
	for _, acc := range c.Accounts {
		if strings.HasSuffix(strings.ToUpper(strings.TrimSpace(acc.Address)), "LIMA") {
			return true
		}
	}
	return false
}

// NormalizeAddress transliterates an address to ASCII and makes sure it ends
// with LIMA.
func NormalizeAddress(address string) string {
	if strings.TrimSpace(address) == "" {
		return notAvail
	}

	// Chained transformers carry state, so each call builds its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(stripMarks, address)
	if err != nil {
		log.Warn().Err(err).Msg("address normalization failed")
		ascii = address
	}
	ascii = strings.TrimSpace(ascii)

	fields := strings.Fields(ascii)
	if len(fields) == 0 {
		return notAvail
	}
	if strings.ToUpper(fields[len(fields)-1]) != "LIMA" {
		ascii += " LIMA"
	}
	return ascii
}

func orNA(s string) string {
	return orDefault(s, notAvail)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
