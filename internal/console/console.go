package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/support-totem125/vcc-totem/internal/errors"
	"github.com/support-totem125/vcc-totem/internal/model"
	"github.com/support-totem125/vcc-totem/internal/service"
	"github.com/support-totem125/vcc-totem/internal/util"
)

type LookupRunner interface {
	Lookup(ctx context.Context, dni string) (*service.LookupResult, error)
}

// Console is a line-oriented prompt: one DNI per line, "q" to quit.
type Console struct {
	lookups LookupRunner
	in      *bufio.Scanner
	out     io.Writer
	st      styles
}

func New(lookups LookupRunner, in io.Reader, out io.Writer) *Console {
	return &Console{
		lookups: lookups,
		in:      bufio.NewScanner(in),
		out:     out,
		st:      newStyles(out),
	}
}

// Run reads DNIs until the user quits, input ends, ctx is cancelled or the
// portal blocks the account. Only the last case returns an error.
func (c *Console) Run(ctx context.Context) error {
	c.println(c.st.banner.Render("CONSULTA DE LÍNEA DE CRÉDITO - CALIDDA"))

	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprint(c.out, "\n"+c.st.prompt.Render("Ingrese el DNI a consultar (o 'q' para salir):")+" ")
		if !c.in.Scan() {
			c.println("")
			return c.in.Err()
		}

		dni := strings.TrimSpace(c.in.Text())
		if strings.EqualFold(dni, "q") {
			c.println("\n" + c.st.dim.Render("Programa finalizado"))
			return nil
		}
		if !util.IsValidDNI(dni) {
			c.println(c.st.error.Render(fmt.Sprintf("DNI inválido. Debe contener %d dígitos numéricos", util.DNILength)))
			continue
		}

		c.println(c.st.dim.Render("Consultando DNI: " + dni))

		result, err := c.lookups.Lookup(ctx, dni)
		if err != nil {
			if apperrors.GetCode(err) == apperrors.ErrCodePortalBlocked {
				c.println(c.st.error.Render("ACCESO BLOQUEADO. El programa se cerrará."))
				return err
			}
			log.Error().Err(err).Str("dni", util.MaskDNI(dni)).Msg("console lookup failed")
			c.println(c.st.error.Render("Error: " + errorMessage(err)))
			continue
		}

		c.show(result)

		if result.Aborted {
			c.println(c.st.error.Render("ACCESO BLOQUEADO. El programa se cerrará."))
			return apperrors.PortalBlocked()
		}
	}
}

func (c *Console) show(result *service.LookupResult) {
	title := c.st.title
	if result.Message.HasOffer {
		title = c.st.offer
	}

	c.println("")
	c.println(title.Render(result.Message.Title))
	c.println("")
	c.println(c.st.body.Render(result.Message.Text))

	switch {
	case result.RateLimited:
		c.println("\n" + c.st.warn.Render("El portal limitó las consultas. Espere antes de continuar."))
	case result.Query.Status.Is(model.StatusTimeout):
		c.println("\n" + c.st.warn.Render(result.Query.RawMessage))
	}
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func errorMessage(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
