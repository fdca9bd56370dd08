package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dcode-github/imovel_listing_system/client/notify"
	"github.com/dcode-github/imovel_listing_system/client/view"
	"github.com/dcode-github/imovel_listing_system/models"
)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// formatPrice renders v as Brazilian reais, e.g. "R$ 450.000,00".
func formatPrice(v float64) string {
	return brl.Sprintf("R$ %.2f", v)
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}

func renderList(w io.Writer, st view.State, items []models.Imovel) {
	switch {
	case st.Loading:
		fmt.Fprintln(w, "Carregando imóveis...")
		return
	case st.LoadFailed:
		fmt.Fprintln(w, st.Err)
		fmt.Fprintln(w, "Digite 'retry' para tentar novamente.")
		return
	case len(items) == 0:
		fmt.Fprintln(w, "Nenhum imóvel encontrado.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTÍTULO\tFINALIDADE\tVALOR\tQUARTOS\tBANHEIROS\tGARAGEM\tCORRETOR")
	for _, im := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			im.ID, im.Title, im.Purpose, formatPrice(im.Price), im.Bedrooms, im.Bathrooms, yesNo(im.Garage), im.Agent)
	}
	tw.Flush()
}

func renderDetail(w io.Writer, im models.Imovel) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	rows := [][2]string{
		{"ID", im.ID},
		{"Título", im.Title},
		{"Descrição", im.Description},
		{"Endereço", im.Address},
		{"Finalidade", im.Purpose.String()},
		{"Valor", formatPrice(im.Price)},
		{"Quartos", fmt.Sprint(im.Bedrooms)},
		{"Banheiros", fmt.Sprint(im.Bathrooms)},
		{"Garagem", yesNo(im.Garage)},
		{"Corretor", im.Agent},
		{"Cadastrado em", im.CreatedAt.Local().Format("02/01/2006 15:04")},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	tw.Flush()
}

func renderNotification(w io.Writer, n notify.Notification) {
	tag := map[notify.Severity]string{
		notify.SeveritySuccess: "OK",
		notify.SeverityError:   "ERRO",
		notify.SeverityInfo:    "INFO",
	}[n.Severity]
	fmt.Fprintf(w, "[%s] %s (%s)\n", tag, n.Message, n.ID[:8])
}

func renderFormErrors(w io.Writer, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, fields[k])
	}
}

func renderCriteria(w io.Writer, st view.State) {
	c := st.Criteria
	if c.IsZero() {
		return
	}
	var parts []string
	if c.Term != "" {
		parts = append(parts, fmt.Sprintf("busca=%q", c.Term))
	}
	if c.Purpose != "" {
		parts = append(parts, "finalidade="+c.Purpose)
	}
	if c.MinPrice != "" {
		parts = append(parts, "min="+c.MinPrice)
	}
	if c.MaxPrice != "" {
		parts = append(parts, "max="+c.MaxPrice)
	}
	fmt.Fprintf(w, "Filtros: %s\n", strings.Join(parts, " "))
}
